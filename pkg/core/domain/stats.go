package domain

// Summary aggregates click statistics over every stored link
type Summary struct {
	TotalLinks  int64 `json:"total_urls"`
	TotalClicks int64 `json:"total_clicks"`
	ActiveLinks int64 `json:"active_urls"` // links with at least one click
}

// InactiveLinks returns the number of links never followed.
func (s Summary) InactiveLinks() int64 {
	return s.TotalLinks - s.ActiveLinks
}

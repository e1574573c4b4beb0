package handler

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const maxBodyBytes = 1 << 20

// Path segments that can never be short codes regardless of configuration.
var alwaysReserved = []string{"api", "health", "metrics"}

type HTTPHandler struct {
	service  ports.LinkService
	reserved map[string]struct{}
}

func NewHTTPHandler(service ports.LinkService, reservedPaths []string) *HTTPHandler {
	reserved := make(map[string]struct{}, len(reservedPaths)+len(alwaysReserved))
	for _, p := range slices.Concat(reservedPaths, alwaysReserved) {
		if p = strings.Trim(strings.TrimSpace(p), "/"); p != "" {
			reserved[p] = struct{}{}
		}
	}
	return &HTTPHandler{service: service, reserved: reserved}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
	CustomCode  string `json:"customCode,omitempty"`
}

type CreateLinkResponse struct {
	OriginalURL string `json:"originalUrl"`
	ShortURL    string `json:"shortUrl"`
	ShortCode   string `json:"shortCode"`
	Message     string `json:"message"`
}

type LinkResponse struct {
	ID            int64      `json:"id"`
	OriginalURL   string     `json:"originalUrl"`
	ShortURL      string     `json:"shortUrl"`
	ShortCode     string     `json:"shortCode"`
	Clicks        int64      `json:"clicks"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
}

type StatsResponse struct {
	ShortCode     string     `json:"shortCode"`
	OriginalURL   string     `json:"originalUrl"`
	ShortURL      string     `json:"shortUrl"`
	Clicks        int64      `json:"clicks"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil || dec.More() {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.OriginalURL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	res, err := h.service.Shorten(r.Context(), req.OriginalURL, req.CustomCode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateLinkResponse{
		OriginalURL: res.Link.OriginalURL,
		ShortURL:    res.ShortURL,
		ShortCode:   res.Link.ShortCode,
		Message:     "URL shortened successfully",
	})
}

// List Links, newest first
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, LinkResponse{
			ID:            l.ID,
			OriginalURL:   l.OriginalURL,
			ShortURL:      h.service.ShortURL(l.ShortCode),
			ShortCode:     l.ShortCode,
			Clicks:        l.Clicks,
			CreatedAt:     l.CreatedAt,
			LastClickedAt: l.LastClickedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get Stats for a Link
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Stats(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toStats(link, h.service.ShortURL(link.ShortCode)))
}

func toStats(l *domain.Link, shortURL string) StatsResponse {
	return StatsResponse{
		ShortCode:     l.ShortCode,
		OriginalURL:   l.OriginalURL,
		ShortURL:      shortURL,
		Clicks:        l.Clicks,
		CreatedAt:     l.CreatedAt,
		LastClickedAt: l.LastClickedAt,
	}
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "URL deleted successfully"})
}

// Redirect to original URL, counting the click
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, ok := h.reserved[code]; ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	originalURL, err := h.service.ResolveAndTrack(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

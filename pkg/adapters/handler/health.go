package handler

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/wadjakorntonsri/shortlink/pkg/logging"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type HealthHandler struct {
	service ports.LinkService
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(service ports.LinkService) *HealthHandler {
	return &HealthHandler{service: service, started: time.Now(), now: time.Now}
}

type HealthReport struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Uptime    UptimeReport   `json:"uptime"`
	Database  DatabaseReport `json:"database"`
	System    SystemReport   `json:"system"`
	Process   ProcessReport  `json:"process"`
}

type UptimeReport struct {
	Seconds   int64  `json:"seconds"`
	Formatted string `json:"formatted"`
}

type DatabaseReport struct {
	TotalURLs    int64 `json:"totalUrls"`
	TotalClicks  int64 `json:"totalClicks"`
	ActiveURLs   int64 `json:"activeUrls"`
	InactiveURLs int64 `json:"inactiveUrls"`
}

type SystemReport struct {
	Platform  string       `json:"platform"`
	Arch      string       `json:"arch"`
	GoVersion string       `json:"goVersion"`
	CPUs      int          `json:"cpus"`
	Hostname  string       `json:"hostname"`
	Memory    MemoryReport `json:"memory"`
}

type MemoryReport struct {
	Total string `json:"total"`
	Free  string `json:"free"`
	Used  string `json:"used"`
}

type ProcessReport struct {
	PID         int               `json:"pid"`
	Goroutines  int               `json:"goroutines"`
	MemoryUsage map[string]string `json:"memoryUsage"`
}

type unhealthyResponse struct {
	Status    string    `json:"status"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Report serves the operational report on /api/health.
func (h *HealthHandler) Report(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, unhealthyResponse{
			Status:    "unhealthy",
			Error:     "Failed to retrieve database statistics",
			Timestamp: now,
		})
		return
	}

	uptime := int64(now.Sub(h.started).Seconds())
	writeJSON(w, http.StatusOK, HealthReport{
		Status:    "healthy",
		Timestamp: now,
		Uptime:    UptimeReport{Seconds: uptime, Formatted: formatUptime(uptime)},
		Database: DatabaseReport{
			TotalURLs:    summary.TotalLinks,
			TotalClicks:  summary.TotalClicks,
			ActiveURLs:   summary.ActiveLinks,
			InactiveURLs: summary.InactiveLinks(),
		},
		System:  systemReport(r),
		Process: processReport(),
	})
}

// Liveness is the legacy /health probe; it never touches the store.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}

func formatUptime(seconds int64) string {
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
}

func systemReport(r *http.Request) SystemReport {
	hostname, _ := os.Hostname()
	report := SystemReport{
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
		CPUs:      runtime.NumCPU(),
		Hostname:  hostname,
		Memory:    MemoryReport{Total: "unknown", Free: "unknown", Used: "unknown"},
	}

	vm, err := mem.VirtualMemoryWithContext(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("host memory unavailable")
		return report
	}
	report.Memory = MemoryReport{
		Total: gigabytes(vm.Total),
		Free:  gigabytes(vm.Available),
		Used:  gigabytes(vm.Total - vm.Available),
	}
	return report
}

func processReport() ProcessReport {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ProcessReport{
		PID:        os.Getpid(),
		Goroutines: runtime.NumGoroutine(),
		MemoryUsage: map[string]string{
			"heapAlloc": megabytes(ms.HeapAlloc),
			"heapSys":   megabytes(ms.HeapSys),
			"sys":       megabytes(ms.Sys),
		},
	}
}

func gigabytes(b uint64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/(1<<30))
}

func megabytes(b uint64) string {
	return fmt.Sprintf("%.2f MB", float64(b)/(1<<20))
}

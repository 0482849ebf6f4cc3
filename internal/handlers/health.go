package handlers

import (
	"net/http"
	"runtime"
	"time"
)

var startTime = time.Now()

// HandleHealth answers GET /healthz for load-balancer probes.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statsResponse struct {
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Goroutines     int    `json:"goroutines"`
	AllocMB        uint64 `json:"alloc_mb"`
	TotalAllocMB   uint64 `json:"total_alloc_mb"`
	SysMB          uint64 `json:"sys_mb"`
	NumGC          uint32 `json:"num_gc"`
	LastGCPauseMcs uint64 `json:"last_gc_pause_us"`
}

// HandleStats answers GET /admin/stats with the process runtime numbers.
// Prometheus has the real time series; this is the quick glance for a
// human poking the admin API.
func HandleStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeJSON(w, http.StatusOK, statsResponse{
		UptimeSeconds:  int64(time.Since(startTime).Seconds()),
		Goroutines:     runtime.NumGoroutine(),
		AllocMB:        bToMb(m.Alloc),
		TotalAllocMB:   bToMb(m.TotalAlloc),
		SysMB:          bToMb(m.Sys),
		NumGC:          m.NumGC,
		LastGCPauseMcs: m.PauseNs[(m.NumGC+255)%256] / 1000,
	})
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

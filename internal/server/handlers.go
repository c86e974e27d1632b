package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Scenarios     int     `json:"scenarios"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "healthy",
		Service:       "sentinel-risk",
		Version:       "1.0.0",
		UptimeSeconds: time.Since(s.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Scenarios:     len(s.engine.Scenarios()),
	}
	response.CPUPercent, response.MemoryPercent = s.systemStats()

	s.writeJSON(w, http.StatusOK, response)
}

// systemStats returns CPU and RAM usage percentages. Zero interval compares
// against the previous call and never blocks.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(0, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = nil
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

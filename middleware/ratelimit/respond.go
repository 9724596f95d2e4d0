package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func formatInt(v int) string { return strconv.Itoa(v) }

// formatFloat evita notação científica em valores comuns de RPS.
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

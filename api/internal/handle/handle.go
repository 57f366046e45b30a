package handle

import (
	"encoding/json"
	"net/http"

	"damage-eval/api/internal/detect"
)

const rootMessage = "Car Damage Evaluation API is running (Go GenAI SDK)"

type Handle struct {
	det          *detect.Detector
	defaultModel string
	maxUpload    int64 // байт
}

func New(det *detect.Detector, defaultModel string, maxUploadMB int64) *Handle {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &Handle{
		det:          det,
		defaultModel: defaultModel,
		maxUpload:    maxUploadMB << 20,
	}
}

// Register вешает маршруты на mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/models", h.Models)
	mux.HandleFunc("/detect", h.Detect)
}

func (h *Handle) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
}

func (h *Handle) Models(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": h.det.Catalog().Models()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

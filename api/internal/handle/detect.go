package handle

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"damage-eval/api/internal/detect"
)

// Detect: POST /detect, multipart: file + опционально model (form или query).
// 400 только на плохой вход; сбои провайдера всегда 200 с симуляцией.
func (h *Handle) Detect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"detail": "File too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Failed to parse form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "No file uploaded"})
		return
	}
	defer file.Close()

	model := strings.TrimSpace(r.FormValue("model"))
	if model == "" {
		model = h.defaultModel
	}

	img, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Failed to read file"})
		return
	}

	res, err := h.det.Detect(r.Context(), detect.Input{
		Image:       img,
		ContentType: header.Header.Get("Content-Type"),
		Model:       model,
		Channel:     "http",
	})
	switch {
	case errors.Is(err, detect.ErrNotImage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": detect.ErrNotImage.Error()})
		return
	case errors.Is(err, detect.ErrInvalidImage):
		log.Printf("detect: %s: %v", header.Filename, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": detect.ErrInvalidImage.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

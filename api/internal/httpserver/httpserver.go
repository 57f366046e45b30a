package httpserver

import (
	"log"
	"net/http"
	"time"
)

// New: сервер с CORS (все origin, как во фронте) и health-роутом.
func New(addr string, mux *http.ServeMux, healthzBody string) *http.Server {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(healthzBody))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           CORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// без WriteTimeout: /detect ждёт провайдера до DETECT_TIMEOUT
		IdleTimeout: 120 * time.Second,
	}
}

func Start(srv *http.Server) error {
	log.Printf("listening on %s", srv.Addr)
	return srv.ListenAndServe()
}

// CORS добавляет заголовки и отвечает на preflight.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		} else {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if h := r.Header.Get("Access-Control-Request-Headers"); h != "" {
			w.Header().Set("Access-Control-Allow-Headers", h)
		} else {
			w.Header().Set("Access-Control-Allow-Headers", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Package ops runs the operational listener: liveness and prometheus
// metrics, kept off the public API port.
package ops

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the ops router.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start runs the ops listener in the background.
func Start(port string) {
	go func() {
		addr := ":" + port
		log.Printf("[Ops] metrics and health listener on %s", addr)
		if err := http.ListenAndServe(addr, NewRouter()); err != nil {
			log.Printf("[Ops] listener failed: %v", err)
		}
	}()
}

package ops

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewStatusServer builds the ops-facing HTTP surface: /healthz, /switches,
// and /metrics, in the same router-construction style as the teacher's
// internal/interfaces/http server (gorilla/mux, one handler per concern).
func NewStatusServer(switches *SwitchManager, metrics *MetricsRegistry) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/switches", switchesHandler(switches)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func switchesHandler(switches *SwitchManager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status := switches.Status()
		w.Header().Set("Content-Type", "application/json")
		if status.AnyEmergencyActive {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}

package main

import (
	"encoding/json"
	"net/http"

	"github.com/angeloszaimis/online-balancer/internal/circuitbreaker"
	"github.com/angeloszaimis/online-balancer/internal/handler"
	"github.com/angeloszaimis/online-balancer/internal/metrics"
)

func setupRouter(proxyHandler *handler.ProxyHandler, metricsCollector *metrics.Collector, breakers *circuitbreaker.Registry, strategy string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", proxyHandler.ServeHTTP)
	mux.HandleFunc("/metrics", metricsCollector.Handler(strategy))
	mux.HandleFunc("/breakers", breakersHandler(breakers))

	return mux
}

func breakersHandler(breakers *circuitbreaker.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := make(map[string]string)
		for url, state := range breakers.Stats() {
			states[url] = state.String()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(states); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

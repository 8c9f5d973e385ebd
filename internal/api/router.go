package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordbohus/smarthouse-core/internal/observability/metrics"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", metrics.Handler())

		r.Route("/smarthouse", func(r chi.Router) {
			r.Get("/", s.handleGetSmartHouse)

			r.Route("/floor", func(r chi.Router) {
				r.Get("/", s.handleListFloors)
				r.Route("/{fid}", func(r chi.Router) {
					r.Get("/", s.handleGetFloor)
					r.Route("/room", func(r chi.Router) {
						r.Get("/", s.handleListFloorRooms)
						r.Get("/{rid}", s.handleGetRoom)
					})
				})
			})

			r.Route("/device", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Get("/{id}", s.handleGetDevice)
			})

			r.Route("/sensor/{id}", func(r chi.Router) {
				r.Get("/current", s.handleSensorCurrent)
				r.Post("/current", s.handleSensorInsert)
				r.Get("/values", s.handleSensorValues)
				r.Delete("/oldest", s.handleSensorDeleteOldest)
			})

			r.Route("/actuator/{id}", func(r chi.Router) {
				r.Get("/current", s.handleActuatorCurrent)
				r.Put("/", s.handleActuatorUpdate)
			})

			// Per-room statistics over stored measurements.
			r.Route("/room/{rid}", func(r chi.Router) {
				r.Get("/temperature/daily", s.handleRoomDailyTemperatures)
				r.Get("/humidity/hours", s.handleRoomHumidityHours)
			})
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

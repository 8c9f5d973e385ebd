package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nordbohus/smarthouse-core/internal/house"
	"github.com/nordbohus/smarthouse-core/internal/observability/metrics"
)

// insertMeasurementRequest is the POST body for new sensor readings.
// Timestamp is optional; absent or empty means "now". Unit defaults to
// the sensor's own unit.
type insertMeasurementRequest struct {
	Timestamp string   `json:"timestamp,omitempty"`
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit,omitempty"`
}

// handleSensorCurrent returns the newest reading for a sensor.
func (s *Server) handleSensorCurrent(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.sensorFromURL(w, r)
	if !ok {
		return
	}

	m, err := s.repo.GetLatestReading(r.Context(), dev.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleSensorInsert stores a new reading for a sensor and mirrors it
// to the optional fan-outs.
func (s *Server) handleSensorInsert(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.sensorFromURL(w, r)
	if !ok {
		return
	}

	var req insertMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	ts := time.Now()
	if req.Timestamp != "" {
		parsed, err := time.Parse(house.TimestampLayout, req.Timestamp)
		if err != nil {
			writeBadRequest(w, fmt.Sprintf("timestamp must use layout %q", house.TimestampLayout))
			return
		}
		ts = parsed
	}

	unit := req.Unit
	if unit == "" {
		unit, _ = dev.Unit() // sensorFromURL guarantees the capability
	}

	m := house.NewMeasurement(ts, *req.Value, unit)
	if err := s.repo.InsertMeasurement(r.Context(), dev.ID, m); err != nil {
		s.logger.Error("storing measurement failed", "device", dev.ID, "error", err)
		writeInternalError(w, "storing measurement failed")
		return
	}

	metrics.IncMeasurementInserted()
	if s.tsdb != nil {
		s.tsdb.WriteReading(dev.ID, m.Unit, m.Value, ts)
	}
	if s.hub != nil {
		s.hub.Broadcast(eventMeasurement, map[string]any{
			"device_id":   dev.ID,
			"measurement": m,
		})
	}

	writeJSON(w, http.StatusCreated, m)
}

// handleSensorValues returns readings for a sensor, newest first.
// The optional n query parameter caps the count.
func (s *Server) handleSensorValues(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.sensorFromURL(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "n must be a non-negative integer")
			return
		}
		limit = n
	}

	readings, err := s.repo.GetReadings(r.Context(), dev.ID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if readings == nil {
		readings = []house.Measurement{}
	}
	writeJSON(w, http.StatusOK, readings)
}

// handleSensorDeleteOldest removes the oldest reading for a sensor and
// returns it.
func (s *Server) handleSensorDeleteOldest(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.sensorFromURL(w, r)
	if !ok {
		return
	}

	m, err := s.repo.DeleteOldestReading(r.Context(), dev.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.IncMeasurementDeleted()
	writeJSON(w, http.StatusOK, m)
}

// sensorFromURL resolves {id} to a device with sensor capability,
// writing the error response itself when resolution fails. A device
// that exists but cannot produce measurements is a 400, not a 404.
func (s *Server) sensorFromURL(w http.ResponseWriter, r *http.Request) (*house.Device, bool) {
	dev, ok := s.deviceFromURL(w, r)
	if !ok {
		return nil, false
	}
	if !dev.IsSensor() {
		writeBadRequest(w, fmt.Sprintf("device %s is not a sensor", dev.ID))
		return nil, false
	}
	return dev, true
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nordbohus/smarthouse-core/internal/house"
	"github.com/nordbohus/smarthouse-core/internal/observability/metrics"
)

// Actuator state encoding on the wire: "off", "running" (on without a
// set-point), or a bare number (the set-point). This matches what the
// dashboards send and expect.
const (
	stateOff     = "off"
	stateRunning = "running"
)

// actuatorStateInfo carries the encoded state.
type actuatorStateInfo struct {
	State any `json:"state"`
}

// updateActuatorRequest is the PUT body; State is decoded leniently
// since it may be a string or a number.
type updateActuatorRequest struct {
	State json.RawMessage `json:"state"`
}

func encodeState(st house.State) actuatorStateInfo {
	switch {
	case !st.On:
		return actuatorStateInfo{State: stateOff}
	case st.Target != nil:
		return actuatorStateInfo{State: *st.Target}
	default:
		return actuatorStateInfo{State: stateRunning}
	}
}

// handleActuatorCurrent returns the current actuator state.
func (s *Server) handleActuatorCurrent(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.actuatorFromURL(w, r)
	if !ok {
		return
	}

	st, err := dev.ActuatorState()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeState(st))
}

// handleActuatorUpdate applies a new actuator state, persists it, and
// fans the transition out to MQTT, the time-series mirror and the
// WebSocket feed. Persistence failures surface to the caller; fan-out
// failures are logged only.
func (s *Server) handleActuatorUpdate(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.actuatorFromURL(w, r)
	if !ok {
		return
	}

	var req updateActuatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := applyStateChange(dev, req.State); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.repo.UpdateActuatorState(r.Context(), dev); err != nil {
		metrics.IncActuatorUpdate(metrics.ResultError)
		writeDomainError(w, err)
		return
	}
	metrics.IncActuatorUpdate(metrics.ResultSuccess)

	st, err := dev.ActuatorState()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.fanOutStateChange(dev.ID, st)

	writeJSON(w, http.StatusOK, encodeState(st))
}

// applyStateChange decodes the wire state and applies it to the device.
func applyStateChange(dev *house.Device, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("state is required")
	}

	var target float64
	if err := json.Unmarshal(raw, &target); err == nil {
		return dev.TurnOn(&target)
	}

	var verb string
	if err := json.Unmarshal(raw, &verb); err != nil {
		return fmt.Errorf("state must be %q, %q or a number", stateOff, stateRunning)
	}
	switch verb {
	case stateOff:
		return dev.TurnOff()
	case stateRunning:
		return dev.TurnOn(nil)
	default:
		return fmt.Errorf("state must be %q, %q or a number", stateOff, stateRunning)
	}
}

// fanOutStateChange mirrors an applied state transition to the
// best-effort outputs.
func (s *Server) fanOutStateChange(deviceID string, st house.State) {
	if s.mqtt != nil {
		if err := s.mqtt.PublishActuatorState(deviceID, st.Active(), st.Target); err != nil {
			s.logger.Warn("mqtt state publish failed", "device", deviceID, "error", err)
		}
	}
	if s.tsdb != nil {
		s.tsdb.WriteActuatorState(deviceID, st.Active(), st.Target)
	}
	if s.hub != nil {
		s.hub.Broadcast(eventActuatorState, map[string]any{
			"device_id": deviceID,
			"state":     encodeState(st).State,
		})
	}
}

// actuatorFromURL resolves {id} to a device with actuator capability,
// writing the error response itself when resolution fails.
func (s *Server) actuatorFromURL(w http.ResponseWriter, r *http.Request) (*house.Device, bool) {
	dev, ok := s.deviceFromURL(w, r)
	if !ok {
		return nil, false
	}
	if !dev.IsActuator() {
		writeBadRequest(w, fmt.Sprintf("device %s is not an actuator", dev.ID))
		return nil, false
	}
	return dev, true
}

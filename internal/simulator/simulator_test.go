package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nordbohus/smarthouse-core/internal/infrastructure/config"
	"github.com/nordbohus/smarthouse-core/internal/infrastructure/logging"
)

func sensorConfig(serverURL string) config.SimulatorConfig {
	return config.SimulatorConfig{
		ServerURL: serverURL,
		Interval:  1,
		Sensor: config.SimulatorSensorConfig{
			Enabled:  true,
			DeviceID: "t1",
			Unit:     "°C",
			Min:      15,
			Max:      30,
		},
	}
}

func TestNewRequiresRole(t *testing.T) {
	_, err := New(config.SimulatorConfig{Interval: 1}, logging.Default())
	if err == nil {
		t.Fatal("expected error when no role is enabled")
	}
}

func TestNewValidatesSensorRange(t *testing.T) {
	cfg := sensorConfig("http://localhost:8080")
	cfg.Sensor.Min = 30
	cfg.Sensor.Max = 15
	if _, err := New(cfg, logging.Default()); err == nil {
		t.Fatal("expected error for inverted sensor range")
	}
}

func TestNewRequiresDeviceID(t *testing.T) {
	cfg := sensorConfig("http://localhost:8080")
	cfg.Sensor.DeviceID = ""
	if _, err := New(cfg, logging.Default()); err == nil {
		t.Fatal("expected error for missing sensor device id")
	}
}

func TestPostReading(t *testing.T) {
	type reading struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	}
	var got reading
	var gotPath string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding posted reading: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	sim, err := New(sensorConfig(ts.URL), logging.Default())
	if err != nil {
		t.Fatalf("creating simulator: %v", err)
	}

	if err := sim.postReading(context.Background()); err != nil {
		t.Fatalf("posting reading: %v", err)
	}

	if gotPath != "/api/v1/smarthouse/sensor/t1/current" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if got.Unit != "°C" {
		t.Errorf("expected unit °C, got %q", got.Unit)
	}
	if got.Value < 15 || got.Value > 30 {
		t.Errorf("value %v outside configured range", got.Value)
	}
}

func TestPostReadingServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	sim, err := New(sensorConfig(ts.URL), logging.Default())
	if err != nil {
		t.Fatalf("creating simulator: %v", err)
	}

	if err := sim.postReading(context.Background()); err == nil {
		t.Fatal("expected error for non-201 response")
	}
}

func TestPollActuator(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"state": 21.5}) //nolint:errcheck
	}))
	defer ts.Close()

	sim, err := New(config.SimulatorConfig{
		ServerURL: ts.URL,
		Interval:  1,
		Actuator: config.SimulatorActuatorConfig{
			Enabled:  true,
			DeviceID: "hp1",
		},
	}, logging.Default())
	if err != nil {
		t.Fatalf("creating simulator: %v", err)
	}

	if err := sim.pollActuator(context.Background()); err != nil {
		t.Fatalf("polling actuator: %v", err)
	}
	if gotPath != "/api/v1/smarthouse/actuator/hp1/current" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestNextValueStaysInRange(t *testing.T) {
	sim, err := New(sensorConfig("http://localhost:8080"), logging.Default())
	if err != nil {
		t.Fatalf("creating simulator: %v", err)
	}

	for i := 0; i < 1000; i++ {
		v := sim.nextValue()
		if v < 15 || v > 30 {
			t.Fatalf("value %v escaped range on iteration %d", v, i)
		}
	}
}

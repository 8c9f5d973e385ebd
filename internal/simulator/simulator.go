// Package simulator emulates physical devices against the REST API.
//
// It can play two roles, separately or together: a sensor that posts a
// random-walk measurement every cycle, and an actuator that polls its
// own state so operators can watch a device react to dashboard input.
// It talks to the server over plain HTTP, exactly like real firmware
// would.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nordbohus/smarthouse-core/internal/infrastructure/config"
	"github.com/nordbohus/smarthouse-core/internal/infrastructure/logging"
)

const requestTimeout = 10 * time.Second

// stepFraction bounds one random-walk step to a fraction of the
// configured value range, so consecutive readings look like a drifting
// physical quantity rather than noise.
const stepFraction = 0.1

// Simulator runs the configured device roles until Close is called.
type Simulator struct {
	cfg    config.SimulatorConfig
	logger *logging.Logger
	client *http.Client
	rng    *rand.Rand

	baseURL string
	value   float64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a simulator. At least one role must be enabled.
func New(cfg config.SimulatorConfig, logger *logging.Logger) (*Simulator, error) {
	if !cfg.Sensor.Enabled && !cfg.Actuator.Enabled {
		return nil, fmt.Errorf("simulator: no role enabled")
	}
	if cfg.Sensor.Enabled && cfg.Sensor.DeviceID == "" {
		return nil, fmt.Errorf("simulator: sensor.device_id is required")
	}
	if cfg.Actuator.Enabled && cfg.Actuator.DeviceID == "" {
		return nil, fmt.Errorf("simulator: actuator.device_id is required")
	}
	if cfg.Sensor.Enabled && cfg.Sensor.Min >= cfg.Sensor.Max {
		return nil, fmt.Errorf("simulator: sensor.min must be below sensor.max")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Simulation values, not secrets

	s := &Simulator{
		cfg:     cfg,
		logger:  logger,
		client:  &http.Client{Timeout: requestTimeout},
		rng:     rng,
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
	}
	if cfg.Sensor.Enabled {
		// Start somewhere in the configured range.
		s.value = cfg.Sensor.Min + rng.Float64()*(cfg.Sensor.Max-cfg.Sensor.Min)
	}
	return s, nil
}

// Start launches one goroutine per enabled role. Stop them with Close.
func (s *Simulator) Start(ctx context.Context) error {
	var runCtx context.Context
	runCtx, s.cancel = context.WithCancel(ctx)

	interval := time.Duration(s.cfg.Interval) * time.Second

	if s.cfg.Sensor.Enabled {
		s.wg.Add(1)
		go s.runLoop(runCtx, interval, "sensor", s.postReading)
	}
	if s.cfg.Actuator.Enabled {
		s.wg.Add(1)
		go s.runLoop(runCtx, interval, "actuator", s.pollActuator)
	}
	return nil
}

// Close stops all role loops and waits for them to finish.
func (s *Simulator) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// runLoop runs one cycle immediately, then one per tick. Cycle errors
// are logged and the loop carries on; the server may simply not be up
// yet.
func (s *Simulator) runLoop(ctx context.Context, interval time.Duration, role string, cycle func(ctx context.Context) error) {
	defer s.wg.Done()

	s.logger.Info("simulator role starting", "role", role, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := cycle(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("simulator cycle failed", "role", role, "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("simulator role stopping", "role", role)
			return
		case <-ticker.C:
		}
	}
}

// nextValue advances the random walk, clamped to the configured range.
func (s *Simulator) nextValue() float64 {
	span := s.cfg.Sensor.Max - s.cfg.Sensor.Min
	step := (s.rng.Float64()*2 - 1) * span * stepFraction

	s.value += step
	if s.value < s.cfg.Sensor.Min {
		s.value = s.cfg.Sensor.Min
	}
	if s.value > s.cfg.Sensor.Max {
		s.value = s.cfg.Sensor.Max
	}
	return s.value
}

// postReading sends one measurement to the sensor endpoint.
func (s *Simulator) postReading(ctx context.Context) error {
	value := s.nextValue()

	body, err := json.Marshal(map[string]any{
		"value": value,
		"unit":  s.cfg.Sensor.Unit,
	})
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/smarthouse/sensor/%s/current", s.baseURL, s.cfg.Sensor.DeviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting reading: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("posting reading: unexpected status %d", resp.StatusCode)
	}

	s.logger.Debug("reading posted",
		"device", s.cfg.Sensor.DeviceID,
		"value", value,
		"unit", s.cfg.Sensor.Unit,
	)
	return nil
}

// pollActuator fetches the current actuator state and logs it. A real
// device would apply the state to its hardware here.
func (s *Simulator) pollActuator(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/smarthouse/actuator/%s/current", s.baseURL, s.cfg.Actuator.DeviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching actuator state: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching actuator state: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		State any `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding actuator state: %w", err)
	}

	s.logger.Info("actuator state",
		"device", s.cfg.Actuator.DeviceID,
		"state", payload.State,
	)
	return nil
}

// drainAndClose empties the body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body) //nolint:errcheck
	body.Close()
}

package house

import (
	"errors"
	"testing"
)

func TestTurnOnWithTarget(t *testing.T) {
	dev := NewActuator("a-1", "Thermo", "ACME", "Thermostat")

	target := 5.0
	if err := dev.TurnOn(&target); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}

	if !dev.IsActive() {
		t.Error("IsActive() = false after TurnOn")
	}
	state, err := dev.ActuatorState()
	if err != nil {
		t.Fatalf("ActuatorState() error = %v", err)
	}
	if state.Target == nil || *state.Target != 5.0 {
		t.Errorf("state target = %v, want 5.0", state.Target)
	}
}

func TestTurnOnNilTarget(t *testing.T) {
	dev := NewActuator("a-1", "Plug", "ACME", "Plug")

	if err := dev.TurnOn(nil); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}

	state, err := dev.ActuatorState()
	if err != nil {
		t.Fatalf("ActuatorState() error = %v", err)
	}
	if !state.On || state.Target != nil {
		t.Errorf("state = %+v, want plain on", state)
	}
}

// An explicit zero target means "just switch on", not a 0.0 set-point.
func TestTurnOnZeroTarget(t *testing.T) {
	dev := NewActuator("a-1", "Thermo", "ACME", "Thermostat")

	zero := 0.0
	if err := dev.TurnOn(&zero); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}

	state, err := dev.ActuatorState()
	if err != nil {
		t.Fatalf("ActuatorState() error = %v", err)
	}
	if !state.On {
		t.Error("state is off after TurnOn(0)")
	}
	if state.Target != nil {
		t.Errorf("state target = %v, want nil (plain on)", *state.Target)
	}
}

func TestTurnOff(t *testing.T) {
	dev := NewActuator("a-1", "Thermo", "ACME", "Thermostat")

	target := 21.5
	if err := dev.TurnOn(&target); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	if err := dev.TurnOff(); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}

	if dev.IsActive() {
		t.Error("IsActive() = true after TurnOff")
	}
	state, err := dev.ActuatorState()
	if err != nil {
		t.Fatalf("ActuatorState() error = %v", err)
	}
	if state.On || state.Target != nil {
		t.Errorf("state = %+v, want off with no target", state)
	}
}

func TestActuatorOpsOnSensor(t *testing.T) {
	dev := NewSensor("s-1", "SensorPro", "ACME", "Temperature Sensor", UnitTemperature)

	if err := dev.TurnOn(nil); !errors.Is(err, ErrNotActuator) {
		t.Errorf("TurnOn() error = %v, want ErrNotActuator", err)
	}
	if err := dev.TurnOff(); !errors.Is(err, ErrNotActuator) {
		t.Errorf("TurnOff() error = %v, want ErrNotActuator", err)
	}
	if _, err := dev.ActuatorState(); !errors.Is(err, ErrNotActuator) {
		t.Errorf("ActuatorState() error = %v, want ErrNotActuator", err)
	}
	if dev.IsActive() {
		t.Error("IsActive() = true for sensor-only device")
	}
}

func TestSensorOpsOnActuator(t *testing.T) {
	dev := NewActuator("a-1", "Plug", "ACME", "Plug")

	if _, err := dev.Unit(); !errors.Is(err, ErrNotSensor) {
		t.Errorf("Unit() error = %v, want ErrNotSensor", err)
	}
}

func TestActuatorWithSensorHasBothCapabilities(t *testing.T) {
	dev := NewActuatorWithSensor("hp-1", "HeatMaster", "ACME", "Heat Pump", UnitTemperature)

	if !dev.IsSensor() || !dev.IsActuator() {
		t.Fatal("expected both capabilities")
	}
	if dev.Category() != CategoryActuatorWithSensor {
		t.Errorf("Category() = %q, want %q", dev.Category(), CategoryActuatorWithSensor)
	}

	unit, err := dev.Unit()
	if err != nil {
		t.Fatalf("Unit() error = %v", err)
	}
	if unit != UnitTemperature {
		t.Errorf("Unit() = %q, want %q", unit, UnitTemperature)
	}

	target := 19.0
	if err := dev.TurnOn(&target); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	if !dev.IsActive() {
		t.Error("IsActive() = false after TurnOn")
	}
}

// The snapshot returned by ActuatorState must not alias internal state.
func TestActuatorStateSnapshotIsolation(t *testing.T) {
	dev := NewActuator("a-1", "Thermo", "ACME", "Thermostat")

	target := 21.0
	if err := dev.TurnOn(&target); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}

	state, err := dev.ActuatorState()
	if err != nil {
		t.Fatalf("ActuatorState() error = %v", err)
	}
	*state.Target = 99.0

	again, err := dev.ActuatorState()
	if err != nil {
		t.Fatalf("ActuatorState() error = %v", err)
	}
	if *again.Target != 21.0 {
		t.Errorf("internal target mutated through snapshot: %v", *again.Target)
	}
}

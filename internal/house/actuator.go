package house

import "fmt"

// State is a snapshot of an actuator's state. Exactly one of three
// shapes: off (On false), plain on (On true, Target nil), or on with a
// numeric set-point (On true, Target set).
type State struct {
	On     bool
	Target *float64
}

// Active reports whether the state is anything other than off.
func (s State) Active() bool {
	return s.On
}

// TurnOn switches the actuator on. A nil or exact-zero target yields a
// plain on state; any other target yields a set-point state. The zero
// behaviour is deliberate: callers sending 0 mean "just switch on", and
// a literal 0.0 set-point would otherwise be indistinguishable from it
// after a round-trip through the store.
func (d *Device) TurnOn(target *float64) error {
	if d.actuator == nil {
		return fmt.Errorf("%w: %s", ErrNotActuator, d.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.actuator.on = true
	if target == nil || *target == 0 {
		d.actuator.target = nil
	} else {
		t := *target
		d.actuator.target = &t
	}
	return nil
}

// TurnOff switches the actuator off, discarding any set-point.
func (d *Device) TurnOff() error {
	if d.actuator == nil {
		return fmt.Errorf("%w: %s", ErrNotActuator, d.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.actuator.on = false
	d.actuator.target = nil
	return nil
}

// IsActive reports whether the actuator is in any on state. Devices
// without actuator capability are never active.
func (d *Device) IsActive() bool {
	if d.actuator == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.actuator.on
}

// ActuatorState returns a snapshot of the current state.
func (d *Device) ActuatorState() (State, error) {
	if d.actuator == nil {
		return State{}, fmt.Errorf("%w: %s", ErrNotActuator, d.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s := State{On: d.actuator.on}
	if d.actuator.target != nil {
		t := *d.actuator.target
		s.Target = &t
	}
	return s, nil
}

// Package house models a smart house as a graph of floors, rooms and
// devices, and persists it in SQLite.
//
// The graph is loaded wholesale from the store at startup and then
// queried and mutated in memory; only measurements and actuator states
// flow back to the database during normal operation. The House facade
// guards the graph with a read-write lock, and each device guards its
// own actuator state, so the package is safe for concurrent use by the
// API server.
package house

import (
	"fmt"
	"sync"
	"time"
)

// Device categories as persisted in the devices.category column.
const (
	CategorySensor             = "sensor"
	CategoryActuator           = "actuator"
	CategoryActuatorWithSensor = "actuator_with_sensor"
)

// Measurement units recognised by the statistics queries.
const (
	UnitTemperature = "°C"
	UnitHumidity    = "%"
)

// TimestampLayout is the storage and wire format for measurement
// timestamps. Lexicographic order coincides with chronological order,
// which the measurement queries rely on.
const TimestampLayout = "2006-01-02 15:04:05"

// Measurement is a single sensor reading.
type Measurement struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

// NewMeasurement builds a Measurement stamped with the given time.
func NewMeasurement(ts time.Time, value float64, unit string) Measurement {
	return Measurement{
		Timestamp: ts.Format(TimestampLayout),
		Value:     value,
		Unit:      unit,
	}
}

// SensorCap marks a device as measurement-producing and records the
// unit its readings use.
type SensorCap struct {
	Unit string
}

// ActuatorCap carries mutable actuator state: off, on, or on with a
// numeric set-point. Guarded by the owning Device's mutex.
type ActuatorCap struct {
	on     bool
	target *float64
}

// Device is a smart device attached to a room. Capabilities are
// expressed as optional records rather than subtypes: a device holding
// both a SensorCap and an ActuatorCap is e.g. a heat pump that reports
// the temperature it maintains.
//
// The room back-reference is maintained by House.RegisterDevice; the
// device mutex guards it together with the actuator state.
type Device struct {
	ID        string
	ModelName string
	Supplier  string
	Kind      string

	sensor   *SensorCap
	actuator *ActuatorCap

	mu   sync.Mutex
	room *Room
}

// NewSensor creates a measurement-producing device.
func NewSensor(id, modelName, supplier, kind, unit string) *Device {
	return &Device{
		ID:        id,
		ModelName: modelName,
		Supplier:  supplier,
		Kind:      kind,
		sensor:    &SensorCap{Unit: unit},
	}
}

// NewActuator creates a state-holding device. Its state starts off.
func NewActuator(id, modelName, supplier, kind string) *Device {
	return &Device{
		ID:        id,
		ModelName: modelName,
		Supplier:  supplier,
		Kind:      kind,
		actuator:  &ActuatorCap{},
	}
}

// NewActuatorWithSensor creates a device with both capabilities.
func NewActuatorWithSensor(id, modelName, supplier, kind, unit string) *Device {
	return &Device{
		ID:        id,
		ModelName: modelName,
		Supplier:  supplier,
		Kind:      kind,
		sensor:    &SensorCap{Unit: unit},
		actuator:  &ActuatorCap{},
	}
}

// IsSensor reports whether the device produces measurements.
func (d *Device) IsSensor() bool {
	return d.sensor != nil
}

// IsActuator reports whether the device holds actuator state.
func (d *Device) IsActuator() bool {
	return d.actuator != nil
}

// Category returns the persisted category value for the device's
// capability combination.
func (d *Device) Category() string {
	switch {
	case d.sensor != nil && d.actuator != nil:
		return CategoryActuatorWithSensor
	case d.actuator != nil:
		return CategoryActuator
	default:
		return CategorySensor
	}
}

// Unit returns the unit the device's readings use.
func (d *Device) Unit() (string, error) {
	if d.sensor == nil {
		return "", fmt.Errorf("%w: %s", ErrNotSensor, d.ID)
	}
	return d.sensor.Unit, nil
}

// Room returns the room the device is currently registered in, or nil
// if it has not been registered yet.
func (d *Device) Room() *Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.room
}

func (d *Device) setRoom(r *Room) {
	d.mu.Lock()
	d.room = r
	d.mu.Unlock()
}

// Room is a room on a floor. Size is the floor area in square metres.
// DBID is set once the room has a row in the store; rooms built purely
// in memory have none, and the statistics queries reject them.
type Room struct {
	floor   *Floor
	Size    float64
	Name    string
	DBID    *int64
	devices []*Device
}

// Floor returns the floor the room belongs to. The back-reference is
// fixed at registration and never changes.
func (r *Room) Floor() *Floor {
	return r.floor
}

// Devices returns a snapshot of the devices registered in the room, in
// registration order.
func (r *Room) Devices() []*Device {
	h := r.floor.house
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*Device(nil), r.devices...)
}

// Floor is a level of the house. Level is 1-based.
type Floor struct {
	house *House
	Level int
	rooms []*Room
}

// Rooms returns a snapshot of the rooms on the floor, in registration
// order.
func (f *Floor) Rooms() []*Room {
	f.house.mu.RLock()
	defer f.house.mu.RUnlock()
	return append([]*Room(nil), f.rooms...)
}

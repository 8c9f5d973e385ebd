package house

import (
	"fmt"
	"sync"
)

// House is the aggregate root of the smart house graph. All graph
// traversal and mutation goes through it; a single read-write lock
// keeps registrations and lookups linearisable. Actuator state lives
// on the devices themselves and has its own locking, so flipping a
// light never blocks a house traversal.
type House struct {
	mu     sync.RWMutex
	floors []*Floor
}

// NewHouse creates an empty house.
func NewHouse() *House {
	return &House{}
}

// RegisterFloor adds a floor at the given level and returns it.
//
// Levels are not deduplicated: registering level 2 twice yields two
// independent Floor values that both report level 2. The store loader
// never does this, but direct callers can, and both floors remain
// addressable through Floors.
func (h *House) RegisterFloor(level int) *Floor {
	h.mu.Lock()
	defer h.mu.Unlock()

	f := &Floor{house: h, Level: level}
	h.floors = append(h.floors, f)
	return f
}

// RegisterRoom adds a room to the given floor and returns it. The room
// has no database id until the store assigns one.
func (h *House) RegisterRoom(f *Floor, size float64, name string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := &Room{floor: f, Size: size, Name: name}
	f.rooms = append(f.rooms, r)
	return r
}

// RegisterDevice places a device in a room. If the device is already
// registered elsewhere it is moved: removal from the old room and
// insertion into the new one happen under the same lock, so no reader
// ever observes the device in both rooms or in neither.
func (h *House) RegisterDevice(r *Room, d *Device) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old := d.Room(); old != nil {
		if !old.removeDevice(d) {
			return fmt.Errorf("%w: %s not present in its room", ErrDeviceNotFound, d.ID)
		}
	}
	r.devices = append(r.devices, d)
	d.setRoom(r)
	return nil
}

// removeDevice removes d from the room's device slice, preserving
// order. Caller holds the house lock.
func (r *Room) removeDevice(d *Device) bool {
	for i, dev := range r.devices {
		if dev == d {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return true
		}
	}
	return false
}

// Floors returns the floors in registration order.
func (h *House) Floors() []*Floor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*Floor(nil), h.floors...)
}

// Rooms returns every room in the house, floor by floor.
func (h *House) Rooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var rooms []*Room
	for _, f := range h.floors {
		rooms = append(rooms, f.rooms...)
	}
	return rooms
}

// Devices returns every device in the house, room by room.
func (h *House) Devices() []*Device {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var devices []*Device
	for _, f := range h.floors {
		for _, r := range f.rooms {
			devices = append(devices, r.devices...)
		}
	}
	return devices
}

// DeviceByID returns the first device with the given id.
func (h *House) DeviceByID(id string) (*Device, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, f := range h.floors {
		for _, r := range f.rooms {
			for _, d := range r.devices {
				if d.ID == id {
					return d, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

// FloorByLevel returns the first floor with the given level.
func (h *House) FloorByLevel(level int) (*Floor, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, f := range h.floors {
		if f.Level == level {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: level %d", ErrFloorNotFound, level)
}

// RoomByDBID returns the room with the given database id.
func (h *House) RoomByDBID(id int64) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, f := range h.floors {
		for _, r := range f.rooms {
			if r.DBID != nil && *r.DBID == id {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrRoomNotFound, id)
}

// Area returns the total floor area of the house in square metres.
func (h *House) Area() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var total float64
	for _, f := range h.floors {
		for _, r := range f.rooms {
			total += r.Size
		}
	}
	return total
}

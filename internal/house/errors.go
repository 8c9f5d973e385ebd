package house

import "errors"

// Domain errors. Callers should use errors.Is for comparison since
// errors may be wrapped with additional context.
var (
	// ErrDeviceNotFound indicates the requested device doesn't exist.
	ErrDeviceNotFound = errors.New("house: device not found")

	// ErrRoomNotFound indicates the requested room doesn't exist.
	ErrRoomNotFound = errors.New("house: room not found")

	// ErrFloorNotFound indicates the requested floor doesn't exist.
	ErrFloorNotFound = errors.New("house: floor not found")

	// ErrMeasurementNotFound indicates a device has no stored readings.
	ErrMeasurementNotFound = errors.New("house: measurement not found")

	// ErrNotSensor indicates a sensor operation was attempted on a
	// device without sensor capability.
	ErrNotSensor = errors.New("house: device is not a sensor")

	// ErrNotActuator indicates an actuator operation was attempted on a
	// device without actuator capability.
	ErrNotActuator = errors.New("house: device is not an actuator")

	// ErrRoomNotPersisted indicates a statistics query was run against
	// a room that has never been stored (no database id).
	ErrRoomNotPersisted = errors.New("house: room has no database id")

	// ErrInconsistentStore indicates the database contents violate the
	// schema's referential assumptions (e.g. a device pointing at a
	// room that was never loaded).
	ErrInconsistentStore = errors.New("house: inconsistent store")
)

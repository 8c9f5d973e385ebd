package house

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository defines persistence operations for the smart house.
type Repository interface {
	// LoadHouseDeep reconstructs the full house graph from the store:
	// floors, rooms, devices and their last known actuator states.
	LoadHouseDeep(ctx context.Context) (*House, error)

	// GetLatestReading returns the newest measurement for a device.
	// Returns ErrMeasurementNotFound if the device has none.
	GetLatestReading(ctx context.Context, deviceID string) (Measurement, error)

	// GetReadings returns measurements for a device, newest first.
	// A limit of zero or less returns all of them.
	GetReadings(ctx context.Context, deviceID string, limit int) ([]Measurement, error)

	// InsertMeasurement appends a measurement for a device. Duplicate
	// timestamps are allowed.
	InsertMeasurement(ctx context.Context, deviceID string, m Measurement) error

	// DeleteOldestReading removes and returns the oldest measurement
	// for a device. Returns ErrMeasurementNotFound if the device has
	// none.
	DeleteOldestReading(ctx context.Context, deviceID string) (Measurement, error)

	// UpdateActuatorState persists the device's current actuator state.
	// Returns ErrNotActuator for devices without actuator capability
	// and ErrDeviceNotFound if the device has no states row.
	UpdateActuatorState(ctx context.Context, d *Device) error

	// AvgTemperaturesInRoom returns the average temperature reading in
	// the room per calendar date, keyed "YYYY-MM-DD". The from and
	// until bounds ("YYYY-MM-DD", inclusive) may each be empty.
	AvgTemperaturesInRoom(ctx context.Context, room *Room, from, until string) (map[string]float64, error)

	// HoursWithHumidityAbove returns the hours (0-23) of the given date
	// ("YYYY-MM-DD") during which the room produced more than three
	// humidity readings above that date's room average.
	HoursWithHumidityAbove(ctx context.Context, room *Room, date string) ([]int, error)
}

// humiditySpikeThreshold is the number of above-average readings an
// hour must exceed to count as a humidity spike hour.
const humiditySpikeThreshold = 3

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Compile-time interface check.
var _ Repository = (*SQLiteRepository)(nil)

// LoadHouseDeep reconstructs the house graph from the store.
//
// Floors are materialised for every level from 1 up to the highest one
// referenced by a room, so a store whose rooms sit on levels 1 and 3
// still yields an (empty) level 2. An empty rooms table yields an empty
// house. Rows that reference missing floors or rooms fail the load with
// ErrInconsistentStore rather than producing a partial graph.
func (r *SQLiteRepository) LoadHouseDeep(ctx context.Context) (*House, error) {
	h := NewHouse()

	var maxFloor sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(floor) FROM rooms`).Scan(&maxFloor)
	if err != nil {
		return nil, fmt.Errorf("querying floor levels: %w", err)
	}
	if !maxFloor.Valid {
		return h, nil // no rooms stored yet
	}

	floors := make([]*Floor, maxFloor.Int64)
	for i := range floors {
		floors[i] = h.RegisterFloor(i + 1)
	}

	roomsByID, err := r.loadRooms(ctx, h, floors)
	if err != nil {
		return nil, err
	}

	devices, err := r.loadDevices(ctx, h, roomsByID)
	if err != nil {
		return nil, err
	}

	if err := r.loadActuatorStates(ctx, devices); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *SQLiteRepository) loadRooms(ctx context.Context, h *House, floors []*Floor) (map[int64]*Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, floor, area, name FROM rooms ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	roomsByID := make(map[int64]*Room)
	for rows.Next() {
		var (
			id    int64
			level int
			area  float64
			name  sql.NullString
		)
		if err := rows.Scan(&id, &level, &area, &name); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		if level < 1 || level > len(floors) {
			return nil, fmt.Errorf("%w: room %d references floor %d", ErrInconsistentStore, id, level)
		}

		room := h.RegisterRoom(floors[level-1], area, name.String)
		roomID := id
		room.DBID = &roomID
		roomsByID[id] = room
	}
	return roomsByID, rows.Err()
}

func (r *SQLiteRepository) loadDevices(ctx context.Context, h *House, roomsByID map[int64]*Room) ([]*Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room, kind, category, supplier, product FROM devices ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var (
			id, kind, category string
			supplier, product  string
			roomID             int64
		)
		if err := rows.Scan(&id, &roomID, &kind, &category, &supplier, &product); err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}

		room, ok := roomsByID[roomID]
		if !ok {
			return nil, fmt.Errorf("%w: device %s references room %d", ErrInconsistentStore, id, roomID)
		}

		dev, err := buildDevice(id, product, supplier, kind, category)
		if err != nil {
			return nil, err
		}
		if err := h.RegisterDevice(room, dev); err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}

// buildDevice constructs a device with the capabilities its persisted
// category implies. Stores written before the explicit
// actuator_with_sensor category marked dual-capability devices as plain
// actuators with the "Heat Pump" kind label; that encoding is still
// honoured on load.
func buildDevice(id, product, supplier, kind, category string) (*Device, error) {
	switch category {
	case CategorySensor:
		return NewSensor(id, product, supplier, kind, unitForKind(kind)), nil
	case CategoryActuatorWithSensor:
		return NewActuatorWithSensor(id, product, supplier, kind, unitForKind(kind)), nil
	case CategoryActuator:
		if kind == "Heat Pump" {
			return NewActuatorWithSensor(id, product, supplier, kind, UnitTemperature), nil
		}
		return NewActuator(id, product, supplier, kind), nil
	default:
		return nil, fmt.Errorf("%w: device %s has unknown category %q", ErrInconsistentStore, id, category)
	}
}

// unitForKind infers the reading unit from the device type label. The
// store does not record units per device, only per measurement.
func unitForKind(kind string) string {
	label := strings.ToLower(kind)
	switch {
	case strings.Contains(label, "humidity"):
		return UnitHumidity
	case strings.Contains(label, "temperature"), strings.Contains(label, "thermostat"), strings.Contains(label, "heat pump"):
		return UnitTemperature
	default:
		return ""
	}
}

// loadActuatorStates restores persisted actuator states. A missing
// states row or a NULL state both mean off; 1.0 means plain on; any
// other value is a set-point.
func (r *SQLiteRepository) loadActuatorStates(ctx context.Context, devices []*Device) error {
	for _, dev := range devices {
		if !dev.IsActuator() {
			continue
		}

		var state sql.NullFloat64
		err := r.db.QueryRowContext(ctx,
			`SELECT state FROM states WHERE device = ?`, dev.ID,
		).Scan(&state)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			continue // off
		case err != nil:
			return fmt.Errorf("querying state for device %s: %w", dev.ID, err)
		case !state.Valid:
			continue // off
		}

		if state.Float64 == 1.0 {
			if err := dev.TurnOn(nil); err != nil {
				return err
			}
			continue
		}
		target := state.Float64
		if err := dev.TurnOn(&target); err != nil {
			return err
		}
	}
	return nil
}

// GetLatestReading returns the newest measurement for a device.
func (r *SQLiteRepository) GetLatestReading(ctx context.Context, deviceID string) (Measurement, error) {
	var m Measurement
	err := r.db.QueryRowContext(ctx, `
		SELECT ts, value, unit FROM measurements
		WHERE device = ?
		ORDER BY datetime(ts) DESC
		LIMIT 1`, deviceID,
	).Scan(&m.Timestamp, &m.Value, &m.Unit)
	if errors.Is(err, sql.ErrNoRows) {
		return Measurement{}, fmt.Errorf("%w: device %s", ErrMeasurementNotFound, deviceID)
	}
	if err != nil {
		return Measurement{}, fmt.Errorf("querying latest reading: %w", err)
	}
	return m, nil
}

// GetReadings returns measurements for a device, newest first.
func (r *SQLiteRepository) GetReadings(ctx context.Context, deviceID string, limit int) ([]Measurement, error) {
	query := `
		SELECT ts, value, unit FROM measurements
		WHERE device = ?
		ORDER BY datetime(ts) DESC`
	args := []any{deviceID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var readings []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.Timestamp, &m.Value, &m.Unit); err != nil {
			return nil, fmt.Errorf("scanning reading row: %w", err)
		}
		readings = append(readings, m)
	}
	return readings, rows.Err()
}

// InsertMeasurement appends a measurement for a device.
func (r *SQLiteRepository) InsertMeasurement(ctx context.Context, deviceID string, m Measurement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO measurements (device, ts, value, unit) VALUES (?, ?, ?, ?)`,
		deviceID, m.Timestamp, m.Value, m.Unit,
	)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	return nil
}

// DeleteOldestReading removes and returns the oldest measurement for a
// device. Selection and deletion happen in one transaction keyed on the
// rowid, so a measurement inserted concurrently can never make the
// delete remove a different row than the one returned.
func (r *SQLiteRepository) DeleteOldestReading(ctx context.Context, deviceID string) (Measurement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Measurement{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var (
		rowid int64
		m     Measurement
	)
	err = tx.QueryRowContext(ctx, `
		SELECT rowid, ts, value, unit FROM measurements
		WHERE device = ?
		ORDER BY datetime(ts) ASC
		LIMIT 1`, deviceID,
	).Scan(&rowid, &m.Timestamp, &m.Value, &m.Unit)
	if errors.Is(err, sql.ErrNoRows) {
		return Measurement{}, fmt.Errorf("%w: device %s", ErrMeasurementNotFound, deviceID)
	}
	if err != nil {
		return Measurement{}, fmt.Errorf("querying oldest reading: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM measurements WHERE rowid = ?`, rowid,
	); err != nil {
		return Measurement{}, fmt.Errorf("deleting oldest reading: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Measurement{}, fmt.Errorf("committing delete: %w", err)
	}
	return m, nil
}

// UpdateActuatorState persists the device's current actuator state.
// Off is stored as NULL, plain on as 1.0, and a set-point as its value.
// An update that affects no rows means the device was never seeded in
// the states table and is reported as ErrDeviceNotFound rather than
// silently dropped.
func (r *SQLiteRepository) UpdateActuatorState(ctx context.Context, d *Device) error {
	state, err := d.ActuatorState()
	if err != nil {
		return err
	}

	var value sql.NullFloat64
	if state.On {
		value = sql.NullFloat64{Float64: 1.0, Valid: true}
		if state.Target != nil {
			value.Float64 = *state.Target
		}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE states SET state = ? WHERE device = ?`, value, d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating actuator state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking actuator state update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no states row for device %s", ErrDeviceNotFound, d.ID)
	}
	return nil
}

// AvgTemperaturesInRoom returns the average temperature per calendar
// date for readings taken in the room, optionally bounded by inclusive
// from/until dates.
func (r *SQLiteRepository) AvgTemperaturesInRoom(ctx context.Context, room *Room, from, until string) (map[string]float64, error) {
	if room.DBID == nil {
		return nil, ErrRoomNotPersisted
	}

	query := `
		SELECT STRFTIME('%Y-%m-%d', m.ts) AS day, AVG(m.value)
		FROM measurements m
		JOIN devices d ON d.id = m.device
		WHERE d.room = ? AND m.unit = ?`
	args := []any{*room.DBID, UnitTemperature}
	if from != "" {
		query += ` AND datetime(m.ts) >= datetime(?)`
		args = append(args, from+" 00:00:00")
	}
	if until != "" {
		query += ` AND datetime(m.ts) <= datetime(?)`
		args = append(args, until+" 23:59:59")
	}
	query += ` GROUP BY day`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying temperature averages: %w", err)
	}
	defer rows.Close()

	averages := make(map[string]float64)
	for rows.Next() {
		var (
			day string
			avg float64
		)
		if err := rows.Scan(&day, &avg); err != nil {
			return nil, fmt.Errorf("scanning temperature average: %w", err)
		}
		averages[day] = avg
	}
	return averages, rows.Err()
}

// HoursWithHumidityAbove returns the hours of the given date during
// which the room produced more than humiditySpikeThreshold readings
// strictly above that date's room-wide humidity average. The inner
// average is computed over the same room and date as the outer query.
func (r *SQLiteRepository) HoursWithHumidityAbove(ctx context.Context, room *Room, date string) ([]int, error) {
	if room.DBID == nil {
		return nil, ErrRoomNotPersisted
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(STRFTIME('%H', m.ts) AS INTEGER) AS hour, COUNT(*) AS readings
		FROM measurements m
		JOIN devices d ON d.id = m.device
		WHERE d.room = ?
		  AND m.unit = ?
		  AND DATE(m.ts) = DATE(?)
		  AND m.value > (
			SELECT AVG(m2.value)
			FROM measurements m2
			JOIN devices d2 ON d2.id = m2.device
			WHERE d2.room = ?
			  AND m2.unit = ?
			  AND DATE(m2.ts) = DATE(?)
		  )
		GROUP BY hour
		HAVING readings > ?
		ORDER BY hour`,
		*room.DBID, UnitHumidity, date,
		*room.DBID, UnitHumidity, date,
		humiditySpikeThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("querying humidity hours: %w", err)
	}
	defer rows.Close()

	var hours []int
	for rows.Next() {
		var (
			hour  int
			count int
		)
		if err := rows.Scan(&hour, &count); err != nil {
			return nil, fmt.Errorf("scanning humidity hour: %w", err)
		}
		hours = append(hours, hour)
	}
	return hours, rows.Err()
}

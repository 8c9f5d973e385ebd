package api

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nordbohus/smarthouse-core/internal/house"
)

// datePattern validates YYYY-MM-DD query parameters before they reach
// the statistics queries.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// handleRoomDailyTemperatures returns the per-date average temperature
// in a room, optionally bounded by from/until dates (inclusive).
func (s *Server) handleRoomDailyTemperatures(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomFromURL(w, r)
	if !ok {
		return
	}

	from := r.URL.Query().Get("from")
	until := r.URL.Query().Get("until")
	for _, d := range []string{from, until} {
		if d != "" && !datePattern.MatchString(d) {
			writeBadRequest(w, "from and until must use YYYY-MM-DD")
			return
		}
	}

	averages, err := s.repo.AvgTemperaturesInRoom(r.Context(), room, from, until)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, averages)
}

// handleRoomHumidityHours returns the hours of one date during which
// the room had more than three humidity readings above its daily
// average.
func (s *Server) handleRoomHumidityHours(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomFromURL(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if !datePattern.MatchString(date) {
		writeBadRequest(w, "date is required and must use YYYY-MM-DD")
		return
	}

	hours, err := s.repo.HoursWithHumidityAbove(r.Context(), room, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if hours == nil {
		hours = []int{}
	}
	writeJSON(w, http.StatusOK, hours)
}

// roomFromURL resolves the {rid} URL parameter to a room, writing the
// error response itself when resolution fails.
func (s *Server) roomFromURL(w http.ResponseWriter, r *http.Request) (*house.Room, bool) {
	rid, err := strconv.ParseInt(chi.URLParam(r, "rid"), 10, 64)
	if err != nil {
		writeBadRequest(w, "rid must be an integer")
		return nil, false
	}

	room, err := s.house.RoomByDBID(rid)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return room, true
}

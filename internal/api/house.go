package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nordbohus/smarthouse-core/internal/house"
)

// houseInfo summarises the whole house.
type houseInfo struct {
	NoRooms   int     `json:"no_rooms"`
	NoFloors  int     `json:"no_floors"`
	TotalArea float64 `json:"total_area"`
	NoDevices int     `json:"no_devices"`
}

// floorInfo describes one floor; Rooms lists the database ids of the
// rooms on it.
type floorInfo struct {
	FID   int     `json:"fid"`
	Rooms []int64 `json:"rooms"`
}

// roomInfo describes one room; Devices lists the ids of the devices
// registered in it. RID is null for rooms that were never persisted.
type roomInfo struct {
	RID      *int64   `json:"rid"`
	RoomSize float64  `json:"room_size"`
	RoomName string   `json:"room_name,omitempty"`
	Floor    int      `json:"floor"`
	Devices  []string `json:"devices"`
}

func buildFloorInfo(f *house.Floor) floorInfo {
	info := floorInfo{FID: f.Level, Rooms: []int64{}}
	for _, r := range f.Rooms() {
		if r.DBID != nil {
			info.Rooms = append(info.Rooms, *r.DBID)
		}
	}
	return info
}

func buildRoomInfo(r *house.Room) roomInfo {
	info := roomInfo{
		RID:      r.DBID,
		RoomSize: r.Size,
		RoomName: r.Name,
		Floor:    r.Floor().Level,
		Devices:  []string{},
	}
	for _, d := range r.Devices() {
		info.Devices = append(info.Devices, d.ID)
	}
	return info
}

// handleGetSmartHouse returns house-level counts and total area.
func (s *Server) handleGetSmartHouse(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, houseInfo{
		NoRooms:   len(s.house.Rooms()),
		NoFloors:  len(s.house.Floors()),
		TotalArea: s.house.Area(),
		NoDevices: len(s.house.Devices()),
	})
}

// handleListFloors returns all floors.
func (s *Server) handleListFloors(w http.ResponseWriter, _ *http.Request) {
	floors := s.house.Floors()
	infos := make([]floorInfo, 0, len(floors))
	for _, f := range floors {
		infos = append(infos, buildFloorInfo(f))
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetFloor returns one floor by level.
func (s *Server) handleGetFloor(w http.ResponseWriter, r *http.Request) {
	floor, ok := s.floorFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildFloorInfo(floor))
}

// handleListFloorRooms returns the rooms on a floor.
func (s *Server) handleListFloorRooms(w http.ResponseWriter, r *http.Request) {
	floor, ok := s.floorFromURL(w, r)
	if !ok {
		return
	}

	rooms := floor.Rooms()
	infos := make([]roomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, buildRoomInfo(room))
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetRoom returns one room, addressed by floor level and room
// database id. A room that exists but sits on a different floor is a
// 404: the addressed resource does not exist.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	floor, ok := s.floorFromURL(w, r)
	if !ok {
		return
	}

	rid, err := strconv.ParseInt(chi.URLParam(r, "rid"), 10, 64)
	if err != nil {
		writeBadRequest(w, "rid must be an integer")
		return
	}

	room, err := s.house.RoomByDBID(rid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if room.Floor() != floor {
		writeNotFound(w, "room is not on this floor")
		return
	}
	writeJSON(w, http.StatusOK, buildRoomInfo(room))
}

// floorFromURL resolves the {fid} URL parameter, writing the error
// response itself when resolution fails.
func (s *Server) floorFromURL(w http.ResponseWriter, r *http.Request) (*house.Floor, bool) {
	fid, err := strconv.Atoi(chi.URLParam(r, "fid"))
	if err != nil {
		writeBadRequest(w, "fid must be an integer")
		return nil, false
	}

	floor, err := s.house.FloorByLevel(fid)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return floor, true
}

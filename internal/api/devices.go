package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordbohus/smarthouse-core/internal/house"
)

// deviceInfo describes one device. Room is the database id of the
// owning room, null if the device was registered into an unpersisted
// room.
type deviceInfo struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	Supplier   string `json:"supplier"`
	DeviceType string `json:"device_type"`
	Category   string `json:"device_category"`
	Room       *int64 `json:"room"`
}

func buildDeviceInfo(d *house.Device) deviceInfo {
	info := deviceInfo{
		ID:         d.ID,
		Model:      d.ModelName,
		Supplier:   d.Supplier,
		DeviceType: d.Kind,
		Category:   d.Category(),
	}
	if room := d.Room(); room != nil {
		info.Room = room.DBID
	}
	return info
}

// handleListDevices returns all devices in the house.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.house.Devices()
	infos := make([]deviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, buildDeviceInfo(d))
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetDevice returns one device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.house.DeviceByID(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildDeviceInfo(dev))
}

// deviceFromURL resolves the {id} URL parameter, writing the error
// response itself when resolution fails.
func (s *Server) deviceFromURL(w http.ResponseWriter, r *http.Request) (*house.Device, bool) {
	dev, err := s.house.DeviceByID(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return dev, true
}

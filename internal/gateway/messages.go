package gateway

import (
	"time"

	"github.com/nerrad567/nexhome-core/internal/device"
)

// Command is one control instruction for a device: set Identifier to Value.
type Command struct {
	Identifier string `json:"identifier"`
	Value      string `json:"value"`
}

// Param names one identifier to read from the device at Address.
type Param struct {
	Identifier string `json:"identifier"`
	Address    string `json:"address"`
}

// Value is one identifier reading returned by a state query.
type Value struct {
	Identifier string `json:"identifier"`
	Address    string `json:"address"`
	Value      string `json:"value"`
}

// DiscoveredDevice is one entry of a list_devices reply.
type DiscoveredDevice struct {
	DeviceTypeID string `json:"device_type_id"`
	Address      string `json:"address"`
	Name         string `json:"name"`
}

// ToDevice converts the wire form to the device model.
func (d DiscoveredDevice) ToDevice(seen time.Time) device.Device {
	return device.Device{
		DeviceTypeID: d.DeviceTypeID,
		Address:      d.Address,
		Name:         d.Name,
		UpdatedAt:    seen,
	}
}

// actionListDevices is the request action for discovery.
const actionListDevices = "list_devices"

// commandMessage is published on nexhome/{serial}/command/{address}.
type commandMessage struct {
	ID         string    `json:"id"`
	Serial     string    `json:"serial"`
	Address    string    `json:"address"`
	Identifier string    `json:"identifier"`
	Value      string    `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// requestMessage is published on nexhome/{serial}/request/{id}.
// A state query carries Params; discovery carries Action.
type requestMessage struct {
	ID     string  `json:"id"`
	Action string  `json:"action,omitempty"`
	Params []Param `json:"params,omitempty"`
}

// responseMessage arrives on nexhome/{serial}/response/{id}.
type responseMessage struct {
	ID      string             `json:"id"`
	Values  []Value            `json:"values,omitempty"`
	Devices []DiscoveredDevice `json:"devices,omitempty"`
	Error   string             `json:"error,omitempty"`
}

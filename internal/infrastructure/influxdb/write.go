package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementDeviceState   = "device_state"
	MeasurementDeviceCommand = "device_command"
)

// WriteDeviceState records a refreshed device record.
//
// Each identifier becomes a field. Values that parse as numbers are stored
// as floats so speeds and power states can be graphed; others stay strings.
//
//	client.WriteDeviceState("0a12", "10", map[string]string{"PowerSwitch": "1", "WindSpeed": "3"})
func (c *Client) WriteDeviceState(address, deviceTypeID string, values map[string]string) {
	if !c.IsConnected() || len(values) == 0 {
		return
	}
	c.writeAPI.WritePoint(devicePoint(address, deviceTypeID, values, time.Now()))
}

// WriteCommand records a control command sent to a device.
//
// Parameters:
//   - address: Gateway device address
//   - identifier: Attribute written (e.g. "WindSpeed")
//   - value: Raw value sent to the gateway
func (c *Client) WriteCommand(address, identifier, value string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(commandPoint(address, identifier, value, time.Now()))
}

// WritePoint writes a custom point with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func devicePoint(address, deviceTypeID string, values map[string]string, ts time.Time) *write.Point {
	fields := make(map[string]interface{}, len(values))
	for identifier, raw := range values {
		fields[identifier] = fieldValue(raw)
	}

	return write.NewPoint(
		MeasurementDeviceState,
		map[string]string{
			"address":        address,
			"device_type_id": deviceTypeID,
		},
		fields,
		ts,
	)
}

func commandPoint(address, identifier, value string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementDeviceCommand,
		map[string]string{
			"address":    address,
			"identifier": identifier,
		},
		map[string]interface{}{
			"value": fieldValue(value),
		},
		ts,
	)
}

func fieldValue(raw string) interface{} {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// Package influxdb records Nexhome device telemetry in InfluxDB v2.
//
// Every coordinator refresh writes a device_state point tagged with the
// device address and type, and every control command writes a
// device_command point. Writes are non-blocking and batched per the
// influxdb section of config.yaml; asynchronous failures are delivered to
// the SetOnError callback.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceState("0a12", "10", rec.Values())
//
// InfluxDB is optional. Connect returns ErrDisabled when it is switched off
// and callers carry on with SQLite history alone.
package influxdb

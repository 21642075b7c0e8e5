// Package gateway is the control client for a Nexhome gateway.
//
// It speaks JSON over the gateway's MQTT broker:
//
//   - DeviceControl publishes a command to nexhome/{serial}/command/{address}
//   - Query and ListDevices publish a request to nexhome/{serial}/request/{id}
//     and wait for nexhome/{serial}/response/{id}
//
// Request ids are UUIDs. A response nobody is waiting for is dropped.
//
//	gw := gateway.New(mqttClient, cfg.Gateway, cfg.GetRequestTimeout())
//	if err := gw.Start(); err != nil {
//	    return err
//	}
//	defer gw.Stop()
//
//	err := gw.DeviceControl(ctx, gateway.Command{Identifier: "PowerSwitch", Value: "1"}, "0a12")
package gateway

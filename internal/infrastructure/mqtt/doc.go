// Package mqtt provides MQTT connectivity to the Nexhome gateway.
//
// The gateway exposes an MQTT broker; device commands, state queries and
// discovery all travel over topics scoped by the gateway serial number:
//
//	nexhome/{serial}/command/{address}
//	nexhome/{serial}/request/{request_id}
//	nexhome/{serial}/response/{request_id}
//	nexhome/{serial}/integration/status
//
// This package manages:
//   - Connection to the gateway broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) so the gateway sees the integration drop
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Gateway)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.Gateway.Serial)
//	client.Publish(topics.Command("0a12"), payload, 1, false)
package mqtt

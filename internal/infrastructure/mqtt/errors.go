package mqtt

import "errors"

// Sentinel errors returned by the gateway broker client. Operation failures
// wrap the underlying paho error.
var (
	ErrNotConnected      = errors.New("mqtt: not connected to gateway broker")
	ErrConnectionFailed  = errors.New("mqtt: gateway broker connection failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS means a QoS above 2 was requested.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	ErrInvalidTopic = errors.New("mqtt: empty topic")
)

package mqtt

import "fmt"

// TopicPrefix is the root of every Nexhome gateway topic.
const TopicPrefix = "nexhome"

// Topics builds topics for one gateway. The serial number scopes every topic
// so several gateways can share a broker.
//
//	topics := mqtt.NewTopics("NX0042A1")
//	topics.Command("0a12") // "nexhome/NX0042A1/command/0a12"
type Topics struct {
	Serial string
}

// NewTopics returns a topic builder for the gateway with the given serial.
func NewTopics(serial string) Topics {
	return Topics{Serial: serial}
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicPrefix, t.Serial)
}

// Command returns the topic for control commands to a device.
//
// Example: nexhome/NX0042A1/command/0a12
func (t Topics) Command(address string) string {
	return fmt.Sprintf("%s/command/%s", t.base(), address)
}

// Request returns the topic for a request to the gateway (state query, discovery).
//
// Example: nexhome/NX0042A1/request/6f1c...
func (t Topics) Request(requestID string) string {
	return fmt.Sprintf("%s/request/%s", t.base(), requestID)
}

// Response returns the topic the gateway answers a request on.
//
// Example: nexhome/NX0042A1/response/6f1c...
func (t Topics) Response(requestID string) string {
	return fmt.Sprintf("%s/response/%s", t.base(), requestID)
}

// AllResponses returns a pattern matching every response from the gateway.
//
// Pattern: nexhome/NX0042A1/response/+
func (t Topics) AllResponses() string {
	return fmt.Sprintf("%s/response/+", t.base())
}

// IntegrationStatus returns the retained online/offline topic of this integration.
//
// Example: nexhome/NX0042A1/integration/status
func (t Topics) IntegrationStatus() string {
	return fmt.Sprintf("%s/integration/status", t.base())
}

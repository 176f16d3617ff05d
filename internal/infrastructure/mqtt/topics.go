package mqtt

import (
	"strconv"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "energysensors"

// Topics builds the topic names used by the service. All topics live under
// a single configurable prefix:
//
//	<prefix>/telegram/<device>   raw telegrams published by sensors (inbound)
//	<prefix>/event/<device_id>   stored events as JSON (outbound)
//	<prefix>/clusters            clustering run summaries (outbound, retained)
//	<prefix>/system/status       service online/offline status (retained, LWT)
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// Telegram returns the topic a sensor publishes raw telegrams on.
//
// Example: energysensors/telegram/kitchen-meter
func (t Topics) Telegram(device string) string {
	return t.prefix() + "/telegram/" + device
}

// AllTelegrams returns the wildcard subscription for every sensor's telegrams.
//
// Example: energysensors/telegram/+
func (t Topics) AllTelegrams() string {
	return t.prefix() + "/telegram/+"
}

// Event returns the topic stored events are published on.
//
// Example: energysensors/event/42
func (t Topics) Event(deviceID int64) string {
	return t.prefix() + "/event/" + strconv.FormatInt(deviceID, 10)
}

// AllEvents returns the wildcard subscription for every stored event.
func (t Topics) AllEvents() string {
	return t.prefix() + "/event/+"
}

// Clusters returns the topic clustering run summaries are published on.
func (t Topics) Clusters() string {
	return t.prefix() + "/clusters"
}

// SystemStatus returns the retained status topic, also used for the LWT.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// DeviceFromTelegramTopic extracts the device segment from a telegram topic.
// It reports false when topic is not a telegram topic under this prefix.
func (t Topics) DeviceFromTelegramTopic(topic string) (string, bool) {
	device, ok := strings.CutPrefix(topic, t.prefix()+"/telegram/")
	if !ok || device == "" || strings.Contains(device, "/") {
		return "", false
	}
	return device, true
}

// Package realtime carries events from the services to connected
// websocket clients, with Redis pub/sub bridging server instances.
package realtime

import "encoding/json"

// Event types carried over the wire.
const (
	EventNotification = "notification"
	EventEngagement   = "engagement_update"
	EventComment      = "comment_added"
	EventDM           = "dm"
	EventTyping       = "typing"
	EventUserOnline   = "user_online"
	EventUserOffline  = "user_offline"
	EventTrending     = "trending_update"
)

// Event is the envelope every realtime message travels in.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Marshal encodes the event for the wire. Errors are impossible for the
// payload types the services send, but surfaced anyway.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Package transport carries playlist snapshots from the dock to a display.
//
// Two subscribers exist: BusClient listens on the dock's WebSocket bus and
// Poller fetches the published snapshot file on an interval. Both hand raw
// payloads to the caller so decoding stays with the display.
package transport

import (
	"context"
	"encoding/json"

	"obs-text-slides/internal/models"
)

// Delivery channel names
const (
	ViaBus  = "channel"
	ViaPoll = "json"
)

// Delivery is one snapshot, or one failure to obtain it.
type Delivery struct {
	Payload json.RawMessage
	Err     error
	Via     string
}

// Subscriber delivers snapshots until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(Delivery)) error
}

// Publisher pushes a full snapshot to every listener.
type Publisher interface {
	Publish(ctx context.Context, state models.PlaylistState) error
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Bus message kinds
const (
	MessageState        = "state"
	MessageRequestState = "request-state"
)

// Envelope is the message exchanged over the broadcast bus
type Envelope struct {
	Type    string          `json:"type"`
	Source  string          `json:"source"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewStateEnvelope wraps a full state snapshot for broadcast.
func NewStateEnvelope(source string, state PlaylistState) (Envelope, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal state: %w", err)
	}
	return Envelope{Type: MessageState, Source: source, Payload: payload}, nil
}

// Hotkey command verbs
const (
	HotkeyNext = "next"
	HotkeyPrev = "prev"
)

// HotkeyTarget is either a verb ("next", "prev") or an absolute slide index
type HotkeyTarget struct {
	Verb  string
	Index int
}

// IsJump reports whether the target is an absolute index.
func (t HotkeyTarget) IsJump() bool {
	return t.Verb == ""
}

// String renders the target the way it appears in a command file.
func (t HotkeyTarget) String() string {
	if t.IsJump() {
		return strconv.Itoa(t.Index)
	}
	return t.Verb
}

// MarshalJSON encodes verbs as strings and jumps as numbers.
func (t HotkeyTarget) MarshalJSON() ([]byte, error) {
	if t.IsJump() {
		return json.Marshal(t.Index)
	}
	return json.Marshal(t.Verb)
}

// UnmarshalJSON accepts "next", "prev" or an integer.
func (t *HotkeyTarget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var verb string
		if err := json.Unmarshal(data, &verb); err != nil {
			return err
		}
		if verb != HotkeyNext && verb != HotkeyPrev {
			return fmt.Errorf("unknown hotkey command %q", verb)
		}
		*t = HotkeyTarget{Verb: verb}
		return nil
	}
	var index float64
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("hotkey command must be next, prev or a number: %w", err)
	}
	if index != float64(int(index)) {
		return fmt.Errorf("hotkey jump target %v is not an integer", index)
	}
	*t = HotkeyTarget{Index: int(index)}
	return nil
}

// ParseHotkeyTarget parses a command given on the command line.
func ParseHotkeyTarget(value string) (HotkeyTarget, error) {
	switch value {
	case HotkeyNext, HotkeyPrev:
		return HotkeyTarget{Verb: value}, nil
	}
	index, err := strconv.Atoi(value)
	if err != nil {
		return HotkeyTarget{}, fmt.Errorf("hotkey command must be next, prev or a slide index: %q", value)
	}
	return HotkeyTarget{Index: index}, nil
}

// HotkeyCommand is one pending command supplied by the hotkey bridge
type HotkeyCommand struct {
	Seq     int64        `json:"seq"`
	Command HotkeyTarget `json:"command"`
}

package protocol

import (
	"encoding/json"
	"fmt"
)

// InboundKind identifies which of the recognized reply shapes a payload
// matched. The backend's replies are loosely structured, so a payload is
// classified against the shapes in a fixed priority order and the first
// match wins.
type InboundKind int

const (
	// KindWelcome is the greeting sent when a session opens.
	KindWelcome InboundKind = iota
	// KindError is a processing error reported by the backend.
	KindError
	// KindFileAck confirms that an uploaded file was received.
	KindFileAck
	// KindSuccess is a successful reply carrying a message body.
	KindSuccess
	// KindMessage is a bare message field with no status.
	KindMessage
	// KindOther is decoded JSON matching none of the known shapes.
	KindOther
	// KindRaw is a frame that was not valid JSON at all.
	KindRaw
)

// Inbound is the classified form of a payload delivered by the client.
type Inbound struct {
	Kind     InboundKind
	Text     string
	Filename string
	// Value is the original payload: the decoded JSON value, or the raw
	// string when decoding failed upstream.
	Value any
}

// Classify resolves a payload delivered by the messaging client into one of
// the recognized variants. Checks run in priority order: welcome, error,
// success (file or message), bare message, then a stringified fallback so
// nothing is ever dropped.
func Classify(payload any) Inbound {
	if s, ok := payload.(string); ok {
		return Inbound{Kind: KindRaw, Text: s, Value: payload}
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return Inbound{Kind: KindOther, Text: stringify(payload), Value: payload}
	}

	if str(obj["type"]) == "welcome" {
		return Inbound{Kind: KindWelcome, Text: str(obj["content"]), Value: payload}
	}

	switch str(obj["status"]) {
	case "error":
		return Inbound{Kind: KindError, Text: str(obj["message"]), Value: payload}
	case "success":
		if str(obj["type"]) == "file" {
			return Inbound{Kind: KindFileAck, Filename: str(obj["filename"]), Value: payload}
		}
		return Inbound{Kind: KindSuccess, Text: str(obj["message"]), Value: payload}
	}

	if _, present := obj["message"]; present {
		return Inbound{Kind: KindMessage, Text: str(obj["message"]), Value: payload}
	}

	return Inbound{Kind: KindOther, Text: stringify(payload), Value: payload}
}

// Display renders the payload as a single chat-bubble string.
func (in Inbound) Display() string {
	switch in.Kind {
	case KindError:
		return "Error: " + in.Text
	case KindFileAck:
		return fmt.Sprintf("File %q uploaded successfully.", in.Filename)
	default:
		return in.Text
	}
}

// IsError reports whether the payload should render error-styled.
func (in Inbound) IsError() bool {
	return in.Kind == KindError
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// stringify produces a stable textual form for payloads matching no known
// shape. json.Marshal sorts object keys, so the same payload always yields
// the same string.
func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Package protocol defines the wire contract between the lectern client and
// the teaching-assistant backend: the outbound message envelope, the shapes
// the backend is known to reply with, and the upload rules enforced before a
// file ever reaches the wire.
package protocol

import "encoding/base64"

// DefaultEndpoint is where the backend listens when nothing else is
// configured.
const DefaultEndpoint = "ws://localhost:8765"

// Envelope is the outbound wire unit. It is serialized as a single JSON text
// frame. The file fields are all null exactly when no file was attached to
// the send.
type Envelope struct {
	Text     string  `json:"text"`
	FileData *string `json:"fileData"`
	Filename *string `json:"filename"`
	FileType *string `json:"fileType"`
	FileSize *int64  `json:"fileSize"`
}

// Attachment is a file payload plus the metadata the backend expects,
// produced by the file picker and handed to the client unmodified.
type Attachment struct {
	Name string
	Type string
	Size int64
	Data []byte
}

// DataURL encodes the attachment body as a base64 data URL, which is how
// file bytes travel inside a JSON envelope.
func (a *Attachment) DataURL() string {
	return "data:" + a.Type + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// NewEnvelope builds the outbound envelope for a send. A nil attachment
// leaves every file field null.
func NewEnvelope(text string, att *Attachment) Envelope {
	env := Envelope{Text: text}
	if att != nil {
		data := att.DataURL()
		env.FileData = &data
		env.Filename = &att.Name
		env.FileType = &att.Type
		env.FileSize = &att.Size
	}
	return env
}

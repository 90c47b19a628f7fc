package singer

import "encoding/json"

// Message types in the Singer protocol.
const (
	TypeSchema          = "SCHEMA"
	TypeRecord          = "RECORD"
	TypeState           = "STATE"
	TypeActivateVersion = "ACTIVATE_VERSION"
)

// Message is the envelope of one line on a Singer stream. Only the fields
// relevant to the message's type are populated.
type Message struct {
	Type          string          `json:"type"`
	Stream        string          `json:"stream,omitempty"`
	Schema        json.RawMessage `json:"schema,omitempty"`
	KeyProperties []string        `json:"key_properties,omitempty"`
	Record        map[string]any  `json:"record,omitempty"`
	Value         json.RawMessage `json:"value,omitempty"`
	Version       *int64          `json:"version,omitempty"`
}

package chat

import (
	"bytes"
	"encoding/json"
)

type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
)

// Part is the subset of a message part the application inspects. Unknown fields
// stay in the raw bytes and are never rewritten.
type Part struct {
	Type      PartType `json:"type"`
	Text      string   `json:"text,omitempty"`
	URL       string   `json:"url,omitempty"`
	Filename  string   `json:"filename,omitempty"`
	MediaType string   `json:"mediaType,omitempty"`
}

// DecodeParts splits a parts column into its elements without re-encoding them.
// ok is false when the column is empty or not a JSON array.
func DecodeParts(raw []byte) (parts []json.RawMessage, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return nil, false
	}
	return parts, true
}

// EncodeParts joins elements back into an array, keeping each element's bytes.
func EncodeParts(parts []json.RawMessage) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(p)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// ParsePart reads one element. ok is false for non-objects and for objects
// without a usable type.
func ParsePart(raw json.RawMessage) (Part, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Part{}, false
	}
	var p Part
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Part{}, false
	}
	// Type is compared verbatim; " file " or "File" is not the file variant.
	if p.Type == "" {
		return Part{}, false
	}
	return p, true
}

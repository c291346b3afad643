package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NoteKind tags the note payload.
type NoteKind string

const (
	// NoteText is a free-text remark.
	NoteText NoteKind = "text"
	// NoteCount is a units-produced counter.
	NoteCount NoteKind = "count"
)

// Note is the typed replacement for a field that drifted across schema
// versions: it started as free text and was later repurposed as a
// numeric units-produced counter. The tag makes the two readings
// explicit instead of inferring meaning from the payload shape.
type Note struct {
	Kind  NoteKind
	Text  string
	Count int64
}

// TextNote creates a free-text note.
func TextNote(s string) *Note {
	return &Note{Kind: NoteText, Text: s}
}

// CountNote creates a units-produced note.
func CountNote(n int64) *Note {
	return &Note{Kind: NoteCount, Count: n}
}

// String renders the note for display.
func (n *Note) String() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case NoteCount:
		return strconv.FormatInt(n.Count, 10)
	default:
		return n.Text
	}
}

type noteJSON struct {
	Kind  NoteKind        `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the note as a tagged object:
// {"kind":"count","value":3} or {"kind":"text","value":"..."}.
func (n Note) MarshalJSON() ([]byte, error) {
	var value []byte
	var err error
	switch n.Kind {
	case NoteCount:
		value = strconv.AppendInt(nil, n.Count, 10)
	case NoteText:
		value, err = json.Marshal(n.Text)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown note kind %q", n.Kind)
	}
	return json.Marshal(noteJSON{Kind: n.Kind, Value: value})
}

// UnmarshalJSON decodes the tagged object. Bare JSON numbers decode as
// count notes and bare strings as text notes, matching records written
// before the field was typed.
func (n *Note) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("note cannot be null")
	}

	switch data[0] {
	case '{':
		var raw noteJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		switch raw.Kind {
		case NoteCount:
			var c int64
			if err := json.Unmarshal(raw.Value, &c); err != nil {
				return fmt.Errorf("decode count note: %w", err)
			}
			*n = Note{Kind: NoteCount, Count: c}
		case NoteText:
			var s string
			if err := json.Unmarshal(raw.Value, &s); err != nil {
				return fmt.Errorf("decode text note: %w", err)
			}
			*n = Note{Kind: NoteText, Text: s}
		default:
			return fmt.Errorf("unknown note kind %q", raw.Kind)
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Note{Kind: NoteText, Text: s}
		return nil
	default:
		var c int64
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode legacy note: %w", err)
		}
		*n = Note{Kind: NoteCount, Count: c}
		return nil
	}
}

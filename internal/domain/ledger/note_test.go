package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		note *Note
		want string
	}{
		{"count", CountNote(3), `{"kind":"count","value":3}`},
		{"text", TextNote("left-over fabric"), `{"kind":"text","value":"left-over fabric"}`},
		{"empty text", TextNote(""), `{"kind":"text","value":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.note)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestNoteUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Note
	}{
		{"tagged count", `{"kind":"count","value":5}`, Note{Kind: NoteCount, Count: 5}},
		{"tagged text", `{"kind":"text","value":"remark"}`, Note{Kind: NoteText, Text: "remark"}},
		{"legacy bare number", `7`, Note{Kind: NoteCount, Count: 7}},
		{"legacy bare string", `"old remark"`, Note{Kind: NoteText, Text: "old remark"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Note
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestNoteUnmarshalJSONInvalid(t *testing.T) {
	for _, input := range []string{`null`, `{"kind":"other","value":1}`, `{"kind":"count","value":"x"}`, `1.5`} {
		var n Note
		assert.Error(t, json.Unmarshal([]byte(input), &n), "input %s", input)
	}
}

func TestNoteString(t *testing.T) {
	assert.Equal(t, "3", CountNote(3).String())
	assert.Equal(t, "remark", TextNote("remark").String())

	var nilNote *Note
	assert.Equal(t, "", nilNote.String())
}

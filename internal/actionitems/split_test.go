package actionitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bullet glyphs",
			text: "• Call John\n• Send proposal\n• Book follow-up",
			want: []string{"Call John", "Send proposal", "Book follow-up"},
		},
		{
			name: "dash bullets",
			text: "- First task\n- Second task",
			want: []string{"First task", "Second task"},
		},
		{
			name: "asterisk bullets",
			text: "* One\n* Two",
			want: []string{"One", "Two"},
		},
		{
			name: "plain newlines",
			text: "Call John\nSend proposal",
			want: []string{"Call John", "Send proposal"},
		},
		{
			name: "single item whole text",
			text: "Just one thing to do",
			want: []string{"Just one thing to do"},
		},
		{
			name: "numbered prefixes stripped",
			text: "1. Call John\n2) Send proposal",
			want: []string{"Call John", "Send proposal"},
		},
		{
			name: "blank fragments dropped",
			text: "• Call John\n•\n• Send proposal\n\n",
			want: []string{"Call John", "Send proposal"},
		},
		{
			name: "empty text",
			text: "   ",
			want: nil,
		},
		{
			name: "first matching glyph wins over later glyphs",
			text: "• Call John\n• Send proposal\n- not split again",
			want: []string{"Call John", "Send proposal\n- not split again"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, SplitItems(tc.text))
		})
	}
}

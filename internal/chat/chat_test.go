package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare_TruncatesByRunes(t *testing.T) {
	long := strings.Repeat("☄", MaxTextRunes+25)
	user, text, err := Prepare("  stargazer ", long)
	require.NoError(t, err)

	assert.Equal(t, "stargazer", user)
	assert.Equal(t, MaxTextRunes, utf8.RuneCountInString(text))
	assert.True(t, utf8.ValidString(text))
}

func TestPrepare_KeepsShortText(t *testing.T) {
	_, text, err := Prepare("u", "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "  hello  ", text)
}

func TestPrepare_RejectsEmpty(t *testing.T) {
	for _, tc := range [][2]string{{"", "hi"}, {"  ", "hi"}, {"u", ""}, {"u", "   "}} {
		_, _, err := Prepare(tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidMessage)
	}
}

func TestReverse(t *testing.T) {
	a, b, c := Message{ID: uuid.New()}, Message{ID: uuid.New()}, Message{ID: uuid.New()}
	ms := []Message{a, b, c}
	reverse(ms)
	assert.Equal(t, []Message{c, b, a}, ms)
}

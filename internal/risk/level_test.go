package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_TotalOrder(t *testing.T) {
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1].Rank(), levels[i].Rank())
	}
	assert.True(t, High.AtLeast(Moderate))
	assert.True(t, High.AtLeast(High))
	assert.False(t, Moderate.AtLeast(High))
	assert.False(t, Level("BOGUS").Valid())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" critical ")
	require.NoError(t, err)
	assert.Equal(t, Critical, l)

	_, err = ParseLevel("severe")
	require.Error(t, err)
}

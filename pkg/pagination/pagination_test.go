package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 0, Size: DefaultSize}, Params{Page: -3}.Normalize())
	assert.Equal(t, Params{Page: 2, Size: MaxSize}, Params{Page: 2, Size: 5000}.Normalize())
	assert.Equal(t, 40, Params{Page: 2, Size: 20}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 0, Size: 10}, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)

	last := NewMeta(Params{Page: 2, Size: 10}, 25)
	assert.False(t, last.HasNext)

	empty := NewMeta(Params{}, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt("", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = ParseInt(" 3 ", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = ParseInt("abc", 0)
	assert.Error(t, err)
}

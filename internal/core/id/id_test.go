package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TimeOrdered(t *testing.T) {
	a := New()
	b := New()
	assert.Equal(t, 7, int(a.Version()))
	assert.Less(t, a.String(), b.String())
}

func TestParse(t *testing.T) {
	v := New()
	got, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Parse("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestShort(t *testing.T) {
	v := mustParse(t, "0190a3c4-0000-7000-8000-0123456789ab")
	assert.Equal(t, "0123456789ab", Short(v))
}

func mustParse(t *testing.T, s string) ID {
	t.Helper()
	v, err := Parse(s)
	require.NoError(t, err)
	return v
}

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string            `json:"name"`
	Coords map[uint32]uint16 `json:"coords"`
}

func TestEnvelope(t *testing.T) {
	in := sample{Name: "a", Coords: map[uint32]uint16{5: 300, 9: 50}}

	for _, c := range []Codec{JSON{}, GoJSON{}, nil} {
		data, err := Encode(c, in)
		require.NoError(t, err)

		var out sample
		require.NoError(t, Decode(data, &out))
		assert.Equal(t, in, out)
	}
}

func TestEnvelope_CrossCodec(t *testing.T) {
	// Bytes from one JSON codec decode with the other.
	payload := MustMarshal(JSON{}, sample{Name: "x"})
	var out sample
	require.NoError(t, GoJSON{}.Unmarshal(payload, &out))
	assert.Equal(t, "x", out.Name)
}

func TestDecode_Errors(t *testing.T) {
	var out sample
	assert.ErrorIs(t, Decode([]byte("no-header"), &out), ErrMalformed)
	assert.ErrorIs(t, Decode([]byte("\x00{}"), &out), ErrMalformed)
	assert.ErrorIs(t, Decode([]byte("xml\x00<a/>"), &out), ErrUnknownCodec)
	assert.Error(t, Decode([]byte("json\x00{"), &out))
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	assert.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	assert.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("gob")
	assert.False(t, ok)
}

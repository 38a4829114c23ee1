package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	cases := []Address{
		Zmq("tcp://127.0.0.1:6000"),
		Memory("n1:out"),
		EmptyAddress,
	}

	for _, a := range cases {
		parsed, err := ParseAddress(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
}

func TestParseAddressLegacyShorthand(t *testing.T) {
	a, err := ParseAddress("tcp://10.0.0.1:7000")
	require.NoError(t, err)
	assert.Equal(t, Zmq("tcp://10.0.0.1:7000"), a)
	assert.Equal(t, "zmq:tcp://10.0.0.1:7000", a.String())

	a, err = ParseAddress("ipc:///tmp/sock")
	require.NoError(t, err)
	assert.Equal(t, Zmq("ipc:///tmp/sock"), a)
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	_, err := ParseAddress("not-an-address")
	assert.Error(t, err)
}

func TestAddressTextMarshalRoundTrip(t *testing.T) {
	a := Zmq("tcp://127.0.0.1:6001")
	text, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "zmq:tcp://127.0.0.1:6001", string(text))

	var got Address
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, a, got)
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticationTokenSerialize(t *testing.T) {
	token := AuthenticationToken{BlockNumber: 1000, BlockValidation: 15}
	assert.Equal(t, "1000_15", token.Serialize())
}

func TestAuthenticationTokenWindow(t *testing.T) {
	token := AuthenticationToken{BlockNumber: 1000, BlockValidation: 10}

	// [997, 1013): three grace blocks on each side, upper bound exclusive.
	assert.False(t, token.ValidAt(996))
	assert.True(t, token.ValidAt(997))
	assert.True(t, token.ValidAt(1000))
	assert.True(t, token.ValidAt(1012))
	assert.False(t, token.ValidAt(1013))
}

func TestAuthenticationTokenWindowNearZero(t *testing.T) {
	// BlockNumber below the grace margin must not wrap around.
	token := AuthenticationToken{BlockNumber: 1, BlockValidation: 5}

	assert.True(t, token.ValidAt(0))
	assert.True(t, token.ValidAt(8))
	assert.False(t, token.ValidAt(9))
}

func TestAuthenticationTokenZeroValidation(t *testing.T) {
	token := AuthenticationToken{BlockNumber: 500, BlockValidation: 0}

	assert.True(t, token.ValidAt(497))
	assert.True(t, token.ValidAt(502))
	assert.False(t, token.ValidAt(503))
}

func TestStoreKeyshareDataSerialize(t *testing.T) {
	data := StoreKeyshareData{
		NFTID:     163,
		Keyshare:  []byte("1234567890abcdef"),
		AuthToken: AuthenticationToken{BlockNumber: 1000, BlockValidation: 10000},
	}
	assert.Equal(t, "163_1234567890abcdef_1000_10000", data.Serialize())
}

func TestRetrieveKeyshareDataSerialize(t *testing.T) {
	data := RetrieveKeyshareData{
		NFTID:     163,
		AuthToken: AuthenticationToken{BlockNumber: 1000, BlockValidation: 10},
	}
	assert.Equal(t, "163_1000_10", data.Serialize())
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignatureHex = "0x42bb4b16fb9d6f1a7c902edac7d511679827b262cb1d0e5e5fd5d3af6c3dc715ef4c5e1810056db80bfa866c207b786d79987242608ca6944e857772cb1b858b"

func TestParseSignature(t *testing.T) {
	sig, reason := ParseSignature(testSignatureHex)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, byte(0x42), sig[0])
	assert.Equal(t, byte(0x8b), sig[63])
}

func TestParseSignatureMissingPrefix(t *testing.T) {
	_, reason := ParseSignature(testSignatureHex[2:])
	assert.Equal(t, ReasonPrefix, reason)
}

func TestParseSignatureBadLength(t *testing.T) {
	// 63 bytes.
	_, reason := ParseSignature(testSignatureHex[:len(testSignatureHex)-2])
	assert.Equal(t, ReasonLength, reason)

	// Odd digit count.
	_, reason = ParseSignature(testSignatureHex[:len(testSignatureHex)-1])
	assert.Equal(t, ReasonLength, reason)

	// Not hex at all.
	_, reason = ParseSignature("0xzz")
	assert.Equal(t, ReasonLength, reason)
}

func TestPacketParseSignatureSlots(t *testing.T) {
	p := &StoreKeysharePacket{
		SignerSig: testSignatureHex,
		Signature: testSignatureHex,
	}

	_, reason := p.ParseSignature(SlotSigner)
	assert.Equal(t, ReasonNone, reason)

	_, reason = p.ParseSignature(SlotOwner)
	assert.Equal(t, ReasonNone, reason)

	_, reason = p.ParseSignature(SignatureSlot("nobody"))
	assert.Equal(t, ReasonType, reason)
}

func TestVerifySignature(t *testing.T) {
	kp := newTestKeypair(t)
	message := "163_1234567890abcdef_1000_10000"

	sig, reason := ParseSignature(kp.sign(t, message))
	require.Equal(t, ReasonNone, reason)

	assert.True(t, VerifySignature(kp.account, sig, []byte(message)))
	assert.False(t, VerifySignature(kp.account, sig, []byte(message+"x")))

	other := newTestKeypair(t)
	assert.False(t, VerifySignature(other.account, sig, []byte(message)))
}

func TestVerifySignatureGarbage(t *testing.T) {
	kp := newTestKeypair(t)

	var sig [SignatureLength]byte
	assert.False(t, VerifySignature(kp.account, sig, []byte("message")))
}

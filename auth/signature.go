package auth

import (
	"errors"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// SignatureLength is the raw size of an sr25519 signature.
const SignatureLength = 64

// signingContext is the domain separation label wallets use when signing
// with chain account keys.
var signingContext = []byte("substrate")

// ParseSignature decodes a signature string. The literal "0x" prefix is
// mandatory and the payload must be exactly 128 hex characters. A non-None
// reason is returned on failure.
func ParseSignature(sig string) ([SignatureLength]byte, SignatureReason) {
	var out [SignatureLength]byte

	raw, err := hexutil.Decode(sig)
	if err != nil {
		if errors.Is(err, hexutil.ErrMissingPrefix) {
			return out, ReasonPrefix
		}
		return out, ReasonLength
	}

	if len(raw) != SignatureLength {
		return out, ReasonLength
	}

	copy(out[:], raw)
	return out, ReasonNone
}

// ParseSignature extracts the signature held in the named slot of the
// packet. Unrecognized slot names fail with ReasonType.
func (p *StoreKeysharePacket) ParseSignature(slot SignatureSlot) ([SignatureLength]byte, SignatureReason) {
	var raw string
	switch slot {
	case SlotOwner:
		raw = p.Signature
	case SlotSigner:
		raw = p.SignerSig
	default:
		return [SignatureLength]byte{}, ReasonType
	}
	return ParseSignature(raw)
}

// ParseSignature decodes the packet's signature field.
func (p *RetrieveKeysharePacket) ParseSignature() ([SignatureLength]byte, SignatureReason) {
	return ParseSignature(p.Signature)
}

// VerifySignature checks a detached sr25519 signature over message against
// the account's public key. Malformed input yields false, never a panic.
func VerifySignature(account interfaces.Account, sig [SignatureLength]byte, message []byte) bool {
	pub := new(schnorrkel.PublicKey)
	if err := pub.Decode([32]byte(account)); err != nil {
		return false
	}

	signature := new(schnorrkel.Signature)
	if err := signature.Decode(sig); err != nil {
		return false
	}

	transcript := schnorrkel.NewSigningContext(signingContext, message)
	ok, err := pub.Verify(signature, transcript)
	return err == nil && ok
}

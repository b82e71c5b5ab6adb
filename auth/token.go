package auth

import (
	"fmt"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// blockVariation absorbs the finalization lag between the block a client
// observed when it built its token and the finalized height the enclave
// sees.
const blockVariation = 3

// AuthenticationToken is a time-window claim attached to per-secret
// operations: "valid from near BlockNumber for BlockValidation further
// blocks". Immutable and value-equal.
type AuthenticationToken struct {
	BlockNumber     uint32
	BlockValidation uint32
}

// Serialize renders the token the way it appears inside signed data fields.
func (t AuthenticationToken) Serialize() string {
	return fmt.Sprintf("%d_%d", t.BlockNumber, t.BlockValidation)
}

// ValidAt reports whether the token covers the given finalized block height.
// The window is [BlockNumber-3, BlockNumber+BlockValidation+3); the grace
// blocks on both sides absorb finalization lag.
func (t AuthenticationToken) ValidAt(current uint32) bool {
	lo := int64(t.BlockNumber) - blockVariation
	hi := int64(t.BlockNumber) + int64(t.BlockValidation) + blockVariation
	c := int64(current)
	return c >= lo && c < hi
}

// Signer is a delegation: the account the owner authorized to sign a store
// request's data, plus the window during which that grant is fresh.
type Signer struct {
	Account   interfaces.Account
	AuthToken AuthenticationToken
}

// StoreKeyshareData is the validated intent to store a key-share.
type StoreKeyshareData struct {
	NFTID     uint32
	Keyshare  []byte
	AuthToken AuthenticationToken
}

// Serialize renders the data field as it must be signed. Keyshare content
// must not contain the '_' delimiter; there is no escaping.
func (d StoreKeyshareData) Serialize() string {
	return fmt.Sprintf("%d_%s_%s", d.NFTID, d.Keyshare, d.AuthToken.Serialize())
}

// RetrieveKeyshareData is the validated intent to retrieve a key-share.
type RetrieveKeyshareData struct {
	NFTID     uint32
	AuthToken AuthenticationToken
}

// Serialize renders the data field as it must be signed.
func (d RetrieveKeyshareData) Serialize() string {
	return fmt.Sprintf("%d_%s", d.NFTID, d.AuthToken.Serialize())
}

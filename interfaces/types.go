// Package interfaces defines the core types and collaborator interfaces of
// the enclave key-share service. It provides the contract between the
// verification core, the chain client and the transport without
// implementation details.
package interfaces

import (
	"errors"
	"fmt"

	subkey "github.com/vedhavyas/go-subkey/v2"
)

// SS58Prefix is the address format used for accounts on the wire. The chain
// uses the generic Substrate prefix.
const SS58Prefix uint16 = 42

// Account is an sr25519 public key identifying a chain account.
type Account [32]byte

// NewAccountFromBytes creates an account from a raw 32-byte public key.
func NewAccountFromBytes(pub []byte) (Account, error) {
	if len(pub) != 32 {
		return Account{}, errors.New("invalid public key length: must be 32 bytes")
	}

	var res Account
	copy(res[:], pub)
	return res, nil
}

// NewAccountFromSS58 decodes an SS58-encoded address into an account.
func NewAccountFromSS58(addr string) (Account, error) {
	_, pub, err := subkey.SS58Decode(addr)
	if err != nil {
		return Account{}, fmt.Errorf("invalid ss58 address: %w", err)
	}
	return NewAccountFromBytes(pub)
}

// String returns the SS58 representation of the account.
func (a Account) String() string {
	return subkey.SS58Encode(a[:], SS58Prefix)
}

// Bytes returns the raw 32-byte public key.
func (a Account) Bytes() []byte {
	return a[:]
}

// Equal compares two accounts for equality.
func (a Account) Equal(other Account) bool {
	return a == other
}

// NFTState holds the on-chain status flags of an NFT record.
type NFTState struct {
	IsCapsule        bool
	ListedForSale    bool
	IsSecret         bool
	IsDelegated      bool
	IsSoulbound      bool
	IsSyncingCapsule bool
	IsSyncingSecret  bool
	IsTransmission   bool
	IsRented         bool
}

// NFTData is the on-chain record of an NFT as far as the enclave needs it.
type NFTData struct {
	Owner   Account
	Creator Account
	State   NFTState
}

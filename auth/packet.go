package auth

import (
	"strconv"
	"strings"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// Delimiter separates the fields of a signed data string. Field content must
// not contain it; there is no escaping.
const Delimiter = "_"

// Some signing UIs wrap the message in a marker pair before signing. The
// wrapped string is what gets signed, so the raw field is verified as-is and
// only the parsed view is unwrapped.
const (
	wrapPrefix = "<Bytes>"
	wrapSuffix = "</Bytes>"
)

// stripWrapper removes exactly one matching marker pair. A string carrying
// only one of the two markers is malformed, not passed through.
func stripWrapper(s string) (string, bool) {
	hasPrefix := strings.HasPrefix(s, wrapPrefix)
	hasSuffix := strings.HasSuffix(s, wrapSuffix)

	if hasPrefix != hasSuffix {
		return "", false
	}
	if !hasPrefix {
		return s, true
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, wrapPrefix), wrapSuffix), true
}

func parseU32(s string) (uint32, bool) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// SignatureSlot names a signature field of a store packet.
type SignatureSlot string

const (
	// SlotOwner is the packet's data signature field. The name is kept from
	// the wire format; the slot is signed by the delegated signer, not the
	// owner.
	SlotOwner SignatureSlot = "owner"

	// SlotSigner is the owner's signature over the signer grant.
	SlotSigner SignatureSlot = "signer"
)

// StoreKeysharePacket is the raw wire form of a store request. The signer
// field and its signature form the owner->signer delegation; the data field
// and its signature form the signer->data tier.
type StoreKeysharePacket struct {
	OwnerAddress string `json:"owner_address"`

	// Signed by the owner.
	SignerAddress string `json:"signer_address"`
	SignerSig     string `json:"signersig"`

	// Signed by the delegated signer.
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

// Owner parses the packet's owner address.
func (p *StoreKeysharePacket) Owner() (interfaces.Account, error) {
	account, err := interfaces.NewAccountFromSS58(p.OwnerAddress)
	if err != nil {
		return interfaces.Account{}, newError(CodeInvalidOwnerAddress)
	}
	return account, nil
}

// Signer parses the signer field into the delegated signer and its validity
// window. The field must split into at least 3 parts:
// account, block_number, block_validation.
func (p *StoreKeysharePacket) Signer() (*Signer, error) {
	signer, ok := stripWrapper(p.SignerAddress)
	if !ok {
		return nil, newError(CodeMalformedSigner)
	}

	if !strings.Contains(signer, Delimiter) {
		return nil, newError(CodeMalformedSigner)
	}

	parts := strings.Split(signer, Delimiter)
	if len(parts) < 3 {
		return nil, newError(CodeMalformedSigner)
	}

	account, err := interfaces.NewAccountFromSS58(parts[0])
	if err != nil {
		return nil, newError(CodeInvalidSignerAddress)
	}

	blockNumber, ok := parseU32(parts[1])
	if !ok {
		return nil, newError(CodeInvalidAuthToken)
	}

	blockValidation, ok := parseU32(parts[2])
	if !ok {
		return nil, newError(CodeInvalidAuthToken)
	}

	return &Signer{
		Account: account,
		AuthToken: AuthenticationToken{
			BlockNumber:     blockNumber,
			BlockValidation: blockValidation,
		},
	}, nil
}

// StoreData parses the data field into the store intent. The field must
// split into exactly 4 parts: nft_id, keyshare, block_number,
// block_validation.
func (p *StoreKeysharePacket) StoreData() (*StoreKeyshareData, error) {
	data, ok := stripWrapper(p.Data)
	if !ok {
		return nil, newError(CodeMalformedData)
	}

	if !strings.Contains(data, Delimiter) {
		return nil, newError(CodeMalformedData)
	}

	parts := strings.Split(data, Delimiter)
	if len(parts) != 4 {
		return nil, newError(CodeMalformedData)
	}

	nftID, ok := parseU32(parts[0])
	if !ok {
		return nil, newError(CodeInvalidNFTID)
	}

	if parts[1] == "" {
		return nil, newError(CodeInvalidKeyshare)
	}
	keyshare := []byte(parts[1])

	blockNumber, ok := parseU32(parts[2])
	if !ok {
		return nil, newError(CodeInvalidAuthToken)
	}

	blockValidation, ok := parseU32(parts[3])
	if !ok {
		return nil, newError(CodeInvalidAuthToken)
	}

	return &StoreKeyshareData{
		NFTID:    nftID,
		Keyshare: keyshare,
		AuthToken: AuthenticationToken{
			BlockNumber:     blockNumber,
			BlockValidation: blockValidation,
		},
	}, nil
}

// RemoveKeysharePacket asks to drop the key-share of an NFT that no longer
// exists on chain. Anybody may ask; the burn check is what authorizes it.
type RemoveKeysharePacket struct {
	RequesterAddress string `json:"requester_address"`
	NFTID            uint32 `json:"nft_id"`
}

// RequesterType is the relationship a retrieve request claims to the asset.
type RequesterType string

const (
	RequesterOwner     RequesterType = "OWNER"
	RequesterDelegatee RequesterType = "DELEGATEE"
	RequesterRentee    RequesterType = "RENTEE"

	// RequesterNone is authorized exactly like RequesterOwner. Kept for wire
	// compatibility; see the design notes.
	RequesterNone RequesterType = "NONE"
)

// RetrieveKeysharePacket is the raw wire form of a retrieve request.
type RetrieveKeysharePacket struct {
	RequesterAddress string        `json:"requester_address"`
	RequesterType    RequesterType `json:"requester_type"`
	Data             string        `json:"data"`
	Signature        string        `json:"signature"`
}

// Requester parses the packet's requester address.
func (p *RetrieveKeysharePacket) Requester() (interfaces.Account, error) {
	account, err := interfaces.NewAccountFromSS58(p.RequesterAddress)
	if err != nil {
		return interfaces.Account{}, newError(CodeInvalidOwnerAddress)
	}
	return account, nil
}

// RetrieveData parses the data field into the retrieve intent. The field
// must split into exactly 3 parts: nft_id, block_number, block_validation.
func (p *RetrieveKeysharePacket) RetrieveData() (*RetrieveKeyshareData, error) {
	data, ok := stripWrapper(p.Data)
	if !ok {
		return nil, newError(CodeMalformedData)
	}

	if !strings.Contains(data, Delimiter) {
		return nil, newError(CodeMalformedData)
	}

	parts := strings.Split(data, Delimiter)
	if len(parts) != 3 {
		return nil, newError(CodeMalformedData)
	}

	nftID, ok := parseU32(parts[0])
	if !ok {
		return nil, newError(CodeInvalidNFTID)
	}

	blockNumber, ok := parseU32(parts[1])
	if !ok {
		return nil, newError(CodeInvalidAuthToken)
	}

	blockValidation, ok := parseU32(parts[2])
	if !ok {
		return nil, newError(CodeInvalidAuthToken)
	}

	return &RetrieveKeyshareData{
		NFTID: nftID,
		AuthToken: AuthenticationToken{
			BlockNumber:     blockNumber,
			BlockValidation: blockValidation,
		},
	}, nil
}

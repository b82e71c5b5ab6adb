package auth

import (
	"errors"
	"fmt"
)

// SignatureReason narrows down why a signature string could not be parsed.
type SignatureReason int

const (
	// ReasonNone marks errors that carry no signature parsing detail.
	ReasonNone SignatureReason = iota

	// ReasonPrefix: the mandatory "0x" prefix is missing.
	ReasonPrefix

	// ReasonLength: the hex payload does not decode to exactly 64 bytes.
	ReasonLength

	// ReasonType: the requested signature slot name is not recognized.
	ReasonType
)

func (r SignatureReason) String() string {
	switch r {
	case ReasonPrefix:
		return "PREFIXERROR"
	case ReasonLength:
		return "LENGTHERROR"
	case ReasonType:
		return "TYPEERROR"
	default:
		return "NONE"
	}
}

// Code identifies one variant of the closed verification error set.
type Code int

const (
	CodeInvalidSignerSig Code = iota
	CodeInvalidDataSig

	CodeSignerVerificationFailed
	CodeDataVerificationFailed

	CodeOwnershipVerificationFailed
	CodeRequesterVerificationFailed

	CodeMalformedData
	CodeMalformedSigner
	CodeInvalidOwnerAddress
	CodeInvalidSignerAddress

	CodeInvalidAuthToken
	CodeInvalidKeyshare
	CodeInvalidNFTID

	CodeExpiredSigner
	CodeExpiredData

	CodeIDIsNotSecretNFT
	CodeIDIsNotCapsule
)

// VerificationError is the terminal outcome of a failed verification step.
// The two signature-format variants carry an embedded reason code.
type VerificationError struct {
	Code   Code
	Reason SignatureReason
}

func (e *VerificationError) Error() string {
	switch e.Code {
	case CodeInvalidSignerSig:
		return fmt.Sprintf("invalid signer signature format: %s", e.Reason)
	case CodeInvalidDataSig:
		return fmt.Sprintf("invalid data signature format: %s", e.Reason)
	case CodeSignerVerificationFailed:
		return "signer signature verification failed"
	case CodeDataVerificationFailed:
		return "data signature verification failed"
	case CodeOwnershipVerificationFailed:
		return "ownership verification failed"
	case CodeRequesterVerificationFailed:
		return "requester verification failed"
	case CodeMalformedData:
		return "malformed data field"
	case CodeMalformedSigner:
		return "malformed signer field"
	case CodeInvalidOwnerAddress:
		return "invalid owner address"
	case CodeInvalidSignerAddress:
		return "invalid signer address"
	case CodeInvalidAuthToken:
		return "invalid authentication token"
	case CodeInvalidKeyshare:
		return "invalid keyshare"
	case CodeInvalidNFTID:
		return "invalid nft id"
	case CodeExpiredSigner:
		return "expired signer"
	case CodeExpiredData:
		return "expired data"
	case CodeIDIsNotSecretNFT:
		return "nft id is not a secret-nft"
	case CodeIDIsNotCapsule:
		return "nft id is not a capsule"
	default:
		return "unknown verification error"
	}
}

func newError(code Code) *VerificationError {
	return &VerificationError{Code: code}
}

func invalidSignerSig(reason SignatureReason) *VerificationError {
	return &VerificationError{Code: CodeInvalidSignerSig, Reason: reason}
}

func invalidDataSig(reason SignatureReason) *VerificationError {
	return &VerificationError{Code: CodeInvalidDataSig, Reason: reason}
}

// AsVerificationError unwraps err into a *VerificationError if it is one.
func AsVerificationError(err error) (*VerificationError, bool) {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

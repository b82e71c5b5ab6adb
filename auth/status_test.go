package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

func TestExpressKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status string
	}{
		{CodeInvalidSignerSig, StatusInvalidSignerSignature},
		{CodeInvalidDataSig, StatusInvalidDataSignature},
		{CodeInvalidOwnerAddress, StatusInvalidOwnerAddress},
		{CodeInvalidSignerAddress, StatusInvalidSignerAddress},
		{CodeSignerVerificationFailed, StatusSignerSigVerificationFailed},
		{CodeDataVerificationFailed, StatusDataSigVerificationFailed},
		{CodeOwnershipVerificationFailed, StatusOwnershipVerificationFailed},
		{CodeRequesterVerificationFailed, StatusRequesterVerificationFailed},
		{CodeMalformedData, StatusInvalidDataFormat},
		{CodeMalformedSigner, StatusInvalidSignerFormat},
		{CodeInvalidAuthToken, StatusInvalidAuthToken},
		{CodeInvalidNFTID, StatusInvalidNFTID},
		{CodeInvalidKeyshare, StatusInvalidKeyshare},
		{CodeExpiredSigner, StatusExpiredSigner},
		{CodeExpiredData, StatusExpiredRequest},
		{CodeIDIsNotSecretNFT, StatusIDIsNotASecretNFT},
		{CodeIDIsNotCapsule, StatusIDIsNotACapsule},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			resp := Express(newError(tc.code), CallNFTStore, "caller", 163, "enclave-1")
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, uint32(163), resp.NFTID)
			assert.Equal(t, "enclave-1", resp.EnclaveID)
			assert.NotEmpty(t, resp.Description)
		})
	}
}

func TestExpressSignatureReason(t *testing.T) {
	resp := Express(invalidSignerSig(ReasonPrefix), CallNFTRetrieve, "caller", 1, "enclave-1")
	assert.Equal(t, StatusInvalidSignerSignature, resp.Status)
	assert.Contains(t, resp.Description, "PREFIXERROR")
}

func TestExpressRPCFailure(t *testing.T) {
	err := &interfaces.RPCError{Op: "finalized head", Err: errors.New("connection refused")}

	resp := Express(err, CallCapsuleSet, "caller", 163, "enclave-1")
	assert.Equal(t, StatusOracleFailure, resp.Status)

	// Internals never leak into the external payload.
	assert.NotContains(t, resp.Description, "connection refused")
}

func TestExpressUnknownError(t *testing.T) {
	resp := Express(errors.New("boom"), CallNFTStore, "caller", 0, "enclave-1")
	assert.Equal(t, StatusOracleFailure, resp.Status)
}

func TestAPICallString(t *testing.T) {
	assert.Equal(t, "NFTSTORE", CallNFTStore.String())
	assert.Equal(t, "NFTRETRIEVE", CallNFTRetrieve.String())
	assert.Equal(t, "CAPSULESET", CallCapsuleSet.String())
	assert.Equal(t, "CAPSULERETRIEVE", CallCapsuleRetrieve.String())
}

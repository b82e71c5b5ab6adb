package auth

import (
	"fmt"
	"log/slog"
)

// APICall names the operation a status payload refers to.
type APICall int

const (
	CallNFTStore APICall = iota
	CallNFTRetrieve
	CallCapsuleSet
	CallCapsuleRetrieve
)

func (c APICall) String() string {
	switch c {
	case CallNFTStore:
		return "NFTSTORE"
	case CallNFTRetrieve:
		return "NFTRETRIEVE"
	case CallCapsuleSet:
		return "CAPSULESET"
	case CallCapsuleRetrieve:
		return "CAPSULERETRIEVE"
	default:
		return "UNKNOWN"
	}
}

// External status tags. Clients match on these values; they must never
// change.
const (
	StatusStoreSuccess    = "STORESUCCESS"
	StatusRetrieveSuccess = "RETRIEVESUCCESS"
	StatusRemoveSuccess   = "REMOVESUCCESS"

	StatusInvalidSignerSignature = "INVALIDSIGNERSIGNATURE"
	StatusInvalidDataSignature   = "INVALIDDATASIGNATURE"
	StatusInvalidOwnerAddress    = "INVALIDOWNERADDRESS"
	StatusInvalidSignerAddress   = "INVALIDSIGNERADDRESS"

	StatusSignerSigVerificationFailed = "SIGNERSIGVERIFICATIONFAILED"
	StatusDataSigVerificationFailed   = "DATASIGVERIFICATIONFAILED"

	StatusOwnershipVerificationFailed = "OWNERSHIPVERIFICATIONFAILED"
	StatusRequesterVerificationFailed = "REQUESTERVERIFICATIONFAILED"

	StatusInvalidAuthToken = "INVALIDAUTHTOKEN"
	StatusInvalidNFTID     = "INVALIDNFTID"
	StatusInvalidKeyshare  = "INVALIDKEYSHARE"

	StatusExpiredSigner  = "EXPIREDSIGNER"
	StatusExpiredRequest = "EXPIREDREQUEST"

	StatusIDIsNotASecretNFT = "IDISNOTASECRETNFT"
	StatusIDIsNotACapsule   = "IDISNOTACAPSULE"

	StatusInvalidDataFormat   = "INVALIDDATAFORMAT"
	StatusInvalidSignerFormat = "INVALIDSIGNERFORMAT"

	StatusOracleFailure = "ORACLEFAILURE"
)

// StatusResponse is the stable external payload produced for every
// verification outcome. Raw internal errors never travel beyond it.
type StatusResponse struct {
	Status      string `json:"status"`
	NFTID       uint32 `json:"nft_id"`
	EnclaveID   string `json:"enclave_id"`
	Description string `json:"description"`
}

// Express maps a verification failure to its stable external status. The
// mapping is total: every closed-set variant has a tag, and anything else
// (the chain-query failure class) maps to StatusOracleFailure. The caller
// account only shows up in the log, never in the payload.
func Express(err error, call APICall, caller string, nftID uint32, enclaveID string) StatusResponse {
	status := StatusOracleFailure
	description := fmt.Sprintf("TEE Key-share %s: Chain query failed, cannot verify the request.", call)

	verr, ok := AsVerificationError(err)
	if ok {
		switch verr.Code {
		case CodeInvalidSignerSig:
			status = StatusInvalidSignerSignature
			description = fmt.Sprintf("TEE Key-share %s: Invalid request signature format, %s", call, verr.Reason)
		case CodeInvalidDataSig:
			status = StatusInvalidDataSignature
			description = fmt.Sprintf("TEE Key-share %s: Invalid request data signature format, %s", call, verr.Reason)
		case CodeInvalidOwnerAddress:
			status = StatusInvalidOwnerAddress
			description = fmt.Sprintf("TEE Key-share %s: Invalid owner address format", call)
		case CodeInvalidSignerAddress:
			status = StatusInvalidSignerAddress
			description = fmt.Sprintf("TEE Key-share %s: Invalid signer address format", call)
		case CodeSignerVerificationFailed:
			status = StatusSignerSigVerificationFailed
			description = fmt.Sprintf("TEE Key-share %s: Signer signature verification failed, signer is not approved by the NFT owner", call)
		case CodeDataVerificationFailed:
			status = StatusDataSigVerificationFailed
			description = fmt.Sprintf("TEE Key-share %s: Data signature verification failed.", call)
		case CodeInvalidAuthToken:
			status = StatusInvalidAuthToken
			description = fmt.Sprintf("TEE Key-share %s: Invalid authentication-token format.", call)
		case CodeInvalidNFTID:
			status = StatusInvalidNFTID
			description = fmt.Sprintf("TEE Key-share %s: The nft-id is not a valid number or the nft does not exist.", call)
		case CodeInvalidKeyshare:
			status = StatusInvalidKeyshare
			description = fmt.Sprintf("TEE Key-share %s: The key-share is empty or not a valid string.", call)
		case CodeOwnershipVerificationFailed:
			status = StatusOwnershipVerificationFailed
			description = fmt.Sprintf("TEE Key-share %s: The nft-id is not owned by this owner.", call)
		case CodeRequesterVerificationFailed:
			status = StatusRequesterVerificationFailed
			description = fmt.Sprintf("TEE Key-share %s: The requester is neither owner, delegatee nor rentee.", call)
		case CodeExpiredSigner:
			status = StatusExpiredSigner
			description = fmt.Sprintf("TEE Key-share %s: The signer account has expired or is not in a valid range.", call)
		case CodeExpiredData:
			status = StatusExpiredRequest
			description = fmt.Sprintf("TEE Key-share %s: The request data field has expired or is not in a valid range.", call)
		case CodeIDIsNotSecretNFT:
			status = StatusIDIsNotASecretNFT
			description = fmt.Sprintf("TEE Key-share %s: The nft-id is not a secret-nft.", call)
		case CodeIDIsNotCapsule:
			status = StatusIDIsNotACapsule
			description = fmt.Sprintf("TEE Key-share %s: The nft-id is not a capsule.", call)
		case CodeMalformedData:
			status = StatusInvalidDataFormat
			description = fmt.Sprintf("TEE Key-share %s: Failed to parse data field.", call)
		case CodeMalformedSigner:
			status = StatusInvalidSignerFormat
			description = fmt.Sprintf("TEE Key-share %s: Failed to parse signer field.", call)
		}
	}

	slog.Info(description, slog.String("requester", caller), slog.String("status", status))

	return StatusResponse{
		Status:      status,
		NFTID:       nftID,
		EnclaveID:   enclaveID,
		Description: description,
	}
}

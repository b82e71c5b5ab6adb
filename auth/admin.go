package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// Admin tokens get a wider grace window than per-secret tokens but a capped
// validity period.
const (
	MaxValidationPeriod = 20
	MaxBlockVariation   = 5
)

// ValidationResult is the outcome of checking an admin token's window, with
// enough detail for precise logging.
type ValidationResult int

const (
	ValidationSuccess ValidationResult = iota
	ValidationErrorRPCCall
	ValidationExpiredBlockNumber
	ValidationFutureBlockNumber
	ValidationInvalidPeriod
)

func (r ValidationResult) String() string {
	switch r {
	case ValidationSuccess:
		return "Success"
	case ValidationErrorRPCCall:
		return "ErrorRpcCall"
	case ValidationExpiredBlockNumber:
		return "ExpiredBlockNumber"
	case ValidationFutureBlockNumber:
		return "FutureBlockNumber"
	case ValidationInvalidPeriod:
		return "InvalidPeriod"
	default:
		return "Unknown"
	}
}

// AdminToken is the hash-bound token variant used by privileged bulk
// operations. DataHash binds the signature to the exact accompanying
// payload.
type AdminToken struct {
	BlockNumber     uint32 `json:"block_number"`
	BlockValidation uint8  `json:"block_validation"`
	DataHash        string `json:"data_hash"`
}

// Check validates the token window against the given height. The window is
// [BlockNumber-5, BlockNumber+BlockValidation+5] inclusive, with
// BlockValidation capped at MaxValidationPeriod.
func (t AdminToken) Check(current uint32) ValidationResult {
	if int64(current) < int64(t.BlockNumber)-MaxBlockVariation {
		return ValidationExpiredBlockNumber
	}

	if t.BlockValidation > MaxValidationPeriod {
		return ValidationInvalidPeriod
	}

	if int64(current) > int64(t.BlockNumber)+int64(t.BlockValidation)+MaxBlockVariation {
		return ValidationFutureBlockNumber
	}

	return ValidationSuccess
}

// FetchIDPacket is the raw wire form of an admin bulk-fetch request.
type FetchIDPacket struct {
	AdminAddress string `json:"admin_address"`
	NFTIDVec     string `json:"nftid_vec"`
	AuthToken    string `json:"auth_token"`
	Signature    string `json:"signature"`
}

// AdminPayload is the validated outcome of an admin bulk-fetch request.
type AdminPayload struct {
	Admin  interfaces.Account
	NFTIDs []uint32
	Token  AdminToken
}

// AdminReason identifies the failing step of an admin verification.
type AdminReason int

const (
	AdminNotWhitelisted AdminReason = iota
	AdminMalformedToken
	AdminInvalidAddress
	AdminInvalidSignature
	AdminTokenNotValid
	AdminHashMismatch
	AdminMalformedPayload
)

func (r AdminReason) String() string {
	switch r {
	case AdminNotWhitelisted:
		return "requester is not whitelisted"
	case AdminMalformedToken:
		return "authentication token is not parsable"
	case AdminInvalidAddress:
		return "admin address is not a valid account"
	case AdminInvalidSignature:
		return "invalid signature"
	case AdminTokenNotValid:
		return "authentication token is not valid or expired"
	case AdminHashMismatch:
		return "mismatch data hash"
	case AdminMalformedPayload:
		return "unable to deserialize the nft-id vector"
	default:
		return "unknown admin error"
	}
}

// AdminError is the terminal outcome of a failed admin verification.
// Result is populated for AdminTokenNotValid.
type AdminError struct {
	Reason AdminReason
	Result ValidationResult
	Err    error
}

func (e *AdminError) Error() string {
	if e.Reason == AdminTokenNotValid {
		return fmt.Sprintf("admin verification: %s: %s", e.Reason, e.Result)
	}
	if e.Err != nil {
		return fmt.Sprintf("admin verification: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("admin verification: %s", e.Reason)
}

func (e *AdminError) Unwrap() error {
	return e.Err
}

// MaintenanceSetter is the externally-owned maintenance-status handle.
// Writes are last-writer-wins; callers serialize admin operations if
// ordering matters.
type MaintenanceSetter interface {
	SetMaintenance(message string)
	ClearMaintenance()
}

// AdminVerifier authenticates privileged bulk operations: whitelist
// membership, hash-bound token, single signature. The whitelist is injected
// configuration, variable per deployment.
type AdminVerifier struct {
	whitelist   map[string]struct{}
	oracle      interfaces.Oracle
	maintenance MaintenanceSetter
	log         *slog.Logger
}

// NewAdminVerifier creates an admin verifier for the given whitelist of
// SS58 account addresses.
func NewAdminVerifier(whitelist []string, oracle interfaces.Oracle, maintenance MaintenanceSetter, log *slog.Logger) *AdminVerifier {
	set := make(map[string]struct{}, len(whitelist))
	for _, account := range whitelist {
		set[account] = struct{}{}
	}
	return &AdminVerifier{
		whitelist:   set,
		oracle:      oracle,
		maintenance: maintenance,
		log:         log,
	}
}

// IsWhitelisted reports whether the account may perform admin operations.
func (a *AdminVerifier) IsWhitelisted(account string) bool {
	_, ok := a.whitelist[account]
	return ok
}

// VerifyFetchRequest authenticates an admin bulk-fetch request. Order:
// whitelist membership, token parse, signature check, window validity, hash
// match, payload parse. The maintenance indicator is set on entry and
// cleared on every exit path.
func (a *AdminVerifier) VerifyFetchRequest(ctx context.Context, p *FetchIDPacket) (*AdminPayload, error) {
	a.maintenance.SetMaintenance("Enclave is doing backup, please wait...")
	defer a.maintenance.ClearMaintenance()

	if !a.IsWhitelisted(p.AdminAddress) {
		a.log.Warn("Admin request rejected: not whitelisted", slog.String("requester", p.AdminAddress))
		return nil, &AdminError{Reason: AdminNotWhitelisted}
	}

	tokenStr, ok := stripWrapper(p.AuthToken)
	if !ok {
		a.log.Warn("Admin request rejected: token wrapper mismatch", slog.String("requester", p.AdminAddress))
		return nil, &AdminError{Reason: AdminMalformedToken}
	}

	var token AdminToken
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		a.log.Warn("Admin request rejected: unparsable token", slog.String("requester", p.AdminAddress), slog.Any("error", err))
		return nil, &AdminError{Reason: AdminMalformedToken, Err: err}
	}

	admin, err := interfaces.NewAccountFromSS58(p.AdminAddress)
	if err != nil {
		a.log.Warn("Admin request rejected: invalid admin address", slog.String("requester", p.AdminAddress), slog.Any("error", err))
		return nil, &AdminError{Reason: AdminInvalidAddress, Err: err}
	}

	sig, reason := ParseSignature(p.Signature)
	if reason != ReasonNone {
		a.log.Warn("Admin request rejected: signature format", slog.String("requester", p.AdminAddress), slog.String("reason", reason.String()))
		return nil, &AdminError{Reason: AdminInvalidSignature}
	}

	// The signature covers the token exactly as it appeared on the wire,
	// wrapper included.
	if !VerifySignature(admin, sig, []byte(p.AuthToken)) {
		a.log.Warn("Admin request rejected: signature verification failed", slog.String("requester", p.AdminAddress))
		return nil, &AdminError{Reason: AdminInvalidSignature}
	}

	current, err := a.oracle.CurrentFinalizedBlock(ctx)
	if err != nil {
		a.log.Error("Admin request failed: cannot get current block", slog.Any("error", err))
		return nil, &AdminError{Reason: AdminTokenNotValid, Result: ValidationErrorRPCCall, Err: err}
	}

	if result := token.Check(current); result != ValidationSuccess {
		a.log.Warn("Admin request rejected: token window", slog.String("requester", p.AdminAddress), slog.String("result", result.String()))
		return nil, &AdminError{Reason: AdminTokenNotValid, Result: result}
	}

	hash := sha256.Sum256([]byte(p.NFTIDVec))
	if token.DataHash != hex.EncodeToString(hash[:]) {
		a.log.Warn("Admin request rejected: data hash mismatch", slog.String("requester", p.AdminAddress))
		return nil, &AdminError{Reason: AdminHashMismatch}
	}

	var nftIDs []uint32
	if err := json.Unmarshal([]byte(p.NFTIDVec), &nftIDs); err != nil {
		a.log.Warn("Admin request rejected: unparsable nft-id vector", slog.String("requester", p.AdminAddress), slog.Any("error", err))
		return nil, &AdminError{Reason: AdminMalformedPayload, Err: err}
	}

	a.log.Info("Admin bulk-fetch request authenticated",
		slog.String("requester", p.AdminAddress),
		slog.Int("nft_ids", len(nftIDs)))

	return &AdminPayload{Admin: admin, NFTIDs: nftIDs, Token: token}, nil
}

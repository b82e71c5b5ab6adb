package auth

import (
	"context"
	"log/slog"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// NFTKind selects which secret kind a request addresses.
type NFTKind int

const (
	KindSecretNFT NFTKind = iota
	KindCapsule
)

func (k NFTKind) String() string {
	if k == KindCapsule {
		return "capsule"
	}
	return "secret-nft"
}

// HolderKind classifies the chain-observed holder of a key-share.
type HolderKind int

const (
	HolderOwner HolderKind = iota
	HolderDelegatee
	HolderRentee
	HolderNotFound
)

// KeyshareHolder is the chain-observed holder used to check a claimed
// relationship against reality.
type KeyshareHolder struct {
	Kind    HolderKind
	Account interfaces.Account
}

// Verifier validates store and retrieve requests against signatures, token
// windows and chain state. All methods are safe for concurrent use.
type Verifier struct {
	oracle interfaces.Oracle
	log    *slog.Logger
}

// NewVerifier creates a verifier backed by the given chain oracle.
func NewVerifier(oracle interfaces.Oracle, log *slog.Logger) *Verifier {
	return &Verifier{oracle: oracle, log: log}
}

// verifySigner checks the owner->signer tier: the signer grant must parse,
// be fresh, and carry a valid owner signature over the raw signer field.
func (v *Verifier) verifySigner(ctx context.Context, p *StoreKeysharePacket) (bool, error) {
	signer, err := p.Signer()
	if err != nil {
		return false, err
	}

	current, err := v.oracle.CurrentFinalizedBlock(ctx)
	if err != nil {
		return false, err
	}

	if !signer.AuthToken.ValidAt(current) {
		return false, newError(CodeExpiredSigner)
	}

	sig, reason := p.ParseSignature(SlotSigner)
	if reason != ReasonNone {
		return false, invalidSignerSig(reason)
	}

	owner, err := p.Owner()
	if err != nil {
		return false, err
	}

	return VerifySignature(owner, sig, []byte(p.SignerAddress)), nil
}

// verifyStoreData checks the signer->data tier: the data field must parse
// and carry a valid signature by the delegated signer over the raw field.
func (v *Verifier) verifyStoreData(ctx context.Context, p *StoreKeysharePacket) (bool, error) {
	signer, err := p.Signer()
	if err != nil {
		return false, err
	}

	sig, reason := p.ParseSignature(SlotOwner)
	if reason != ReasonNone {
		return false, invalidDataSig(reason)
	}

	if _, err := p.StoreData(); err != nil {
		return false, err
	}

	return VerifySignature(signer.Account, sig, []byte(p.Data)), nil
}

// VerifyStoreRequest validates the full two-tier delegation chain of a store
// request and returns the parsed data on success.
func (v *Verifier) VerifyStoreRequest(ctx context.Context, p *StoreKeysharePacket, kind NFTKind) (*StoreKeyshareData, error) {
	ok, err := v.verifySigner(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(CodeSignerVerificationFailed)
	}

	ok, err = v.verifyStoreData(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(CodeDataVerificationFailed)
	}

	data, err := p.StoreData()
	if err != nil {
		return nil, err
	}

	nft, err := v.oracle.NFTData(ctx, data.NFTID)
	if err != nil {
		return nil, err
	}
	if nft == nil {
		return nil, newError(CodeInvalidNFTID)
	}

	if err := checkKind(nft, kind); err != nil {
		return nil, err
	}

	current, err := v.oracle.CurrentFinalizedBlock(ctx)
	if err != nil {
		return nil, err
	}
	if !data.AuthToken.ValidAt(current) {
		return nil, newError(CodeExpiredData)
	}

	owner, err := p.Owner()
	if err != nil {
		return nil, err
	}

	authorized, err := v.AuthorizeRequester(ctx, owner, data.NFTID, nft.Owner, RequesterOwner)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, newError(CodeOwnershipVerificationFailed)
	}

	return data, nil
}

// VerifyFreeStoreRequest checks signatures and token windows only, with no
// chain authorization. For callers that need authenticity, not capability.
func (v *Verifier) VerifyFreeStoreRequest(ctx context.Context, p *StoreKeysharePacket) (*StoreKeyshareData, error) {
	ok, err := v.verifySigner(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(CodeSignerVerificationFailed)
	}

	data, err := p.StoreData()
	if err != nil {
		return nil, err
	}

	ok, err = v.verifyStoreData(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(CodeDataVerificationFailed)
	}

	return data, nil
}

// VerifyRetrieveRequest validates a one-tier retrieve request: signature by
// the requester, chain record and kind, token freshness, then the claimed
// relationship.
func (v *Verifier) VerifyRetrieveRequest(ctx context.Context, p *RetrieveKeysharePacket, kind NFTKind) (*RetrieveKeyshareData, error) {
	data, err := p.RetrieveData()
	if err != nil {
		return nil, err
	}

	sig, reason := p.ParseSignature()
	if reason != ReasonNone {
		return nil, invalidSignerSig(reason)
	}

	requester, err := p.Requester()
	if err != nil {
		return nil, err
	}

	if !VerifySignature(requester, sig, []byte(p.Data)) {
		return nil, newError(CodeDataVerificationFailed)
	}

	nft, err := v.oracle.NFTData(ctx, data.NFTID)
	if err != nil {
		return nil, err
	}
	if nft == nil {
		return nil, newError(CodeInvalidNFTID)
	}

	if err := checkKind(nft, kind); err != nil {
		return nil, err
	}

	current, err := v.oracle.CurrentFinalizedBlock(ctx)
	if err != nil {
		return nil, err
	}
	if !data.AuthToken.ValidAt(current) {
		return nil, newError(CodeExpiredData)
	}

	authorized, err := v.AuthorizeRequester(ctx, requester, data.NFTID, nft.Owner, p.RequesterType)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, newError(CodeRequesterVerificationFailed)
	}

	return data, nil
}

// VerifyFreeRetrieveRequest checks the signature and token window only.
func (v *Verifier) VerifyFreeRetrieveRequest(ctx context.Context, p *RetrieveKeysharePacket) (*RetrieveKeyshareData, error) {
	data, err := p.RetrieveData()
	if err != nil {
		return nil, err
	}

	current, err := v.oracle.CurrentFinalizedBlock(ctx)
	if err != nil {
		return nil, err
	}
	if !data.AuthToken.ValidAt(current) {
		return nil, newError(CodeExpiredData)
	}

	sig, reason := p.ParseSignature()
	if reason != ReasonNone {
		return nil, invalidSignerSig(reason)
	}

	requester, err := p.Requester()
	if err != nil {
		return nil, err
	}

	if !VerifySignature(requester, sig, []byte(p.Data)) {
		return nil, newError(CodeDataVerificationFailed)
	}

	return data, nil
}

func checkKind(nft *interfaces.NFTData, kind NFTKind) error {
	if kind == KindSecretNFT && !nft.State.IsSecret {
		return newError(CodeIDIsNotSecretNFT)
	}
	if kind == KindCapsule && !nft.State.IsCapsule {
		return newError(CodeIDIsNotCapsule)
	}
	return nil
}

// OnchainDelegatee looks up the chain-observed delegatee holder of an NFT.
func (v *Verifier) OnchainDelegatee(ctx context.Context, nftID uint32) (KeyshareHolder, error) {
	account, err := v.oracle.DelegateeOf(ctx, nftID)
	if err != nil {
		return KeyshareHolder{Kind: HolderNotFound}, err
	}
	if account == nil {
		return KeyshareHolder{Kind: HolderNotFound}, nil
	}
	return KeyshareHolder{Kind: HolderDelegatee, Account: *account}, nil
}

// OnchainRentee looks up the chain-observed rentee holder of an NFT.
func (v *Verifier) OnchainRentee(ctx context.Context, nftID uint32) (KeyshareHolder, error) {
	account, err := v.oracle.RenteeOf(ctx, nftID)
	if err != nil {
		return KeyshareHolder{Kind: HolderNotFound}, err
	}
	if account == nil {
		return KeyshareHolder{Kind: HolderNotFound}, nil
	}
	return KeyshareHolder{Kind: HolderRentee, Account: *account}, nil
}

// AuthorizeRequester decides whether the claimed relationship between the
// requester and the NFT holds. Owner and None claims compare against the
// on-chain owner; Delegatee and Rentee claims are checked against a fresh
// chain query. Absence of a relation is always a denial. Results are never
// cached beyond the request.
func (v *Verifier) AuthorizeRequester(ctx context.Context, requester interfaces.Account, nftID uint32, owner interfaces.Account, claimed RequesterType) (bool, error) {
	switch claimed {
	case RequesterOwner, RequesterNone:
		return owner.Equal(requester), nil

	case RequesterDelegatee:
		holder, err := v.OnchainDelegatee(ctx, nftID)
		if err != nil {
			return false, err
		}
		return holder.Kind == HolderDelegatee && holder.Account.Equal(requester), nil

	case RequesterRentee:
		holder, err := v.OnchainRentee(ctx, nftID)
		if err != nil {
			return false, err
		}
		return holder.Kind == HolderRentee && holder.Account.Equal(requester), nil

	default:
		return false, nil
	}
}

package interfaces

import (
	"context"
	"fmt"
)

// Oracle provides the chain height and state queries the verification core
// depends on. Implementations must bound every call with a timeout and wrap
// transport failures in *RPCError so callers can tell infrastructure
// problems apart from negative verification outcomes.
type Oracle interface {
	// CurrentFinalizedBlock returns the number of the latest finalized block.
	CurrentFinalizedBlock(ctx context.Context) (uint32, error)

	// NFTData returns the on-chain record for the NFT, or nil if the NFT
	// does not exist.
	NFTData(ctx context.Context, nftID uint32) (*NFTData, error)

	// DelegateeOf returns the current delegatee of the NFT, or nil if the
	// NFT is not delegated.
	DelegateeOf(ctx context.Context, nftID uint32) (*Account, error)

	// RenteeOf returns the rentee of the NFT's active rent contract, or nil
	// if there is none.
	RenteeOf(ctx context.Context, nftID uint32) (*Account, error)
}

// RPCError reports a failed chain query. It is deliberately distinct from
// the verification error taxonomy: an unreachable chain never means a
// request was invalid.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("chain rpc %s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

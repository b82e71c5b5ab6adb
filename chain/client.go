// Package chain implements the chain oracle over a Substrate RPC endpoint.
// It answers the height and state queries the verification core needs:
// finalized block number, NFT records, delegatees and rent contracts.
package chain

import (
	"context"
	"log/slog"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// DefaultQueryTimeout bounds a single RPC round trip.
const DefaultQueryTimeout = 10 * time.Second

// Client queries a Substrate node. It implements interfaces.Oracle.
type Client struct {
	api     *gsrpc.SubstrateAPI
	meta    *types.Metadata
	log     *slog.Logger
	timeout time.Duration
	observe func(seconds float64)
}

// NewClient connects to the node at url and fetches the chain metadata used
// to build storage keys.
func NewClient(url string, log *slog.Logger) (*Client, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, &interfaces.RPCError{Op: "connect", Err: err}
	}

	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, &interfaces.RPCError{Op: "metadata", Err: err}
	}

	log.Info("Connected to chain RPC", slog.String("url", url))

	return &Client{
		api:     api,
		meta:    meta,
		log:     log,
		timeout: DefaultQueryTimeout,
	}, nil
}

// SetQueryTimeout overrides the per-query timeout.
func (c *Client) SetQueryTimeout(d time.Duration) {
	c.timeout = d
}

// SetQueryObserver installs a latency callback, fed once per query. Set it
// before serving traffic.
func (c *Client) SetQueryObserver(observe func(seconds float64)) {
	c.observe = observe
}

// call runs fn with a bounded timeout. The RPC library has no context
// support, so the call is raced against the deadline.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.observe != nil {
		start := time.Now()
		defer func() { c.observe(time.Since(start).Seconds()) }()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			return &interfaces.RPCError{Op: op, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &interfaces.RPCError{Op: op, Err: ctx.Err()}
	}
}

// CurrentFinalizedBlock returns the number of the latest finalized block.
func (c *Client) CurrentFinalizedBlock(ctx context.Context) (uint32, error) {
	var number uint32

	err := c.call(ctx, "finalized head", func() error {
		hash, err := c.api.RPC.Chain.GetFinalizedHead()
		if err != nil {
			return err
		}

		header, err := c.api.RPC.Chain.GetHeader(hash)
		if err != nil {
			return err
		}

		number = uint32(header.Number)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return number, nil
}

// nftState mirrors the SCALE layout of the NFT pallet's state flags.
type nftState struct {
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

// nftData is a prefix of the NFT pallet's record; trailing fields are not
// decoded.
type nftData struct {
	Owner        [32]byte
	Creator      [32]byte
	OffchainData []byte
	Royalty      types.U32
	CollectionID types.OptionU32
	State        nftState
}

// optionAccount decodes an Option<AccountId>.
type optionAccount struct {
	hasValue bool
	value    [32]byte
}

func (o *optionAccount) Decode(decoder scale.Decoder) error {
	return decoder.DecodeOption(&o.hasValue, &o.value)
}

// rentContract is a prefix of the rent pallet's contract record.
type rentContract struct {
	StartBlock types.OptionU32
	Renter     [32]byte
	Rentee     optionAccount
}

func (c *Client) storageKey(pallet, item string, nftID uint32) (types.StorageKey, error) {
	arg, err := codec.Encode(types.NewU32(nftID))
	if err != nil {
		return nil, err
	}
	return types.CreateStorageKey(c.meta, pallet, item, arg)
}

// NFTData returns the on-chain NFT record, or nil if the NFT does not exist.
func (c *Client) NFTData(ctx context.Context, nftID uint32) (*interfaces.NFTData, error) {
	var (
		raw   nftData
		found bool
	)

	err := c.call(ctx, "nft data", func() error {
		key, err := c.storageKey("NFT", "Nfts", nftID)
		if err != nil {
			return err
		}

		found, err = c.api.RPC.State.GetStorageLatest(key, &raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return &interfaces.NFTData{
		Owner:   interfaces.Account(raw.Owner),
		Creator: interfaces.Account(raw.Creator),
		State: interfaces.NFTState{
			IsCapsule:        raw.State.IsCapsule,
			ListedForSale:    raw.State.ListedForSale,
			IsSecret:         raw.State.IsSecret,
			IsDelegated:      raw.State.IsDelegated,
			IsSoulbound:      raw.State.IsSoulbound,
			IsSyncingCapsule: raw.State.IsSyncingCapsule,
			IsSyncingSecret:  raw.State.IsSyncingSecret,
			IsTransmission:   raw.State.IsTransmission,
			IsRented:         raw.State.IsRented,
		},
	}, nil
}

// DelegateeOf returns the current delegatee of the NFT, or nil if the NFT is
// not delegated.
func (c *Client) DelegateeOf(ctx context.Context, nftID uint32) (*interfaces.Account, error) {
	var (
		raw   [32]byte
		found bool
	)

	err := c.call(ctx, "delegatee", func() error {
		key, err := c.storageKey("NFT", "DelegatedNFTs", nftID)
		if err != nil {
			return err
		}

		found, err = c.api.RPC.State.GetStorageLatest(key, &raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	account := interfaces.Account(raw)
	return &account, nil
}

// RenteeOf returns the rentee of the NFT's rent contract, or nil if there is
// no contract or the contract has not started.
func (c *Client) RenteeOf(ctx context.Context, nftID uint32) (*interfaces.Account, error) {
	var (
		raw   rentContract
		found bool
	)

	err := c.call(ctx, "rent contract", func() error {
		key, err := c.storageKey("Rent", "Contracts", nftID)
		if err != nil {
			return err
		}

		found, err = c.api.RPC.State.GetStorageLatest(key, &raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found || !raw.Rentee.hasValue {
		return nil, nil
	}

	account := interfaces.Account(raw.Rentee.value)
	return &account, nil
}

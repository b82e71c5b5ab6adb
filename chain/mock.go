package chain

import (
	"context"
	"sync"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// MockOracle is an in-memory oracle for tests. Every query can also be
// forced to fail to exercise infrastructure-error paths.
type MockOracle struct {
	mu sync.RWMutex

	Block      uint32
	NFTs       map[uint32]*interfaces.NFTData
	Delegatees map[uint32]interfaces.Account
	Rentees    map[uint32]interfaces.Account

	// Err, when set, is returned (wrapped) by every query.
	Err error

	// Calls counts queries by operation name.
	Calls map[string]int
}

// NewMockOracle creates an empty mock at the given block height.
func NewMockOracle(block uint32) *MockOracle {
	return &MockOracle{
		Block:      block,
		NFTs:       make(map[uint32]*interfaces.NFTData),
		Delegatees: make(map[uint32]interfaces.Account),
		Rentees:    make(map[uint32]interfaces.Account),
		Calls:      make(map[string]int),
	}
}

func (m *MockOracle) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[op]++
	if m.Err != nil {
		return &interfaces.RPCError{Op: op, Err: m.Err}
	}
	return nil
}

// SetBlock moves the mock chain to the given height.
func (m *MockOracle) SetBlock(block uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Block = block
}

// AddNFT registers an NFT record.
func (m *MockOracle) AddNFT(nftID uint32, data *interfaces.NFTData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NFTs[nftID] = data
}

func (m *MockOracle) CurrentFinalizedBlock(ctx context.Context) (uint32, error) {
	if err := m.record("finalized head"); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Block, nil
}

func (m *MockOracle) NFTData(ctx context.Context, nftID uint32) (*interfaces.NFTData, error) {
	if err := m.record("nft data"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.NFTs[nftID], nil
}

func (m *MockOracle) DelegateeOf(ctx context.Context, nftID uint32) (*interfaces.Account, error) {
	if err := m.record("delegatee"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.Delegatees[nftID]; ok {
		return &account, nil
	}
	return nil, nil
}

func (m *MockOracle) RenteeOf(ctx context.Context, nftID uint32) (*interfaces.Account, error) {
	if err := m.record("rentee"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.Rentees[nftID]; ok {
		return &account, nil
	}
	return nil, nil
}

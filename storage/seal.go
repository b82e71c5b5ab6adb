// Package storage persists validated key-shares as sealed files under the
// enclave seal path. The verification core never touches it directly; the
// transport hands it strongly-typed validated data.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// KeyshareKind selects the file namespace for a key-share.
type KeyshareKind string

const (
	SecretNFT KeyshareKind = "nft"
	Capsule   KeyshareKind = "capsule"
)

// ErrKeyshareNotFound is returned when no sealed file exists for the asset.
var ErrKeyshareNotFound = errors.New("keyshare not found")

// ErrKeyshareCorrupted is returned when a sealed file does not match its
// recorded digest.
var ErrKeyshareCorrupted = errors.New("sealed keyshare does not match its digest")

// SealedStore reads and writes per-asset key-share files. Each key-share
// gets a data file, a blake2b digest sidecar and an availability file
// recording the block height at which it was stored.
type SealedStore struct {
	sealPath string
	log      *slog.Logger
}

// NewSealedStore creates a store rooted at sealPath, creating the directory
// if needed.
func NewSealedStore(sealPath string, log *slog.Logger) (*SealedStore, error) {
	if err := os.MkdirAll(sealPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create seal path: %w", err)
	}

	return &SealedStore{sealPath: sealPath, log: log}, nil
}

// SealPath returns the root directory of the store.
func (s *SealedStore) SealPath() string {
	return s.sealPath
}

func (s *SealedStore) dataFile(kind KeyshareKind, nftID uint32) string {
	return filepath.Join(s.sealPath, fmt.Sprintf("%s_%d.keyshare", kind, nftID))
}

func (s *SealedStore) digestFile(kind KeyshareKind, nftID uint32) string {
	return filepath.Join(s.sealPath, fmt.Sprintf("%s_%d.sum", kind, nftID))
}

func (s *SealedStore) availabilityFile(kind KeyshareKind, nftID uint32) string {
	return filepath.Join(s.sealPath, fmt.Sprintf("%s_%d.log", kind, nftID))
}

// Store seals a key-share together with its digest and the block height of
// the store request. An existing key-share for the same asset is replaced.
func (s *SealedStore) Store(kind KeyshareKind, nftID uint32, keyshare []byte, blockNumber uint32) error {
	if err := os.WriteFile(s.dataFile(kind, nftID), keyshare, 0o600); err != nil {
		return fmt.Errorf("failed to seal keyshare: %w", err)
	}

	digest := blake2b.Sum256(keyshare)
	if err := os.WriteFile(s.digestFile(kind, nftID), digest[:], 0o600); err != nil {
		return fmt.Errorf("failed to write keyshare digest: %w", err)
	}

	block := strconv.FormatUint(uint64(blockNumber), 10)
	if err := os.WriteFile(s.availabilityFile(kind, nftID), []byte(block), 0o600); err != nil {
		return fmt.Errorf("failed to write availability file: %w", err)
	}

	s.log.Info("Sealed keyshare",
		slog.String("kind", string(kind)),
		slog.Uint64("nft_id", uint64(nftID)),
		slog.Uint64("block", uint64(blockNumber)))

	return nil
}

// Fetch unseals a key-share. It verifies the digest sidecar when present and
// fails with ErrKeyshareCorrupted on mismatch.
func (s *SealedStore) Fetch(kind KeyshareKind, nftID uint32) ([]byte, error) {
	data, err := os.ReadFile(s.dataFile(kind, nftID))
	if os.IsNotExist(err) {
		return nil, ErrKeyshareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sealed keyshare: %w", err)
	}

	recorded, err := os.ReadFile(s.digestFile(kind, nftID))
	if err == nil {
		digest := blake2b.Sum256(data)
		if !bytes.Equal(recorded, digest[:]) {
			return nil, ErrKeyshareCorrupted
		}
	}

	return data, nil
}

// Exists reports whether a sealed key-share is present for the asset.
func (s *SealedStore) Exists(kind KeyshareKind, nftID uint32) bool {
	_, err := os.Stat(s.dataFile(kind, nftID))
	return err == nil
}

// StoredBlock returns the block height recorded when the key-share was
// sealed.
func (s *SealedStore) StoredBlock(kind KeyshareKind, nftID uint32) (uint32, error) {
	raw, err := os.ReadFile(s.availabilityFile(kind, nftID))
	if os.IsNotExist(err) {
		return 0, ErrKeyshareNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read availability file: %w", err)
	}

	block, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("corrupt availability file: %w", err)
	}
	return uint32(block), nil
}

// Remove deletes the sealed key-share and its sidecars.
func (s *SealedStore) Remove(kind KeyshareKind, nftID uint32) error {
	if err := os.Remove(s.dataFile(kind, nftID)); err != nil {
		if os.IsNotExist(err) {
			return ErrKeyshareNotFound
		}
		return fmt.Errorf("failed to remove sealed keyshare: %w", err)
	}

	// Sidecars are best effort; a missing one is not an error.
	_ = os.Remove(s.digestFile(kind, nftID))
	_ = os.Remove(s.availabilityFile(kind, nftID))

	s.log.Info("Removed keyshare",
		slog.String("kind", string(kind)),
		slog.Uint64("nft_id", uint64(nftID)))

	return nil
}

// Paths returns the existing sealed files (all kinds, sidecars included) for
// the given assets, for the admin bulk fetch.
func (s *SealedStore) Paths(nftIDs []uint32) []string {
	var paths []string
	for _, id := range nftIDs {
		for _, kind := range []KeyshareKind{SecretNFT, Capsule} {
			for _, path := range []string{
				s.dataFile(kind, id),
				s.digestFile(kind, id),
				s.availabilityFile(kind, id),
			} {
				if _, err := os.Stat(path); err == nil {
					paths = append(paths, path)
				}
			}
		}
	}
	return paths
}

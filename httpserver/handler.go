package httpserver

import (
	"archive/zip"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/infotechlpu/ternoa-enclaves/attestation"
	"github.com/infotechlpu/ternoa-enclaves/auth"
	"github.com/infotechlpu/ternoa-enclaves/common"
	"github.com/infotechlpu/ternoa-enclaves/interfaces"
	"github.com/infotechlpu/ternoa-enclaves/metrics"
	"github.com/infotechlpu/ternoa-enclaves/storage"
)

// Handler processes the key-share API requests. All verification is
// delegated to the auth package; the handler only shuttles validated data
// between the wire and the sealed store.
type Handler struct {
	log         *slog.Logger
	verifier    *auth.Verifier
	admin       *auth.AdminVerifier
	store       *storage.SealedStore
	oracle      interfaces.Oracle
	quotes      attestation.Provider
	maintenance *MaintenanceFlag
	metrics     *metrics.MetricsServer
	enclaveID   string
}

// NewHandler wires the verification core, the sealed store and the
// attestation provider into an HTTP handler.
func NewHandler(verifier *auth.Verifier, admin *auth.AdminVerifier, store *storage.SealedStore, oracle interfaces.Oracle, quotes attestation.Provider, maintenance *MaintenanceFlag, enclaveID string, log *slog.Logger) *Handler {
	return &Handler{
		log:         log,
		verifier:    verifier,
		admin:       admin,
		store:       store,
		oracle:      oracle,
		quotes:      quotes,
		maintenance: maintenance,
		enclaveID:   enclaveID,
	}
}

// RetrieveResponse carries a retrieved key-share back to the requester.
type RetrieveResponse struct {
	Status       string `json:"status"`
	NFTID        uint32 `json:"nft_id"`
	EnclaveID    string `json:"enclave_id"`
	KeyshareData string `json:"keyshare_data"`
	Description  string `json:"description"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) countRequest(call auth.APICall) {
	if h.metrics != nil {
		h.metrics.RequestsTotal.WithLabelValues(call.String()).Inc()
	}
}

// verificationFailure renders the stable status payload for a failed
// verification. Chain-query failures surface as 502, everything else as 400.
func (h *Handler) verificationFailure(w http.ResponseWriter, err error, call auth.APICall, caller string, nftID uint32) {
	resp := auth.Express(err, call, caller, nftID, h.enclaveID)
	if h.metrics != nil {
		h.metrics.FailuresTotal.WithLabelValues(resp.Status).Inc()
	}

	httpStatus := http.StatusBadRequest
	var rpcErr *interfaces.RPCError
	if errors.As(err, &rpcErr) {
		httpStatus = http.StatusBadGateway
	}
	h.writeJSON(w, httpStatus, resp)
}

func (h *Handler) handleStore(w http.ResponseWriter, r *http.Request, kind auth.NFTKind, call auth.APICall, fileKind storage.KeyshareKind) {
	h.countRequest(call)

	var p auth.StoreKeysharePacket
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	data, err := h.verifier.VerifyStoreRequest(r.Context(), &p, kind)
	if err != nil {
		var nftID uint32
		if parsed, perr := p.StoreData(); perr == nil {
			nftID = parsed.NFTID
		}
		h.verificationFailure(w, err, call, p.OwnerAddress, nftID)
		return
	}

	if err := h.store.Store(fileKind, data.NFTID, data.Keyshare, data.AuthToken.BlockNumber); err != nil {
		h.log.Error("Failed to seal keyshare", "err", err, "nft_id", data.NFTID)
		h.writeJSON(w, http.StatusInternalServerError, auth.StatusResponse{
			Status:      "DATABASEFAILURE",
			NFTID:       data.NFTID,
			EnclaveID:   h.enclaveID,
			Description: "TEE Key-share " + call.String() + ": Failed to seal the key-share.",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, auth.StatusResponse{
		Status:      auth.StatusStoreSuccess,
		NFTID:       data.NFTID,
		EnclaveID:   h.enclaveID,
		Description: "TEE Key-share " + call.String() + ": Keyshare is successfully stored to TEE.",
	})
}

func (h *Handler) handleRetrieve(w http.ResponseWriter, r *http.Request, kind auth.NFTKind, call auth.APICall, fileKind storage.KeyshareKind) {
	h.countRequest(call)

	var p auth.RetrieveKeysharePacket
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	data, err := h.verifier.VerifyRetrieveRequest(r.Context(), &p, kind)
	if err != nil {
		var nftID uint32
		if parsed, perr := p.RetrieveData(); perr == nil {
			nftID = parsed.NFTID
		}
		h.verificationFailure(w, err, call, p.RequesterAddress, nftID)
		return
	}

	keyshare, err := h.store.Fetch(fileKind, data.NFTID)
	if err != nil {
		status, httpStatus := "KEYNOTREADABLE", http.StatusInternalServerError
		if errors.Is(err, storage.ErrKeyshareNotFound) {
			status, httpStatus = "KEYNOTEXIST", http.StatusNotFound
		}
		h.writeJSON(w, httpStatus, auth.StatusResponse{
			Status:      status,
			NFTID:       data.NFTID,
			EnclaveID:   h.enclaveID,
			Description: "TEE Key-share " + call.String() + ": The key-share is not available on this enclave.",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, RetrieveResponse{
		Status:       auth.StatusRetrieveSuccess,
		NFTID:        data.NFTID,
		EnclaveID:    h.enclaveID,
		KeyshareData: string(keyshare),
		Description:  "TEE Key-share " + call.String() + ": Keyshare is successfully retrieved from TEE.",
	})
}

// handleRemove drops a sealed key-share once the NFT no longer exists on
// chain. Anybody can request it; the burn check is the authorization.
func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request, call auth.APICall, fileKind storage.KeyshareKind) {
	var p auth.RemoveKeysharePacket
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	nft, err := h.oracle.NFTData(r.Context(), p.NFTID)
	if err != nil {
		h.verificationFailure(w, err, call, p.RequesterAddress, p.NFTID)
		return
	}
	if nft != nil {
		h.writeJSON(w, http.StatusBadRequest, auth.StatusResponse{
			Status:      "NOTBURNT",
			NFTID:       p.NFTID,
			EnclaveID:   h.enclaveID,
			Description: "TEE Key-share " + call.String() + ": The nft-id still exists on chain, cannot remove its key-share.",
		})
		return
	}

	if err := h.store.Remove(fileKind, p.NFTID); err != nil {
		if errors.Is(err, storage.ErrKeyshareNotFound) {
			h.writeJSON(w, http.StatusNotFound, auth.StatusResponse{
				Status:      "KEYNOTEXIST",
				NFTID:       p.NFTID,
				EnclaveID:   h.enclaveID,
				Description: "TEE Key-share " + call.String() + ": No key-share stored for this nft-id.",
			})
			return
		}
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove keyshare"})
		return
	}

	h.writeJSON(w, http.StatusOK, auth.StatusResponse{
		Status:      auth.StatusRemoveSuccess,
		NFTID:       p.NFTID,
		EnclaveID:   h.enclaveID,
		Description: "TEE Key-share " + call.String() + ": Keyshare is successfully removed from TEE.",
	})
}

func (h *Handler) HandleStoreSecretNFT(w http.ResponseWriter, r *http.Request) {
	h.handleStore(w, r, auth.KindSecretNFT, auth.CallNFTStore, storage.SecretNFT)
}

func (h *Handler) HandleRetrieveSecretNFT(w http.ResponseWriter, r *http.Request) {
	h.handleRetrieve(w, r, auth.KindSecretNFT, auth.CallNFTRetrieve, storage.SecretNFT)
}

func (h *Handler) HandleRemoveSecretNFT(w http.ResponseWriter, r *http.Request) {
	h.handleRemove(w, r, auth.CallNFTRetrieve, storage.SecretNFT)
}

func (h *Handler) HandleStoreCapsule(w http.ResponseWriter, r *http.Request) {
	h.handleStore(w, r, auth.KindCapsule, auth.CallCapsuleSet, storage.Capsule)
}

func (h *Handler) HandleRetrieveCapsule(w http.ResponseWriter, r *http.Request) {
	h.handleRetrieve(w, r, auth.KindCapsule, auth.CallCapsuleRetrieve, storage.Capsule)
}

func (h *Handler) HandleRemoveCapsule(w http.ResponseWriter, r *http.Request) {
	h.handleRemove(w, r, auth.CallCapsuleRetrieve, storage.Capsule)
}

// HandleBackupFetchID authenticates an admin bulk-fetch request and streams
// a zip of the requested sealed files.
func (h *Handler) HandleBackupFetchID(w http.ResponseWriter, r *http.Request) {
	var p auth.FetchIDPacket
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payload, err := h.admin.VerifyFetchRequest(r.Context(), &p)
	if err != nil {
		httpStatus := http.StatusBadRequest
		var rpcErr *interfaces.RPCError
		if errors.As(err, &rpcErr) {
			httpStatus = http.StatusBadGateway
		}
		h.writeJSON(w, httpStatus, map[string]string{"error": err.Error()})
		return
	}

	paths := h.store.Paths(payload.NFTIDs)
	h.log.Info("Streaming backup archive",
		"requester", p.AdminAddress,
		"nft_ids", len(payload.NFTIDs),
		"files", len(paths))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="Backup.zip"`)
	w.WriteHeader(http.StatusOK)

	zw := zip.NewWriter(w)
	for _, path := range paths {
		entry, err := zw.Create(filepath.Base(path))
		if err != nil {
			h.log.Error("Failed to create zip entry", "err", err, "path", path)
			break
		}
		f, err := os.Open(path)
		if err != nil {
			h.log.Error("Failed to open sealed file", "err", err, "path", path)
			break
		}
		_, err = io.Copy(entry, f)
		f.Close()
		if err != nil {
			h.log.Error("Failed to write zip entry", "err", err, "path", path)
			break
		}
	}
	if err := zw.Close(); err != nil {
		h.log.Error("Failed to finalize backup archive", "err", err)
	}
}

// HandleQuote produces an attestation quote for the enclave.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var reportData [64]byte

	quote, err := h.quotes.Quote(reportData)
	if err != nil {
		h.log.Error("Failed to produce quote", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "attestation failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "QUOTESUCCESS",
		"data":   hex.EncodeToString(quote),
	})
}

// HandleHealth reports chain connectivity, maintenance state and versions.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if msg := h.maintenance.Message(); msg != "" {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":      "MAINTENANCE",
			"description": msg,
		})
		return
	}

	block, err := h.oracle.CurrentFinalizedBlock(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":      auth.StatusOracleFailure,
			"description": "cannot reach the chain RPC",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "OK",
		"block_number": block,
		"enclave_id":   h.enclaveID,
		"version":      common.Version,
	})
}

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infotechlpu/ternoa-enclaves/chain"
)

// maintenanceSpy records the set/clear sequence of an admin operation.
type maintenanceSpy struct {
	sets   []string
	clears int
}

func (m *maintenanceSpy) SetMaintenance(message string) {
	m.sets = append(m.sets, message)
}

func (m *maintenanceSpy) ClearMaintenance() {
	m.clears++
}

func adminTokenFor(t *testing.T, nftIDs []uint32, blockNumber uint32, validation uint8) (string, string) {
	t.Helper()

	vec, err := json.Marshal(nftIDs)
	require.NoError(t, err)

	hash := sha256.Sum256(vec)
	token, err := json.Marshal(AdminToken{
		BlockNumber:     blockNumber,
		BlockValidation: validation,
		DataHash:        hex.EncodeToString(hash[:]),
	})
	require.NoError(t, err)

	return string(vec), string(token)
}

func fetchPacketFor(t *testing.T, admin *testKeypair, nftIDs []uint32, blockNumber uint32, validation uint8) *FetchIDPacket {
	t.Helper()

	vec, token := adminTokenFor(t, nftIDs, blockNumber, validation)
	return &FetchIDPacket{
		AdminAddress: admin.address,
		NFTIDVec:     vec,
		AuthToken:    token,
		Signature:    admin.sign(t, token),
	}
}

func TestAdminTokenCheck(t *testing.T) {
	token := AdminToken{BlockNumber: 1000, BlockValidation: 10}

	// [995, 1015] inclusive on both ends.
	assert.Equal(t, ValidationExpiredBlockNumber, token.Check(994))
	assert.Equal(t, ValidationSuccess, token.Check(995))
	assert.Equal(t, ValidationSuccess, token.Check(1015))
	assert.Equal(t, ValidationFutureBlockNumber, token.Check(1016))

	over := AdminToken{BlockNumber: 1000, BlockValidation: MaxValidationPeriod + 1}
	assert.Equal(t, ValidationInvalidPeriod, over.Check(1000))
}

func TestVerifyFetchRequest(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	spy := &maintenanceSpy{}
	av := NewAdminVerifier([]string{admin.address}, oracle, spy, testLogger())

	packet := fetchPacketFor(t, admin, []uint32{163, 164, 165}, 1000, 10)

	payload, err := av.VerifyFetchRequest(context.Background(), packet)
	require.NoError(t, err)

	assert.Equal(t, admin.account, payload.Admin)
	assert.Equal(t, []uint32{163, 164, 165}, payload.NFTIDs)

	require.Len(t, spy.sets, 1)
	assert.Equal(t, 1, spy.clears)
}

func TestVerifyFetchRequestWrappedToken(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	av := NewAdminVerifier([]string{admin.address}, oracle, &maintenanceSpy{}, testLogger())

	vec, token := adminTokenFor(t, []uint32{163}, 1000, 10)
	wrapped := "<Bytes>" + token + "</Bytes>"
	packet := &FetchIDPacket{
		AdminAddress: admin.address,
		NFTIDVec:     vec,
		AuthToken:    wrapped,
		// The signature covers the wire field, wrapper included.
		Signature: admin.sign(t, wrapped),
	}

	_, err := av.VerifyFetchRequest(context.Background(), packet)
	require.NoError(t, err)
}

func TestVerifyFetchRequestNotWhitelisted(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	spy := &maintenanceSpy{}
	av := NewAdminVerifier([]string{"someone-else"}, oracle, spy, testLogger())

	packet := fetchPacketFor(t, admin, []uint32{163}, 1000, 10)

	_, err := av.VerifyFetchRequest(context.Background(), packet)

	var aerr *AdminError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AdminNotWhitelisted, aerr.Reason)

	// No chain traffic before the whitelist check fails.
	assert.Empty(t, oracle.Calls)
	// Maintenance was still set and cleared on the way out.
	assert.Len(t, spy.sets, 1)
	assert.Equal(t, 1, spy.clears)
}

func TestVerifyFetchRequestBadSignature(t *testing.T) {
	admin := newTestKeypair(t)
	intruder := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	av := NewAdminVerifier([]string{admin.address}, oracle, &maintenanceSpy{}, testLogger())

	packet := fetchPacketFor(t, admin, []uint32{163}, 1000, 10)
	packet.Signature = intruder.sign(t, packet.AuthToken)

	_, err := av.VerifyFetchRequest(context.Background(), packet)

	var aerr *AdminError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AdminInvalidSignature, aerr.Reason)
}

func TestVerifyFetchRequestHashMismatch(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	av := NewAdminVerifier([]string{admin.address}, oracle, &maintenanceSpy{}, testLogger())

	packet := fetchPacketFor(t, admin, []uint32{163}, 1000, 10)
	// Swap the payload after the token was built and signed.
	packet.NFTIDVec = "[164]"

	_, err := av.VerifyFetchRequest(context.Background(), packet)

	var aerr *AdminError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AdminHashMismatch, aerr.Reason)
}

func TestVerifyFetchRequestExpiredToken(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(5000)
	av := NewAdminVerifier([]string{admin.address}, oracle, &maintenanceSpy{}, testLogger())

	packet := fetchPacketFor(t, admin, []uint32{163}, 1000, 10)

	_, err := av.VerifyFetchRequest(context.Background(), packet)

	var aerr *AdminError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AdminTokenNotValid, aerr.Reason)
	assert.Equal(t, ValidationFutureBlockNumber, aerr.Result)
}

func TestVerifyFetchRequestOracleDown(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	oracle.Err = fmt.Errorf("connection refused")
	av := NewAdminVerifier([]string{admin.address}, oracle, &maintenanceSpy{}, testLogger())

	packet := fetchPacketFor(t, admin, []uint32{163}, 1000, 10)

	_, err := av.VerifyFetchRequest(context.Background(), packet)

	var aerr *AdminError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AdminTokenNotValid, aerr.Reason)
	assert.Equal(t, ValidationErrorRPCCall, aerr.Result)
}

func TestVerifyFetchRequestMalformedPayload(t *testing.T) {
	admin := newTestKeypair(t)
	oracle := chain.NewMockOracle(1001)
	av := NewAdminVerifier([]string{admin.address}, oracle, &maintenanceSpy{}, testLogger())

	// Hash binds to the malformed vector, so the hash check passes and the
	// payload parse is what fails.
	vec := "not json"
	hash := sha256.Sum256([]byte(vec))
	token, err := json.Marshal(AdminToken{
		BlockNumber:     1000,
		BlockValidation: 10,
		DataHash:        hex.EncodeToString(hash[:]),
	})
	require.NoError(t, err)

	packet := &FetchIDPacket{
		AdminAddress: admin.address,
		NFTIDVec:     vec,
		AuthToken:    string(token),
		Signature:    admin.sign(t, string(token)),
	}

	_, verr := av.VerifyFetchRequest(context.Background(), packet)

	var aerr *AdminError
	require.ErrorAs(t, verr, &aerr)
	assert.Equal(t, AdminMalformedPayload, aerr.Reason)
}

package auth

import (
	"testing"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	subkey "github.com/vedhavyas/go-subkey/v2"

	"github.com/infotechlpu/ternoa-enclaves/interfaces"
)

// testKeypair is an in-memory sr25519 account for signing test packets.
type testKeypair struct {
	secret  *schnorrkel.SecretKey
	account interfaces.Account
	address string
}

func newTestKeypair(t *testing.T) *testKeypair {
	t.Helper()

	msk, err := schnorrkel.GenerateMiniSecretKey()
	require.NoError(t, err)

	pub := msk.Public().Encode()
	account, err := interfaces.NewAccountFromBytes(pub[:])
	require.NoError(t, err)

	return &testKeypair{
		secret:  msk.ExpandEd25519(),
		account: account,
		address: subkey.SS58Encode(pub[:], interfaces.SS58Prefix),
	}
}

func (k *testKeypair) sign(t *testing.T, message string) string {
	t.Helper()

	transcript := schnorrkel.NewSigningContext([]byte("substrate"), []byte(message))
	sig, err := k.secret.Sign(transcript)
	require.NoError(t, err)

	encoded := sig.Encode()
	return hexutil.Encode(encoded[:])
}

// storePacketFor builds a fully signed store packet with a fresh ephemeral
// signer key.
func storePacketFor(t *testing.T, owner *testKeypair, data StoreKeyshareData, signerToken AuthenticationToken) *StoreKeysharePacket {
	t.Helper()

	signer := newTestKeypair(t)
	signerField := signer.address + Delimiter + signerToken.Serialize()
	dataField := data.Serialize()

	return &StoreKeysharePacket{
		OwnerAddress:  owner.address,
		SignerAddress: signerField,
		SignerSig:     owner.sign(t, signerField),
		Data:          dataField,
		Signature:     signer.sign(t, dataField),
	}
}

// retrievePacketFor builds a signed retrieve packet.
func retrievePacketFor(t *testing.T, requester *testKeypair, requesterType RequesterType, data RetrieveKeyshareData) *RetrieveKeysharePacket {
	t.Helper()

	dataField := data.Serialize()
	return &RetrieveKeysharePacket{
		RequesterAddress: requester.address,
		RequesterType:    requesterType,
		Data:             dataField,
		Signature:        requester.sign(t, dataField),
	}
}

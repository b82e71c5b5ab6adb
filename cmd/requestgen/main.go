// Command requestgen produces signed example packets for exercising the
// key-share API against a development enclave.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	subkey "github.com/vedhavyas/go-subkey/v2"

	"github.com/infotechlpu/ternoa-enclaves/auth"
)

const ss58Prefix = 42

type keypair struct {
	secret  *schnorrkel.SecretKey
	public  *schnorrkel.PublicKey
	address string
}

func newKeypair(seedHex string) (*keypair, error) {
	var msk *schnorrkel.MiniSecretKey
	var err error

	if seedHex == "" {
		msk, err = schnorrkel.GenerateMiniSecretKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
	} else {
		raw, err := hexutil.Decode(seedHex)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("seed must be a 0x-prefixed 32-byte hex string")
		}
		msk, err = schnorrkel.NewMiniSecretKeyFromRaw([32]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid seed: %w", err)
		}
	}

	public := msk.Public()
	encoded := public.Encode()

	return &keypair{
		secret:  msk.ExpandEd25519(),
		public:  public,
		address: subkey.SS58Encode(encoded[:], ss58Prefix),
	}, nil
}

func (k *keypair) sign(message string) (string, error) {
	transcript := schnorrkel.NewSigningContext([]byte("substrate"), []byte(message))
	sig, err := k.secret.Sign(transcript)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	encoded := sig.Encode()
	return hexutil.Encode(encoded[:]), nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var (
	seedFlag = &cli.StringFlag{
		Name:  "seed",
		Usage: "0x-prefixed 32-byte hex seed for the account key, random if omitted",
	}
	nftIDFlag = &cli.UintFlag{
		Name:  "nft-id",
		Value: 163,
		Usage: "asset id the packet addresses",
	}
	keyshareFlag = &cli.StringFlag{
		Name:  "keyshare",
		Value: "1234567890abcdef",
		Usage: "key-share payload for store packets",
	}
	blockFlag = &cli.UintFlag{
		Name:  "block",
		Value: 1000,
		Usage: "block number of the authentication token",
	}
	validityFlag = &cli.UintFlag{
		Name:  "validity",
		Value: 15,
		Usage: "block validation period of the authentication token",
	}
	requesterTypeFlag = &cli.StringFlag{
		Name:  "requester-type",
		Value: "OWNER",
		Usage: "claimed relationship for retrieve packets: OWNER, DELEGATEE, RENTEE or NONE",
	}
	nftIDsFlag = &cli.UintSliceFlag{
		Name:  "nft-ids",
		Usage: "asset ids for the admin bulk fetch, repeatable",
	}
)

func storePacket(cCtx *cli.Context) error {
	owner, err := newKeypair(cCtx.String(seedFlag.Name))
	if err != nil {
		return err
	}

	// The signer key is ephemeral; the owner delegates to it for the
	// token window.
	signer, err := newKeypair("")
	if err != nil {
		return err
	}

	token := auth.AuthenticationToken{
		BlockNumber:     uint32(cCtx.Uint(blockFlag.Name)),
		BlockValidation: uint32(cCtx.Uint(validityFlag.Name)),
	}

	signerField := signer.address + auth.Delimiter + token.Serialize()
	signerSig, err := owner.sign(signerField)
	if err != nil {
		return err
	}

	data := auth.StoreKeyshareData{
		NFTID:     uint32(cCtx.Uint(nftIDFlag.Name)),
		Keyshare:  []byte(cCtx.String(keyshareFlag.Name)),
		AuthToken: token,
	}
	dataField := data.Serialize()
	dataSig, err := signer.sign(dataField)
	if err != nil {
		return err
	}

	return printJSON(auth.StoreKeysharePacket{
		OwnerAddress:  owner.address,
		SignerAddress: signerField,
		SignerSig:     signerSig,
		Data:          dataField,
		Signature:     dataSig,
	})
}

func retrievePacket(cCtx *cli.Context) error {
	requester, err := newKeypair(cCtx.String(seedFlag.Name))
	if err != nil {
		return err
	}

	data := auth.RetrieveKeyshareData{
		NFTID: uint32(cCtx.Uint(nftIDFlag.Name)),
		AuthToken: auth.AuthenticationToken{
			BlockNumber:     uint32(cCtx.Uint(blockFlag.Name)),
			BlockValidation: uint32(cCtx.Uint(validityFlag.Name)),
		},
	}
	dataField := data.Serialize()
	sig, err := requester.sign(dataField)
	if err != nil {
		return err
	}

	return printJSON(auth.RetrieveKeysharePacket{
		RequesterAddress: requester.address,
		RequesterType:    auth.RequesterType(cCtx.String(requesterTypeFlag.Name)),
		Data:             dataField,
		Signature:        sig,
	})
}

func adminPacket(cCtx *cli.Context) error {
	admin, err := newKeypair(cCtx.String(seedFlag.Name))
	if err != nil {
		return err
	}

	nftIDs := make([]uint32, 0, len(cCtx.UintSlice(nftIDsFlag.Name)))
	for _, id := range cCtx.UintSlice(nftIDsFlag.Name) {
		nftIDs = append(nftIDs, uint32(id))
	}

	vec, err := json.Marshal(nftIDs)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(vec)
	token, err := json.Marshal(auth.AdminToken{
		BlockNumber:     uint32(cCtx.Uint(blockFlag.Name)),
		BlockValidation: uint8(cCtx.Uint(validityFlag.Name)),
		DataHash:        hex.EncodeToString(hash[:]),
	})
	if err != nil {
		return err
	}

	sig, err := admin.sign(string(token))
	if err != nil {
		return err
	}

	return printJSON(auth.FetchIDPacket{
		AdminAddress: admin.address,
		NFTIDVec:     string(vec),
		AuthToken:    string(token),
		Signature:    sig,
	})
}

func keypairInfo(cCtx *cli.Context) error {
	kp, err := newKeypair(cCtx.String(seedFlag.Name))
	if err != nil {
		return err
	}
	pub := kp.public.Encode()
	return printJSON(map[string]string{
		"address":    kp.address,
		"public_key": hexutil.Encode(pub[:]),
	})
}

func main() {
	app := &cli.App{
		Name:  "requestgen",
		Usage: "Generate signed key-share API packets for testing",
		Commands: []*cli.Command{
			{
				Name:   "store",
				Usage:  "generate a signed store packet",
				Flags:  []cli.Flag{seedFlag, nftIDFlag, keyshareFlag, blockFlag, validityFlag},
				Action: storePacket,
			},
			{
				Name:   "retrieve",
				Usage:  "generate a signed retrieve packet",
				Flags:  []cli.Flag{seedFlag, nftIDFlag, blockFlag, validityFlag, requesterTypeFlag},
				Action: retrievePacket,
			},
			{
				Name:   "admin",
				Usage:  "generate a signed admin bulk-fetch packet",
				Flags:  []cli.Flag{seedFlag, nftIDsFlag, blockFlag, validityFlag},
				Action: adminPacket,
			},
			{
				Name:   "keypair",
				Usage:  "print the account derived from a seed",
				Flags:  []cli.Flag{seedFlag},
				Action: keypairInfo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

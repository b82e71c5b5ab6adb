// Package auth implements the authentication and authorization core that
// gates access to per-asset key-shares held inside the enclave.
//
// A request may store or retrieve a key-share only if it carries a valid
// delegation chain, an unexpired block-window token and, for the privileged
// paths, on-chain authorization or whitelist membership.
//
// # Wire format
//
// Signed fields are flat delimiter-separated strings so that minimal wallet
// UIs can sign them as plain text:
//
//	signer field:   "<ss58 account>_<block_number>_<block_validation>"
//	store data:     "<nft_id>_<keyshare>_<block_number>_<block_validation>"
//	retrieve data:  "<nft_id>_<block_number>_<block_validation>"
//
// Some signing UIs wrap the message in a <Bytes>...</Bytes> marker pair; the
// codec strips exactly one matching pair. Signatures are sr25519 over the
// raw field bytes, hex encoded with a mandatory "0x" prefix.
//
// The cost of the flat encoding is that field content must not contain the
// delimiter character; there is no escaping.
//
// # Verification pipeline
//
// Store requests walk a two-tier delegation chain: the owner signs a grant
// naming a signer and its validity window, and the signer signs the data
// field. Retrieve requests are one-tier, signed by the requester directly.
// Both end with a per-request chain-state check of the claimed relationship
// (owner, delegatee or rentee). Admin bulk operations instead use a
// whitelist plus a hash-bound token that ties the signature to the exact
// payload.
//
// Every failure maps to a stable external status tag via Express; chain RPC
// failures are kept distinct from negative verification outcomes.
package auth

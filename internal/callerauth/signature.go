// Package callerauth authenticates the account behind an API call from an
// EIP-191 personal signature over the request.
package callerauth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	HeaderAddress   = "X-Caller-Address"
	HeaderSignature = "X-Caller-Signature"
	HeaderTimestamp = "X-Caller-Timestamp"
)

var (
	ErrMissingSignature = errors.New("missing_signature")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrCallerMismatch   = errors.New("caller_mismatch")
	ErrStaleTimestamp   = errors.New("stale_timestamp")
	ErrReplayed         = errors.New("replayed_signature")
)

// Request is the signed part of an API call.
type Request struct {
	Method    string
	URI       string
	Body      []byte
	Timestamp int64
}

// Payload is the message a caller signs, one field per line: method, request
// URI, keccak256 of the body, unix timestamp.
func (r Request) Payload() []byte {
	var b strings.Builder
	b.WriteString(strings.ToUpper(r.Method))
	b.WriteByte('\n')
	b.WriteString(r.URI)
	b.WriteByte('\n')
	b.WriteString(crypto.Keccak256Hash(r.Body).Hex())
	b.WriteByte('\n')
	b.WriteString(strconv.FormatInt(r.Timestamp, 10))
	return []byte(b.String())
}

// Digest is the EIP-191 personal-message hash of the payload, as produced by
// eth_sign and personal_sign.
func (r Request) Digest() common.Hash {
	payload := r.Payload()
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(payload))
	return crypto.Keccak256Hash([]byte(prefix), payload)
}

// Sign returns a 65-byte signature with a 27/28 recovery id.
func Sign(key *ecdsa.PrivateKey, r Request) ([]byte, error) {
	digest := r.Digest()
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the account that signed r. Recovery ids 0/1 and 27/28 are
// accepted; high-s signatures are not.
func Recover(r Request, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	normalized := append([]byte(nil), sig...)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	v := normalized[crypto.RecoveryIDOffset]
	rr := new(big.Int).SetBytes(normalized[:32])
	ss := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(v, rr, ss, true) {
		return common.Address{}, ErrInvalidSignature
	}

	digest := r.Digest()
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

package domain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// DeriveFlightKey hashes (airline, flight, timestamp) with Keccak-256 over the
// packed encoding: 20 address bytes, the raw designator bytes, and the
// timestamp as a 32-byte big-endian word.
func DeriveFlightKey(airline common.Address, flight string, timestamp uint64) common.Hash {
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], timestamp)

	h := sha3.NewLegacyKeccak256()
	h.Write(airline.Bytes())
	h.Write([]byte(flight))
	h.Write(word[:])

	var key common.Hash
	h.Sum(key[:0])
	return key
}

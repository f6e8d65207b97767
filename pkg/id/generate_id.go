package id

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// TxHashLen matches the length of a base58-encoded ed25519 signature.
const TxHashLen = 88

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
// Used for listing ids and mock wallet addresses.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewTxHash fabricates a base58 transaction signature for the mocked settlement.
func NewTxHash() string {
	out := make([]byte, TxHashLen)
	max := big.NewInt(int64(len(base58Alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = base58Alphabet[0]
			continue
		}
		out[i] = base58Alphabet[n.Int64()]
	}
	return string(out)
}

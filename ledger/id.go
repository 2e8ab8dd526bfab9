package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID returns a prefixed random identifier like "acct_9f2c41d0a3b887e1".
func NewID(prefix string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("id generation: %v", err))
	}
	return prefix + "_" + hex.EncodeToString(b[:])
}

// EntryNumber formats a per-year journal entry number, e.g. "JE-2025-00042".
func EntryNumber(year, seq int) string {
	return fmt.Sprintf("JE-%04d-%05d", year, seq)
}

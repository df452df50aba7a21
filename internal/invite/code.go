// Package invite generates the short codes people share to join a pool.
//
// The generator makes no uniqueness promise of its own. With 36^6 (~2.2
// billion) possible codes collisions are rare but real, so the pools
// table carries a UNIQUE constraint on code and the caller retries with
// a fresh code when an insert reports a duplicate.
package invite

import (
	"crypto/rand"
	"fmt"
)

// CodeLength is the fixed length of every invite code.
const CodeLength = 6

// alphabet deliberately sticks to upper-case letters and digits so codes
// survive being read aloud, typed on phones, and pasted into group chats.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewCode returns a random 6-character upper-case alphanumeric code.
//
// It reads from crypto/rand rather than math/rand: invite codes are the
// only thing standing between a pool and the public, so they should not
// be predictable from previous codes.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invite: reading random bytes: %w", err)
	}

	// Map each byte onto the alphabet. 256 is not a multiple of 36, so
	// this has a slight modulo bias; for invite codes (not keys) the
	// bias is irrelevant and the simplicity is worth it.
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return string(buf), nil
}

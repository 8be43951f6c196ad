// Package refcode generates human-readable references for sales and
// reward codes. References embed a timestamp plus a random suffix, so
// collisions are negligible without a database round trip.
package refcode

import (
	"crypto/rand"
	"fmt"
	"time"
)

// alphabet excludes ambiguous characters (0/O, 1/I/L) so codes survive
// being read over the counter or typed from a printed receipt.
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// randomSuffix returns n characters from the unambiguous alphabet.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("refcode: crypto/rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}

// NewSaleReference returns a unique sale reference, e.g.
// SALE-20260901-142530-7KQ4XM.
func NewSaleReference(now time.Time) string {
	return fmt.Sprintf("SALE-%s-%s", now.UTC().Format("20060102-150405"), randomSuffix(6))
}

// NewTokenCode returns a unique reward code, e.g. RWD-8FQ2M4TPK7VXWN3E.
// 16 characters over a 31-symbol alphabet gives ~79 bits of entropy.
func NewTokenCode() string {
	return "RWD-" + randomSuffix(16)
}

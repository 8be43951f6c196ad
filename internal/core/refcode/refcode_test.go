package refcode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSaleReference(t *testing.T) {
	now := time.Date(2026, 9, 1, 14, 25, 30, 0, time.UTC)
	ref := NewSaleReference(now)

	require.True(t, strings.HasPrefix(ref, "SALE-20260901-142530-"), ref)
	assert.Len(t, ref, len("SALE-20260901-142530-")+6)
}

func TestNewTokenCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := NewTokenCode()
		require.True(t, strings.HasPrefix(code, "RWD-"))
		require.Len(t, code, 20)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestRandomSuffix_Alphabet(t *testing.T) {
	s := randomSuffix(64)
	for _, c := range s {
		assert.Contains(t, alphabet, string(c))
	}
}

package reward_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"farmapos/internal/core/types"
	"farmapos/internal/domain/reward"
)

func TestPointsForTotal(t *testing.T) {
	cases := []struct {
		total string
		want  int64
	}{
		{"0", 0},
		{"-50.00", 0},
		{"499.99", 0},
		{"500.00", 25},
		{"999.99", 25},
		{"1000.00", 50},
		{"1499.00", 50},
		{"1500.00", 75},
		{"12345.67", 600},
	}
	for _, tc := range cases {
		t.Run(tc.total, func(t *testing.T) {
			got := reward.PointsForTotal(types.MustMoney(tc.total))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToken_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := reward.Token{ExpiresAt: now.Add(30 * 24 * time.Hour)}

	assert.False(t, token.Expired(now))
	assert.False(t, token.Expired(token.ExpiresAt), "expiry boundary is inclusive")
	assert.True(t, token.Expired(token.ExpiresAt.Add(time.Second)))
}

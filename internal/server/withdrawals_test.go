package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woomarket/console/internal/server"
	"github.com/woomarket/console/internal/store"
)

func withdrawalAt(id string, status store.WithdrawalStatus, ts time.Time) store.WithdrawalRequest {
	return store.WithdrawalRequest{ID: id, Status: status, Timestamp: ts.Format(time.RFC3339)}
}

func TestSortWithdrawals_NewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	withdrawals := map[string]store.WithdrawalRequest{
		"old":    withdrawalAt("old", store.StatusPending, base.Add(-48*time.Hour)),
		"newest": withdrawalAt("newest", store.StatusPending, base),
		"mid":    withdrawalAt("mid", store.StatusPending, base.Add(-24*time.Hour)),
	}

	sorted := server.SortWithdrawals(withdrawals)
	require.Len(t, sorted, 3)
	assert.Equal(t, "newest", sorted[0].ID)
	assert.Equal(t, "mid", sorted[1].ID)
	assert.Equal(t, "old", sorted[2].ID)
}

func TestSortWithdrawals_UnparsableTimestampsSortLast(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	withdrawals := map[string]store.WithdrawalRequest{
		"good": withdrawalAt("good", store.StatusPending, base),
		"bad":  {ID: "bad", Status: store.StatusPending, Timestamp: "not-a-time"},
	}

	sorted := server.SortWithdrawals(withdrawals)
	require.Len(t, sorted, 2)
	assert.Equal(t, "good", sorted[0].ID)
	assert.Equal(t, "bad", sorted[1].ID)
}

func TestFilterWithdrawals(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	list := []store.WithdrawalRequest{
		withdrawalAt("w1", store.StatusPending, base),
		withdrawalAt("w2", store.StatusApproved, base.Add(-time.Hour)),
		withdrawalAt("w3", store.StatusRejected, base.Add(-2*time.Hour)),
		withdrawalAt("w4", store.StatusApproved, base.Add(-3*time.Hour)),
	}

	approved := server.FilterWithdrawals(list, "approved")
	require.Len(t, approved, 2)
	for _, w := range approved {
		assert.Equal(t, store.StatusApproved, w.Status)
	}

	pending := server.FilterWithdrawals(list, "pending")
	require.Len(t, pending, 1)
	assert.Equal(t, "w1", pending[0].ID)

	// "all" keeps the full sorted list, as does anything unrecognized.
	assert.Len(t, server.FilterWithdrawals(list, "all"), 4)
	assert.Len(t, server.FilterWithdrawals(list, "bogus"), 4)
}

func TestFilterWithdrawals_Empty(t *testing.T) {
	assert.Empty(t, server.FilterWithdrawals(nil, "pending"))
	assert.Empty(t, server.FilterWithdrawals([]store.WithdrawalRequest{}, "all"))
}

package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woomarket/console/internal/store"
)

func TestMemory_AppendGeneratesIDs(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	id1, err := mem.Append(ctx, store.PathTasks, store.Task{Title: "a"})
	require.NoError(t, err)
	id2, err := mem.Append(ctx, store.PathTasks, store.Task{Title: "b"})
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2)
}

func TestMemory_SubscribeDeliversImmediatelyAndOnChange(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	var snapshots []store.Snapshot
	unsub, err := mem.Subscribe(ctx, store.PathUsers, func(snap store.Snapshot) {
		snapshots = append(snapshots, snap)
	})
	require.NoError(t, err)
	defer unsub()

	// Empty collection delivers null, like the remote store does.
	require.Len(t, snapshots, 1)
	assert.Equal(t, "null", string(snapshots[0]))

	id, err := mem.Append(ctx, store.PathUsers, store.User{FullName: "Ayesha"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	var users map[string]store.User
	require.NoError(t, json.Unmarshal(snapshots[1], &users))
	assert.Equal(t, "Ayesha", users[id].FullName)
}

func TestMemory_UnsubscribeStopsDelivery(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	count := 0
	unsub, err := mem.Subscribe(ctx, store.PathTasks, func(store.Snapshot) { count++ })
	require.NoError(t, err)
	require.Equal(t, 1, count)

	unsub()
	_, err = mem.Append(ctx, store.PathTasks, store.Task{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemory_MergeIsShallow(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	id, err := mem.Append(ctx, store.PathUsers, store.User{FullName: "Tanvir", Balance: 35, TotalEarned: 95})
	require.NoError(t, err)

	// Overwrite balance only; other fields must survive.
	require.NoError(t, mem.Merge(ctx, store.PathUsers+"/"+id, map[string]float64{"balance": 150}))

	var snapshots []store.Snapshot
	unsub, err := mem.Subscribe(ctx, store.PathUsers, func(snap store.Snapshot) {
		snapshots = append(snapshots, snap)
	})
	require.NoError(t, err)
	defer unsub()

	var users map[string]store.User
	require.NoError(t, json.Unmarshal(snapshots[0], &users))
	assert.Equal(t, 150.0, users[id].Balance)
	assert.Equal(t, "Tanvir", users[id].FullName)
	assert.Equal(t, 95.0, users[id].TotalEarned)
}

func TestMemory_MergeSingletonDocument(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Merge(ctx, store.PathConfig, store.SiteConfig{MonetagAdReward: 12.5}))

	var got store.Snapshot
	unsub, err := mem.Subscribe(ctx, store.PathConfig, func(snap store.Snapshot) { got = snap })
	require.NoError(t, err)
	defer unsub()

	var cfg store.SiteConfig
	require.NoError(t, json.Unmarshal(got, &cfg))
	assert.Equal(t, 12.5, cfg.MonetagAdReward)
}

func TestMemory_Remove(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	id, err := mem.Append(ctx, store.PathWithdrawals, store.WithdrawalRequest{Amount: 100})
	require.NoError(t, err)
	require.NoError(t, mem.Remove(ctx, store.PathWithdrawals+"/"+id))

	var got store.Snapshot
	unsub, err := mem.Subscribe(ctx, store.PathWithdrawals, func(snap store.Snapshot) { got = snap })
	require.NoError(t, err)
	defer unsub()

	assert.Equal(t, "null", string(got))
}

func TestMemory_RejectsDeepPaths(t *testing.T) {
	mem := store.NewMemory()
	err := mem.Merge(context.Background(), "users/u1/profile", map[string]string{"x": "y"})
	assert.Error(t, err)
}

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woomarket/console/internal/store"
)

func TestDecodeCollection(t *testing.T) {
	setID := func(task *store.Task, id string) { task.ID = id }

	t.Run("nil and null snapshots decode to empty maps", func(t *testing.T) {
		for _, snap := range []store.Snapshot{nil, store.Snapshot("null")} {
			tasks, err := store.DecodeCollection(snap, setID)
			require.NoError(t, err)
			assert.Empty(t, tasks)
		}
	})

	t.Run("identifiers fold into entities", func(t *testing.T) {
		snap := store.Snapshot(`{"t1":{"title":"Join","reward":2},"t2":{"title":"Sub","reward":3}}`)
		tasks, err := store.DecodeCollection(snap, setID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "t1", tasks["t1"].ID)
		assert.Equal(t, "Join", tasks["t1"].Title)
		assert.Equal(t, 3.0, tasks["t2"].Reward)
	})

	t.Run("malformed snapshots error", func(t *testing.T) {
		_, err := store.DecodeCollection(store.Snapshot(`[1,2,3]`), setID)
		assert.Error(t, err)
	})
}

func TestTaskCategoryIcon(t *testing.T) {
	assert.Equal(t, "📺", store.CategoryYouTube.Icon())
	assert.Equal(t, "✈️", store.CategoryTelegram.Icon())
	assert.Equal(t, "👥", store.CategoryFacebook.Icon())
	assert.Equal(t, "⭐", store.CategoryOther.Icon())
	assert.Equal(t, "⭐", store.TaskCategory("unknown").Icon())
}

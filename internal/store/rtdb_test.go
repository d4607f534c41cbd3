package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woomarket/console/internal/logger"
	"github.com/woomarket/console/internal/store"
)

func newRTDB(t *testing.T, baseURL, token string) *store.RTDB {
	t.Helper()
	client, err := store.NewRTDB(store.RTDBConfig{
		BaseURL:   baseURL,
		AuthToken: token,
		Logger:    logger.New(false),
	})
	require.NoError(t, err)
	return client
}

func TestRTDB_Merge(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.URL.Query().Get("auth")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	client := newRTDB(t, srv.URL, "secret")
	err := client.Merge(context.Background(), "users/u1", map[string]float64{"balance": 150})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/users/u1.json", gotPath)
	assert.Equal(t, "secret", gotAuth)
	assert.JSONEq(t, `{"balance":150}`, string(gotBody))
}

func TestRTDB_Append(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks.json", r.URL.Path)
		fmt.Fprint(w, `{"name":"-Nabc123"}`)
	}))
	defer srv.Close()

	client := newRTDB(t, srv.URL, "")
	id, err := client.Append(context.Background(), "tasks", store.Task{Title: "Sub"})
	require.NoError(t, err)
	assert.Equal(t, "-Nabc123", id)
}

func TestRTDB_Remove(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		fmt.Fprint(w, "null")
	}))
	defer srv.Close()

	client := newRTDB(t, srv.URL, "")
	require.NoError(t, client.Remove(context.Background(), "withdrawal_requests/w1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/withdrawal_requests/w1.json", gotPath)
}

func TestRTDB_MutationErrorsSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newRTDB(t, srv.URL, "")
	err := client.Merge(context.Background(), "config", map[string]string{"monetagZoneId": "z"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRTDB_SubscribeDeliversRootPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "event: put\ndata: {\"path\":\"/\",\"data\":{\"t1\":{\"title\":\"Join\"}}}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := newRTDB(t, srv.URL, "")

	snapshots := make(chan store.Snapshot, 1)
	unsub, err := client.Subscribe(context.Background(), "tasks", func(snap store.Snapshot) {
		snapshots <- snap
	})
	require.NoError(t, err)
	defer unsub()

	select {
	case snap := <-snapshots:
		var tasks map[string]store.Task
		require.NoError(t, json.Unmarshal(snap, &tasks))
		assert.Equal(t, "Join", tasks["t1"].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestRTDB_SubscribeRereadsOnChildEvent(t *testing.T) {
	full := `{"u1":{"fullName":"Ayesha","balance":120.5}}`

	mux := http.NewServeMux()
	mux.HandleFunc("/users.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "text/event-stream" {
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			// Initial root put, then a child-path patch that should force a
			// full re-read.
			fmt.Fprint(w, "event: put\ndata: {\"path\":\"/\",\"data\":null}\n\n")
			flusher.Flush()
			fmt.Fprint(w, "event: patch\ndata: {\"path\":\"/u1\",\"data\":{\"balance\":120.5}}\n\n")
			flusher.Flush()
			<-r.Context().Done()
			return
		}
		fmt.Fprint(w, full)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newRTDB(t, srv.URL, "")

	snapshots := make(chan store.Snapshot, 2)
	unsub, err := client.Subscribe(context.Background(), "users", func(snap store.Snapshot) {
		snapshots <- snap
	})
	require.NoError(t, err)
	defer unsub()

	// First delivery is the (null) root put.
	select {
	case snap := <-snapshots:
		assert.Equal(t, "null", string(snap))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}

	// Second delivery is the re-read full document.
	select {
	case snap := <-snapshots:
		assert.JSONEq(t, full, string(snap))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for re-read snapshot")
	}
}

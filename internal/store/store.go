// Package store defines the document types held in the remote realtime store
// and the client interface the console uses to read and mutate them.
//
// The store is the single external collaborator of the whole system: four
// top-level collections (config, tasks, users, withdrawal_requests), each a
// mapping from a store-generated identifier to one document. Every console
// mutation is delegated verbatim to one of the primitives below; the console
// performs no cross-entity bookkeeping of its own.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Snapshot is the raw decoded value of one collection or document as
// delivered by the store: nil and absent are equivalent to empty.
type Snapshot = json.RawMessage

// ChangeFunc receives the full current state of a subscribed path,
// immediately on subscribe and again on every subsequent external change.
type ChangeFunc func(Snapshot)

// UnsubscribeFunc tears down one subscription.
type UnsubscribeFunc func()

// Store is the document store client. Mutations are single-shot: callers
// surface failures to the operator and never retry.
type Store interface {
	// Subscribe registers onChange for path. onChange is invoked with the
	// full current state once the subscription is established and again on
	// every subsequent change. The returned func cancels the subscription.
	Subscribe(ctx context.Context, path string, onChange ChangeFunc) (UnsubscribeFunc, error)

	// Merge shallow-merges fields into the document at path, creating the
	// path if absent. Fields outside the given set are left untouched.
	Merge(ctx context.Context, path string, fields any) error

	// Append inserts doc into the collection at path under a
	// store-generated unique identifier, returned on success.
	Append(ctx context.Context, path string, doc any) (string, error)

	// Remove deletes the document or entity at path outright.
	Remove(ctx context.Context, path string) error
}

// DecodeCollection decodes a collection snapshot into a map of T keyed by
// identifier, folding the key into each entity via setID. A nil or "null"
// snapshot decodes to an empty map.
func DecodeCollection[T any](snap Snapshot, setID func(*T, string)) (map[string]T, error) {
	out := make(map[string]T)
	if len(snap) == 0 || string(snap) == "null" {
		return out, nil
	}
	var raw map[string]T
	if err := json.Unmarshal(snap, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode collection snapshot: %w", err)
	}
	for id, entity := range raw {
		setID(&entity, id)
		out[id] = entity
	}
	return out, nil
}

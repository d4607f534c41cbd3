package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by dev mode and tests. Documents are
// addressed by the same path convention as the remote store; only the two
// levels the console uses (collection, collection/id) are supported.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage // collection -> id -> document

	subMu  sync.Mutex
	nextID int
	subs   map[int]memorySub
}

type memorySub struct {
	collection string
	onChange   ChangeFunc
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]json.RawMessage),
		subs: make(map[int]memorySub),
	}
}

// splitPath returns the collection and optional document id of path.
func splitPath(path string) (collection, id string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("unsupported path depth: %s", path)
	}
}

func (m *Memory) snapshot(collection string) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.data[collection]
	if len(docs) == 0 {
		return Snapshot("null")
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return Snapshot("null")
	}
	return Snapshot(data)
}

// notify delivers the current full snapshot of collection to its subscribers.
func (m *Memory) notify(collection string) {
	snap := m.snapshot(collection)
	m.subMu.Lock()
	var targets []ChangeFunc
	for _, sub := range m.subs {
		if sub.collection == collection {
			targets = append(targets, sub.onChange)
		}
	}
	m.subMu.Unlock()
	for _, fn := range targets {
		fn(snap)
	}
}

func (m *Memory) Subscribe(ctx context.Context, path string, onChange ChangeFunc) (UnsubscribeFunc, error) {
	collection, id, err := splitPath(path)
	if err != nil || id != "" {
		return nil, fmt.Errorf("subscribe %s: only collection subscriptions are supported", path)
	}

	m.subMu.Lock()
	m.nextID++
	subID := m.nextID
	m.subs[subID] = memorySub{collection: collection, onChange: onChange}
	m.subMu.Unlock()

	onChange(m.snapshot(collection))

	return func() {
		m.subMu.Lock()
		delete(m.subs, subID)
		m.subMu.Unlock()
	}, nil
}

func (m *Memory) Merge(ctx context.Context, path string, fields any) error {
	collection, id, err := splitPath(path)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}

	patch, err := toObject(fields)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}

	m.mu.Lock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	if id == "" {
		// Singleton document collections (config) keep fields at the top
		// level; each field behaves as its own entry.
		for k, v := range patch {
			m.data[collection][k] = v
		}
	} else {
		current, _ := toObject(m.data[collection][id])
		if current == nil {
			current = make(map[string]json.RawMessage)
		}
		for k, v := range patch {
			current[k] = v
		}
		merged, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("merge %s: %w", path, err)
		}
		m.data[collection][id] = merged
	}
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

func (m *Memory) Append(ctx context.Context, path string, doc any) (string, error) {
	collection, id, err := splitPath(path)
	if err != nil || id != "" {
		return "", fmt.Errorf("append %s: not a collection path", path)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("append %s: %w", path, err)
	}

	newID := uuid.NewString()
	m.mu.Lock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][newID] = data
	m.mu.Unlock()

	m.notify(collection)
	return newID, nil
}

func (m *Memory) Remove(ctx context.Context, path string) error {
	collection, id, err := splitPath(path)
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	m.mu.Lock()
	if id == "" {
		delete(m.data, collection)
	} else {
		delete(m.data[collection], id)
	}
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

// toObject converts any JSON-marshalable value into a field map.
func toObject(v any) (map[string]json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	var data []byte
	switch t := v.(type) {
	case json.RawMessage:
		if len(t) == 0 || string(t) == "null" {
			return nil, nil
		}
		data = t
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return obj, nil
}

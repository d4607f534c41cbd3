package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/woomarket/console/internal/retry"
)

// RTDBConfig configures the realtime database client.
type RTDBConfig struct {
	// BaseURL is the database root, e.g. https://example-default-rtdb.firebaseio.com
	BaseURL string
	// AuthToken, when set, is passed as the auth query parameter on every request.
	AuthToken string
	// Logger is required.
	Logger *slog.Logger
	// HTTPClient defaults to a client with a 15s timeout. The streaming
	// subscription always uses an untimed client regardless.
	HTTPClient *http.Client
}

func (c *RTDBConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return nil
}

// RTDB is a Store backed by a Firebase-compatible realtime database over its
// REST surface: GET/PATCH/POST/DELETE on <base>/<path>.json, and streaming
// change subscriptions via Server-Sent Events.
type RTDB struct {
	cfg      RTDBConfig
	log      *slog.Logger
	streamer *http.Client
}

func NewRTDB(cfg RTDBConfig) (*RTDB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rtdb config: %w", err)
	}
	return &RTDB{
		cfg: cfg,
		log: cfg.Logger,
		// No timeout: the SSE stream is expected to stay open indefinitely.
		streamer: &http.Client{},
	}, nil
}

func (r *RTDB) pathURL(path string) string {
	u := strings.TrimSuffix(r.cfg.BaseURL, "/") + "/" + path + ".json"
	if r.cfg.AuthToken != "" {
		u += "?auth=" + url.QueryEscape(r.cfg.AuthToken)
	}
	return u
}

// statusError carries a non-2xx response status.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("store returned status %d: %s", e.code, e.body)
}

func (e *statusError) StatusCode() int { return e.code }

func (r *RTDB) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.pathURL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// Merge shallow-merges fields into the document at path via PATCH.
func (r *RTDB) Merge(ctx context.Context, path string, fields any) error {
	if _, err := r.do(ctx, http.MethodPatch, path, fields); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

// Append POSTs doc to the collection at path and returns the generated id.
func (r *RTDB) Append(ctx context.Context, path string, doc any) (string, error) {
	data, err := r.do(ctx, http.MethodPost, path, doc)
	if err != nil {
		return "", fmt.Errorf("append %s: %w", path, err)
	}
	var result struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("append %s: failed to decode response: %w", path, err)
	}
	return result.Name, nil
}

// Remove deletes the document at path via DELETE.
func (r *RTDB) Remove(ctx context.Context, path string) error {
	if _, err := r.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Subscribe opens an SSE stream for path and delivers full snapshots to
// onChange. The stream reconnects with backoff until ctx is done or the
// returned unsubscribe func is called. Mutations elsewhere are never retried;
// this reconnect loop is transport-level only, standing in for the reference
// SDK's built-in connection management.
func (r *RTDB) Subscribe(ctx context.Context, path string, onChange ChangeFunc) (UnsubscribeFunc, error) {
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		backoff := retry.NewBackoff(500*time.Millisecond, 30*time.Second)
		for {
			err := r.stream(subCtx, path, onChange, backoff)
			if subCtx.Err() != nil {
				return
			}
			delay := backoff.Next()
			r.log.Warn("store stream interrupted, reconnecting",
				"path", path, "delay", delay, "error", err)
			select {
			case <-subCtx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()

	return UnsubscribeFunc(cancel), nil
}

// stream runs one SSE connection until it fails or ctx is done.
func (r *RTDB) stream(ctx context.Context, path string, onChange ChangeFunc, backoff *retry.Backoff) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.pathURL(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.streamer.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	r.log.Debug("store stream connected", "path", path)
	backoff.Reset()

	var event string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if err := r.handleEvent(ctx, path, event, data, onChange); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return fmt.Errorf("stream closed by store")
}

// handleEvent turns one SSE event into a full-snapshot delivery. A put at the
// root carries the complete document and is delivered as-is; any sub-path put
// or patch triggers a full re-read so subscribers always see whole snapshots.
func (r *RTDB) handleEvent(ctx context.Context, path, event, data string, onChange ChangeFunc) error {
	switch event {
	case "put", "patch":
		var payload struct {
			Path string          `json:"path"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return fmt.Errorf("failed to decode stream event: %w", err)
		}
		if event == "put" && payload.Path == "/" {
			onChange(Snapshot(payload.Data))
			return nil
		}
		full, err := r.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return fmt.Errorf("failed to re-read %s after %s event: %w", path, event, err)
		}
		onChange(Snapshot(full))
		return nil
	case "keep-alive":
		return nil
	case "cancel", "auth_revoked":
		return fmt.Errorf("stream terminated by store: %s", event)
	default:
		return nil
	}
}

// Package member keeps track of which phone numbers may talk to the AI.
//
// Registered numbers get AI replies. Unregistered numbers are remembered so the
// admin is pinged once per process lifetime for each of them.
package member

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/arisu/internal/util"
	"github.com/hrygo/arisu/store"
)

// Service is the member registry contract used by the dispatcher.
type Service interface {
	// IsRegistered reports whether id may trigger AI replies.
	IsRegistered(id string) bool
	// RegisterIfAbsent adds id to the registered set and drops it from the
	// unregistered one. It reports whether id was newly registered.
	RegisterIfAbsent(ctx context.Context, id string) (bool, error)
	// MarkSeenUnregistered remembers id as seen but not approved. It reports
	// true only the first time id is seen by this process.
	MarkSeenUnregistered(ctx context.Context, id string) (bool, error)
	// Registered lists registered ids in registration order.
	Registered() []string
	// Unregistered lists seen but unapproved ids in the order they were seen.
	Unregistered() []string
}

// ErrInvalidNumber is returned for ids without any digits.
var ErrInvalidNumber = errors.New("invalid phone number")

// snapshot is the persisted members document.
type snapshot struct {
	Registered   []entry `json:"registered"`
	Unregistered []entry `json:"unregistered"`
}

// entry accepts both "62811..." and the older {"number": "62811..."} form.
type entry string

func (e *entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var legacy struct {
			Number json.RawMessage `json:"number"`
		}
		if err := json.Unmarshal(data, &legacy); err != nil {
			return err
		}
		data = legacy.Number
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*e = entry(v)
	case float64:
		*e = entry(fmt.Sprintf("%.0f", v))
	case nil:
		*e = ""
	default:
		return fmt.Errorf("unexpected member entry %s", string(data))
	}
	return nil
}

// Registry is the snapshot-backed Service.
type Registry struct {
	store *store.Store

	mu           sync.RWMutex
	registered   []string
	unregistered []string
	// notified is never persisted, so a restart pings the admin once more.
	notified map[string]struct{}
}

// NewRegistry creates an empty registry. Call Load to read the snapshot.
func NewRegistry(s *store.Store) *Registry {
	return &Registry{
		store:    s,
		notified: make(map[string]struct{}),
	}
}

// Load replaces the in-memory sets with the persisted snapshot. Entries are
// normalized, deduplicated, and registered numbers win over unregistered ones.
func (r *Registry) Load(ctx context.Context) error {
	var doc snapshot
	if _, err := r.store.ReadJSON(ctx, store.MembersKey, &doc); err != nil {
		return errors.Wrap(err, "failed to load members")
	}

	registered := normalizeEntries(doc.Registered, nil)
	unregistered := normalizeEntries(doc.Unregistered, registered)

	r.mu.Lock()
	r.registered = registered
	r.unregistered = unregistered
	r.mu.Unlock()

	slog.Info("members loaded", "registered", len(registered), "unregistered", len(unregistered))
	return nil
}

func normalizeEntries(entries []entry, exclude []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		id := util.NormalizePhoneNumber(string(e))
		if id == "" || slices.Contains(out, id) || slices.Contains(exclude, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (r *Registry) IsRegistered(id string) bool {
	id = util.NormalizePhoneNumber(id)
	if id == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.registered, id)
}

func (r *Registry) RegisterIfAbsent(ctx context.Context, id string) (bool, error) {
	id = util.NormalizePhoneNumber(id)
	if id == "" {
		return false, ErrInvalidNumber
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.registered, id) {
		return false, nil
	}
	r.registered = append(r.registered, id)
	r.unregistered = slices.DeleteFunc(r.unregistered, func(v string) bool { return v == id })

	if err := r.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Registry) MarkSeenUnregistered(ctx context.Context, id string) (bool, error) {
	id = util.NormalizePhoneNumber(id)
	if id == "" {
		return false, ErrInvalidNumber
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.registered, id) {
		return false, nil
	}

	_, notified := r.notified[id]
	r.notified[id] = struct{}{}

	if slices.Contains(r.unregistered, id) {
		return !notified, nil
	}
	r.unregistered = append(r.unregistered, id)
	if err := r.persistLocked(ctx); err != nil {
		return !notified, err
	}
	return !notified, nil
}

func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.registered)
}

func (r *Registry) Unregistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.unregistered)
}

func (r *Registry) persistLocked(ctx context.Context) error {
	doc := snapshot{
		Registered:   toEntries(r.registered),
		Unregistered: toEntries(r.unregistered),
	}
	if err := r.store.WriteJSON(ctx, store.MembersKey, doc); err != nil {
		return errors.Wrap(err, "failed to save members")
	}
	return nil
}

func toEntries(ids []string) []entry {
	out := make([]entry, len(ids))
	for i, id := range ids {
		out[i] = entry(id)
	}
	return out
}

// Ensure Registry implements Service
var _ Service = (*Registry)(nil)

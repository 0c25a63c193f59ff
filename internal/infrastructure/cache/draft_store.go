package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultDraftPrefix namespaces draft keys in Redis
const DefaultDraftPrefix = "byom:draft:"

// redisDraft is the Redis value of a draft
type redisDraft struct {
	Payload        json.RawMessage `json:"payload"`
	SelectedAssets []string        `json:"selected_assets"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RedisDraftStore implements byom.DraftRepository in Redis. Drafts expire
// after ttl without writes; zero keeps them forever.
type RedisDraftStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisDraftStore creates a draft store on an existing Redis client
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, keyPrefix: DefaultDraftPrefix, ttl: ttl}
}

func (s *RedisDraftStore) key(k byom.DraftKey) string {
	return s.keyPrefix + k.OwnerKey + ":" + k.MerchType.String()
}

// Load returns the draft stored under key
func (s *RedisDraftStore) Load(ctx context.Context, key byom.DraftKey) (*byom.Draft, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	var v redisDraft
	if err := json.Unmarshal(raw, &v); err != nil {
		// An unreadable value is treated as a corrupt payload, which decodes to defaults
		v = redisDraft{Payload: json.RawMessage(raw)}
	}
	return &byom.Draft{
		OwnerKey:       key.OwnerKey,
		MerchType:      key.MerchType,
		Payload:        v.Payload,
		SelectedAssets: nonNil(v.SelectedAssets),
		UpdatedAt:      v.UpdatedAt,
	}, nil
}

// Save overwrites the draft and refreshes its TTL
func (s *RedisDraftStore) Save(ctx context.Context, draft *byom.Draft) error {
	payload := draft.Payload
	if !json.Valid(payload) {
		// keep the bytes as a JSON string so the envelope stays decodable
		quoted, _ := json.Marshal(string(payload))
		payload = quoted
	}
	b, err := json.Marshal(redisDraft{
		Payload:        payload,
		SelectedAssets: nonNil(draft.SelectedAssets),
		UpdatedAt:      stamp(draft.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(draft.Key()), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Delete removes the draft stored under key
func (s *RedisDraftStore) Delete(ctx context.Context, key byom.DraftKey) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// InMemoryDraftStore implements byom.DraftRepository in process memory.
// Drafts are lost on restart.
type InMemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[byom.DraftKey]byom.Draft
}

// NewInMemoryDraftStore creates an empty in-memory draft store
func NewInMemoryDraftStore() *InMemoryDraftStore {
	return &InMemoryDraftStore{drafts: make(map[byom.DraftKey]byom.Draft)}
}

// Load returns a copy of the draft stored under key
func (s *InMemoryDraftStore) Load(ctx context.Context, key byom.DraftKey) (*byom.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyDraft(d), nil
}

// Save stores a copy of draft
func (s *InMemoryDraftStore) Save(ctx context.Context, draft *byom.Draft) error {
	d := *copyDraft(*draft)
	d.UpdatedAt = stamp(d.UpdatedAt)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.Key()] = d
	return nil
}

// Delete removes the draft stored under key
func (s *InMemoryDraftStore) Delete(ctx context.Context, key byom.DraftKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}

func copyDraft(d byom.Draft) *byom.Draft {
	d.Payload = append([]byte(nil), d.Payload...)
	d.SelectedAssets = append([]string{}, d.SelectedAssets...)
	return &d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

var (
	_ byom.DraftRepository = (*RedisDraftStore)(nil)
	_ byom.DraftRepository = (*InMemoryDraftStore)(nil)
)

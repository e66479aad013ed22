package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/fintrack-go/internal/core/domain"
)

// Reserved credential keys. Only CredentialStore writes under these names.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserInfo     = "user_info"
)

var credentialKeys = [][]byte{
	[]byte(KeyAccessToken),
	[]byte(KeyRefreshToken),
	[]byte(KeyUserInfo),
}

// envelope wraps every stored value with the ID of the write that produced it.
type envelope struct {
	RecordID string `json:"rid"`
	Value    []byte `json:"val"`
}

// CredentialStore persists a domain.CredentialRecord under the three reserved keys.
type CredentialStore struct {
	engine KVEngine
	sealer Sealer
	logger *slog.Logger
}

// CredentialOption configures a CredentialStore.
type CredentialOption func(*CredentialStore)

// WithSealer sets the at-rest sealer. Default: PlainSealer.
func WithSealer(s Sealer) CredentialOption {
	return func(c *CredentialStore) {
		if s != nil {
			c.sealer = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CredentialOption {
	return func(c *CredentialStore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCredentialStore creates a credential store over engine.
func NewCredentialStore(engine KVEngine, opts ...CredentialOption) *CredentialStore {
	c := &CredentialStore{
		engine: engine,
		sealer: PlainSealer{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Write replaces all three fields in one atomic batch.
func (c *CredentialStore) Write(ctx context.Context, rec *domain.CredentialRecord) error {
	if rec == nil {
		return domain.ErrInvalidArgument.WithDetails("nil credential record")
	}
	if err := rec.Session().Validate(); err != nil {
		return err
	}

	userInfo, err := json.Marshal(rec.UserInfo)
	if err != nil {
		return domain.ErrStorage.WithDetails("encode user_info").WithCause(err)
	}

	rid := ulid.Make().String()
	batch := new(Batch)
	for _, kv := range []struct {
		key   string
		value []byte
	}{
		{KeyAccessToken, []byte(rec.AccessToken)},
		{KeyRefreshToken, []byte(rec.RefreshToken)},
		{KeyUserInfo, userInfo},
	} {
		sealed, err := c.wrap(rid, kv.key, kv.value)
		if err != nil {
			return domain.ErrStorage.WithDetails("seal " + kv.key).WithCause(err)
		}
		batch.Put([]byte(kv.key), sealed)
	}

	if err := c.engine.WriteBatch(ctx, batch); err != nil {
		c.logger.Error("credential write failed", "error", err)
		return domain.ErrStorage.WithDetails("write credential record").WithCause(err)
	}

	c.logger.Debug("credential record written", "record_id", rid)
	return nil
}

// Read returns the stored record, or nil when any of the three fields is absent.
// A record whose fields come from different writes, or that cannot be decoded,
// fails with domain.ErrCredentialCorrupt.
func (c *CredentialStore) Read(ctx context.Context) (*domain.CredentialRecord, error) {
	values, err := c.engine.GetMany(ctx, credentialKeys)
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("read credential record").WithCause(err)
	}
	if len(values) != len(credentialKeys) {
		if len(values) > 0 {
			c.logger.Warn("incomplete credential record ignored", "present_fields", len(values))
		}
		return nil, nil
	}

	var (
		rid    string
		fields = make(map[string][]byte, len(credentialKeys))
	)
	for _, key := range credentialKeys {
		env, err := c.unwrap(string(key), values[string(key)])
		if err != nil {
			return nil, domain.ErrCredentialCorrupt.WithDetails(string(key)).WithCause(err)
		}
		if rid == "" {
			rid = env.RecordID
		} else if env.RecordID != rid {
			return nil, domain.ErrCredentialCorrupt.WithDetails(
				fmt.Sprintf("%s belongs to record %s, expected %s", key, env.RecordID, rid))
		}
		fields[string(key)] = env.Value
	}

	rec := &domain.CredentialRecord{
		AccessToken:  string(fields[KeyAccessToken]),
		RefreshToken: string(fields[KeyRefreshToken]),
	}
	if err := json.Unmarshal(fields[KeyUserInfo], &rec.UserInfo); err != nil {
		return nil, domain.ErrCredentialCorrupt.WithDetails("decode user_info").WithCause(err)
	}
	if err := rec.Session().Validate(); err != nil {
		return nil, domain.ErrCredentialCorrupt.WithDetails("incomplete field values").WithCause(err)
	}
	return rec, nil
}

// Clear removes all three fields. Clearing an empty store is not an error.
func (c *CredentialStore) Clear(ctx context.Context) error {
	batch := new(Batch)
	for _, key := range credentialKeys {
		batch.Delete(key)
	}
	if err := c.engine.WriteBatch(ctx, batch); err != nil {
		c.logger.Error("credential clear failed", "error", err)
		return domain.ErrStorage.WithDetails("clear credential record").WithCause(err)
	}
	return nil
}

// Close closes the underlying engine.
func (c *CredentialStore) Close() error {
	return c.engine.Close()
}

func (c *CredentialStore) wrap(rid, key string, value []byte) ([]byte, error) {
	data, err := json.Marshal(envelope{RecordID: rid, Value: value})
	if err != nil {
		return nil, err
	}
	return c.sealer.Seal(key, data)
}

func (c *CredentialStore) unwrap(key string, sealed []byte) (*envelope, error) {
	data, err := c.sealer.Open(key, sealed)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.RecordID == "" {
		return nil, fmt.Errorf("missing record id")
	}
	return &env, nil
}

package storage_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/storage"
	"github.com/yndnr/fintrack-go/internal/storage/memory"
)

func testRecord(access, refresh string) *domain.CredentialRecord {
	return &domain.CredentialRecord{
		AccessToken:  access,
		RefreshToken: refresh,
		UserInfo: domain.Identity{
			ID:        "1",
			Email:     "a@x.com",
			FirstName: "Ann",
			LastName:  "Lee",
			UserType:  "personal",
		},
	}
}

// failingEngine wraps an engine and fails writes on demand.
type failingEngine struct {
	storage.KVEngine
	failWrites bool
}

func (f *failingEngine) WriteBatch(ctx context.Context, b *storage.Batch) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.KVEngine.WriteBatch(ctx, b)
}

func TestCredentialStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	store := storage.NewCredentialStore(memory.New())

	rec, err := store.Read(ctx)
	if err != nil || rec != nil {
		t.Fatalf("Read() on empty store = (%v, %v), want (nil, nil)", rec, err)
	}

	want := testRecord("A1", "R1")
	if err := store.Write(ctx, want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}

	// A second write replaces every field.
	next := testRecord("A2", "R2")
	next.UserInfo.FirstName = "Anna"
	if err := store.Write(ctx, next); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Read(ctx)
	if *got != *next {
		t.Errorf("Read() after replace = %+v, want %+v", got, next)
	}
}

func TestCredentialStore_WriteRejectsPartialRecord(t *testing.T) {
	ctx := context.Background()
	engine := memory.New()
	store := storage.NewCredentialStore(engine)

	partials := []*domain.CredentialRecord{
		nil,
		testRecord("", "R1"),
		testRecord("A1", ""),
		{AccessToken: "A1", RefreshToken: "R1"},
	}
	for i, rec := range partials {
		if err := store.Write(ctx, rec); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("partial %d: Write() = %v, want ErrInvalidArgument", i, err)
		}
	}
	if engine.Len() != 0 {
		t.Errorf("rejected writes left %d keys behind", engine.Len())
	}
}

func TestCredentialStore_ReadIncompleteIsNoSession(t *testing.T) {
	for _, missing := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUserInfo} {
		t.Run(missing, func(t *testing.T) {
			ctx := context.Background()
			engine := memory.New()
			store := storage.NewCredentialStore(engine)

			if err := store.Write(ctx, testRecord("A1", "R1")); err != nil {
				t.Fatal(err)
			}
			if err := engine.WriteBatch(ctx, new(storage.Batch).Delete([]byte(missing))); err != nil {
				t.Fatal(err)
			}

			rec, err := store.Read(ctx)
			if err != nil || rec != nil {
				t.Errorf("Read() = (%v, %v), want (nil, nil)", rec, err)
			}
		})
	}
}

func TestCredentialStore_DetectsTornWrite(t *testing.T) {
	ctx := context.Background()
	engine := memory.New()
	store := storage.NewCredentialStore(engine)

	if err := store.Write(ctx, testRecord("A1", "R1")); err != nil {
		t.Fatal(err)
	}
	oldAccess, err := engine.Get(ctx, []byte(storage.KeyAccessToken))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, testRecord("A2", "R2")); err != nil {
		t.Fatal(err)
	}

	// Simulate a medium that persisted only part of the second write.
	if err := engine.Set(ctx, []byte(storage.KeyAccessToken), oldAccess); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Read(ctx); !errors.Is(err, domain.ErrCredentialCorrupt) {
		t.Errorf("Read() = %v, want ErrCredentialCorrupt", err)
	}
}

func TestCredentialStore_UndecodableValue(t *testing.T) {
	ctx := context.Background()
	engine := memory.New()
	store := storage.NewCredentialStore(engine)

	if err := store.Write(ctx, testRecord("A1", "R1")); err != nil {
		t.Fatal(err)
	}
	if err := engine.Set(ctx, []byte(storage.KeyUserInfo), []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read(ctx); !errors.Is(err, domain.ErrCredentialCorrupt) {
		t.Errorf("Read() = %v, want ErrCredentialCorrupt", err)
	}
}

func TestCredentialStore_Clear(t *testing.T) {
	ctx := context.Background()
	engine := memory.New()
	store := storage.NewCredentialStore(engine)

	if err := store.Write(ctx, testRecord("A1", "R1")); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear() #%d error = %v", i+1, err)
		}
	}
	if rec, _ := store.Read(ctx); rec != nil {
		t.Errorf("Read() after Clear = %+v, want nil", rec)
	}
	if engine.Len() != 0 {
		t.Errorf("Clear() left %d keys", engine.Len())
	}
}

func TestCredentialStore_WriteFailureKeepsPreviousRecord(t *testing.T) {
	ctx := context.Background()
	engine := &failingEngine{KVEngine: memory.New()}
	store := storage.NewCredentialStore(engine)

	prev := testRecord("A1", "R1")
	if err := store.Write(ctx, prev); err != nil {
		t.Fatal(err)
	}

	engine.failWrites = true
	if err := store.Write(ctx, testRecord("A2", "R2")); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("Write() = %v, want ErrStorage", err)
	}
	if err := store.Clear(ctx); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("Clear() = %v, want ErrStorage", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *prev {
		t.Errorf("Read() = %+v, want previous record %+v", got, prev)
	}
}

func TestCredentialStore_Sealed(t *testing.T) {
	ctx := context.Background()
	engine := memory.New()

	sealer, err := storage.NewPassphraseSealer(ctx, engine, []byte("correct horse"))
	if err != nil {
		t.Fatalf("NewPassphraseSealer() error = %v", err)
	}
	store := storage.NewCredentialStore(engine, storage.WithSealer(sealer))

	want := testRecord("access-secret", "refresh-secret")
	if err := store.Write(ctx, want); err != nil {
		t.Fatal(err)
	}

	raw, _ := engine.Get(ctx, []byte(storage.KeyRefreshToken))
	if bytes.Contains(raw, []byte("refresh-secret")) {
		t.Error("refresh token stored in clear text")
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}

	// Same salt, same passphrase: a fresh sealer opens the record.
	again, err := storage.NewPassphraseSealer(ctx, engine, []byte("correct horse"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storage.NewCredentialStore(engine, storage.WithSealer(again)).Read(ctx); err != nil {
		t.Errorf("Read() with re-derived key = %v", err)
	}

	wrong, err := storage.NewPassphraseSealer(ctx, engine, []byte("battery staple"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storage.NewCredentialStore(engine, storage.WithSealer(wrong)).Read(ctx); !errors.Is(err, domain.ErrCredentialCorrupt) {
		t.Errorf("Read() with wrong passphrase = %v, want ErrCredentialCorrupt", err)
	}
}

func TestCredentialStore_SealedValuesBoundToKey(t *testing.T) {
	ctx := context.Background()
	engine := memory.New()
	sealer, err := storage.NewPassphraseSealer(ctx, engine, []byte("correct horse"))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewCredentialStore(engine, storage.WithSealer(sealer))
	if err := store.Write(ctx, testRecord("A1", "R1")); err != nil {
		t.Fatal(err)
	}

	// Swap the two token slots.
	access, _ := engine.Get(ctx, []byte(storage.KeyAccessToken))
	refresh, _ := engine.Get(ctx, []byte(storage.KeyRefreshToken))
	swap := new(storage.Batch).
		Put([]byte(storage.KeyAccessToken), refresh).
		Put([]byte(storage.KeyRefreshToken), access)
	if err := engine.WriteBatch(ctx, swap); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Read(ctx); !errors.Is(err, domain.ErrCredentialCorrupt) {
		t.Errorf("Read() after slot swap = %v, want ErrCredentialCorrupt", err)
	}
}

package memory_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/storage/memory"
)

func TestIdempotencyRepository_CreateAndGet(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	record, err := repo.CreateProcessing("key-1", "hash-1", time.Time{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}
	if record.TTLAt.IsZero() {
		t.Fatal("expected default TTL to be set")
	}

	stored, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.RequestHash != "hash-1" {
		t.Fatalf("expected hash-1, got %s", stored.RequestHash)
	}
}

func TestIdempotencyRepository_DuplicateKey(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != domain.ErrIdempotencyKeyAlreadyExists {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if _, err := repo.CreateProcessing("key-1", "hash-2", time.Time{}); err != domain.ErrIdempotencyHashMismatch {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}
}

func TestIdempotencyRepository_MarkDoneAndFailed(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.MarkDone("key-1", []byte(`{"ok":true}`), 200); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}
	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone || record.HTTPStatus != 200 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if string(record.ResponseBody) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", record.ResponseBody)
	}

	if err := repo.MarkFailed("missing", nil, 500); err != domain.ErrIdempotencyKeyNotFound {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	if _, err := repo.CreateProcessing("old", "h", past); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("fresh", "h", future); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	removed, err := repo.DeleteExpired(time.Now().UTC(), 0)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := repo.Get("old"); err != domain.ErrIdempotencyKeyNotFound {
		t.Fatalf("expected old record to be gone, got %v", err)
	}
	if _, err := repo.Get("fresh"); err != nil {
		t.Fatalf("fresh record must survive: %v", err)
	}
}

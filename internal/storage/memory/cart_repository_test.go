package memory_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/storage/memory"
)

func newCart() domain.Cart {
	now := time.Now().UTC()
	return domain.Cart{
		SessionID: "sess-1",
		Items: []domain.CartItem{
			{ProductID: "p-1", Name: "vinyl", PriceMinor: 2499, Quantity: 2, AddedAt: now},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartRepository_SaveGet(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()

	if err := repo.Save(cart); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := repo.Get(cart.SessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.SessionID != cart.SessionID {
		t.Fatalf("expected session %s, got %s", cart.SessionID, stored.SessionID)
	}
	if len(stored.Items) != 1 || stored.Items[0].ProductID != "p-1" {
		t.Fatalf("unexpected items: %+v", stored.Items)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1 after first save, got %d", stored.Version)
	}
}

func TestCartRepository_GetMissing(t *testing.T) {
	repo := memory.NewCartRepository()

	if _, err := repo.Get("unknown"); err != domain.ErrCartNotFound {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRepository_SaveIncrementsVersion(t *testing.T) {
	repo := memory.NewCartRepository()
	if err := repo.Save(newCart()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := repo.Get("sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.Items[0].Quantity = 5
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.Get("sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if updated.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", updated.Items[0].Quantity)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version increment, got %d", updated.Version)
	}
}

func TestCartRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()
	if err := repo.Save(cart); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Повторное сохранение устаревшей копии (Version 0) должно быть отклонено.
	if err := repo.Save(cart); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	// Создание "новой" корзины с ненулевой версией тоже конфликт.
	fresh := newCart()
	fresh.SessionID = "sess-2"
	fresh.Version = 3
	if err := repo.Save(fresh); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestCartRepository_Clear(t *testing.T) {
	repo := memory.NewCartRepository()
	if err := repo.Save(newCart()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := repo.Clear("sess-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := repo.Get("sess-1"); err != domain.ErrCartNotFound {
		t.Fatalf("expected ErrCartNotFound after clear, got %v", err)
	}

	// Повторная очистка не является ошибкой.
	if err := repo.Clear("sess-1"); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}

func TestCartRepository_GetReturnsCopy(t *testing.T) {
	repo := memory.NewCartRepository()
	if err := repo.Save(newCart()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	first, _ := repo.Get("sess-1")
	first.Items[0].Quantity = 42

	second, _ := repo.Get("sess-1")
	if second.Items[0].Quantity != 2 {
		t.Fatal("mutating a returned cart must not affect the stored value")
	}
}

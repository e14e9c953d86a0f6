package memory

import (
	"context"
	"testing"

	"github.com/MichaelAJay/go-client-auth/errors"
)

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !errors.IsErrorType(err, errors.ErrKeyNotFound) {
		t.Errorf("expected key not found, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("got %q, want %q", got, "v1")
	}

	// Overwrite
	if err := s.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ = s.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("got %q, want %q", got, "v2")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	s.Set(ctx, "k", []byte("original"))
	got, _ := s.Get(ctx, "k")
	got[0] = 'X'

	again, _ := s.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	s.Set(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.IsErrorType(err, errors.ErrKeyNotFound) {
		t.Errorf("expected key not found after delete, got %v", err)
	}

	// Deleting an absent key is a no-op
	if err := s.Delete(ctx, "absent"); err != nil {
		t.Errorf("unexpected error deleting absent key: %v", err)
	}
}

func TestDeleteMany(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	s.Set(ctx, "a", []byte("1"))
	s.Set(ctx, "b", []byte("2"))
	s.Set(ctx, "c", []byte("3"))

	if err := s.DeleteMany(ctx, []string{"a", "b", "absent"}); err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}

	if _, err := s.Get(ctx, "a"); err == nil {
		t.Error("expected a to be deleted")
	}
	if _, err := s.Get(ctx, "c"); err != nil {
		t.Errorf("expected c to survive, got %v", err)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	s.Set(ctx, "a", []byte("1"))
	s.Set(ctx, "b", []byte("2"))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.IsErrorType(err, errors.ErrKeyNotFound) {
		t.Errorf("expected empty store after clear, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Close()

	if _, err := s.Get(ctx, "k"); !errors.IsErrorType(err, errors.ErrStoreClosed) {
		t.Errorf("expected store closed error, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v")); !errors.IsErrorType(err, errors.ErrStoreClosed) {
		t.Errorf("expected store closed error, got %v", err)
	}
}

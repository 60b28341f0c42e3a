package store

import (
	"sort"
	"testing"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemory()

	if err := s.Put("profile_site_example.com", []byte(`{"visits":3}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get("profile_site_example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"visits":3}` {
		t.Errorf("unexpected value %q", got)
	}

	if err := s.Delete("profile_site_example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("profile_site_example.com"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemory()
	if _, err := s.Get("nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListPrefix(t *testing.T) {
	s := NewMemory()
	s.Put("profile_site_a.com", []byte("1"))
	s.Put("profile_site_b.com", []byte("2"))
	s.Put("profile_ext_abc", []byte("3"))

	keys, err := s.List("profile_site_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "profile_site_a.com" || keys[1] != "profile_site_b.com" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestMemoryStore_ValueIsolation(t *testing.T) {
	s := NewMemory()
	original := []byte("abc")
	s.Put("k", original)
	original[0] = 'x'

	got, _ := s.Get("k")
	if string(got) != "abc" {
		t.Errorf("store must copy values on put, got %q", got)
	}
	got[0] = 'y'

	again, _ := s.Get("k")
	if string(again) != "abc" {
		t.Errorf("store must copy values on get, got %q", again)
	}
}

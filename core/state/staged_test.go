package state

import (
	"errors"
	"testing"

	"staychain/storage"
)

func TestStagedReadsThroughToBase(t *testing.T) {
	base := storage.NewMemDB()
	if err := base.Put([]byte("k"), []byte("base")); err != nil {
		t.Fatal(err)
	}

	staged := NewStaged(base)
	got, err := staged.Get([]byte("k"))
	if err != nil || string(got) != "base" {
		t.Fatalf("get = %q err=%v", got, err)
	}
	has, err := staged.Has([]byte("k"))
	if err != nil || !has {
		t.Fatalf("has = %v err=%v", has, err)
	}
}

func TestStagedCommitFlushesWrites(t *testing.T) {
	base := storage.NewMemDB()
	if err := base.Put([]byte("old"), []byte("v")); err != nil {
		t.Fatal(err)
	}

	staged := NewStaged(base)
	if err := staged.Put([]byte("new"), []byte("w")); err != nil {
		t.Fatal(err)
	}
	if err := staged.Delete([]byte("old")); err != nil {
		t.Fatal(err)
	}

	// Base is untouched until commit.
	if _, err := base.Get([]byte("new")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("write leaked to base before commit: %v", err)
	}
	if has, _ := base.Has([]byte("old")); !has {
		t.Fatal("delete leaked to base before commit")
	}

	// The overlay itself already reflects both.
	if got, err := staged.Get([]byte("new")); err != nil || string(got) != "w" {
		t.Fatalf("overlay get = %q err=%v", got, err)
	}
	if _, err := staged.Get([]byte("old")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("overlay still sees deleted key: %v", err)
	}
	if has, _ := staged.Has([]byte("old")); has {
		t.Fatal("overlay Has still true for deleted key")
	}

	if err := staged.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got, err := base.Get([]byte("new")); err != nil || string(got) != "w" {
		t.Fatalf("base after commit = %q err=%v", got, err)
	}
	if has, _ := base.Has([]byte("old")); has {
		t.Fatal("deleted key survived commit")
	}
}

func TestStagedDiscardDropsWrites(t *testing.T) {
	base := storage.NewMemDB()
	staged := NewStaged(base)
	if err := staged.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	staged.Discard()
	if err := staged.Commit(); err != nil {
		t.Fatalf("commit after discard: %v", err)
	}
	if has, _ := base.Has([]byte("k")); has {
		t.Fatal("discarded write reached base")
	}
}

func TestStagedOverwriteAfterDelete(t *testing.T) {
	base := storage.NewMemDB()
	staged := NewStaged(base)
	if err := staged.Delete([]byte("k")); err != nil {
		t.Fatal(err)
	}
	if err := staged.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatal(err)
	}
	if got, err := staged.Get([]byte("k")); err != nil || string(got) != "v2" {
		t.Fatalf("get = %q err=%v", got, err)
	}
	if err := staged.Commit(); err != nil {
		t.Fatal(err)
	}
	if got, err := base.Get([]byte("k")); err != nil || string(got) != "v2" {
		t.Fatalf("base = %q err=%v", got, err)
	}
}

package notebook

import (
	"errors"
	"testing"
)

func TestStoreCreateAndGet(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	n, err := s.Create("Quantum Notes")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID == "" {
		t.Fatal("created notebook has empty id")
	}
	if n.Description != "New research project" {
		t.Errorf("description = %q", n.Description)
	}

	got, err := s.Get(n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Quantum Notes" {
		t.Errorf("title = %q, want Quantum Notes", got.Title)
	}
}

func TestStoreSaveReplacesById(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	n, err := s.Create("Draft")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n.Title = "Final"
	n.Sources = append(n.Sources, Source{
		ID:      NewID(),
		Type:    SourceCopiedText,
		Title:   "Pasted",
		Content: "body text",
	})
	if err := s.Save(n); err != nil {
		t.Fatalf("Save: %v", err)
	}

	all, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List returned %d notebooks, want 1", len(all))
	}
	if all[0].Title != "Final" || len(all[0].Sources) != 1 {
		t.Errorf("saved notebook = %+v", all[0])
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	n, err := s.Create("Ephemeral")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete unknown id: %v", err)
	}
}

func TestCombinedSourceText(t *testing.T) {
	t.Parallel()

	n := Notebook{Sources: []Source{
		{Content: "first"},
		{Content: "second"},
	}}
	if got, want := n.CombinedSourceText(), "first\n\nsecond"; got != want {
		t.Errorf("CombinedSourceText = %q, want %q", got, want)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 32 {
			t.Fatalf("id length = %d, want 32", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

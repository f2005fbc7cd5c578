package storage

import (
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("Company: Acme\n")
	if err := s.Write("contacts/jane.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("contacts/jane.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestExists(t *testing.T) {
	s := tempVault(t)
	if s.Exists("missing.md") {
		t.Error("Exists on missing file")
	}
	_ = s.Write("here.md", []byte("x"))
	if !s.Exists("here.md") {
		t.Error("Exists returned false for written file")
	}
	if s.Exists("../outside") {
		t.Error("Exists must reject traversal")
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("del.md") {
		t.Error("file still present after delete")
	}
}

func TestMove(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("inbox/card.jpg", []byte("data"))
	if err := s.Move("inbox/card.jpg", "attachments/Jane Doe.jpg"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("attachments/Jane Doe.jpg")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if s.Exists("inbox/card.jpg") {
		t.Error("old path should not exist")
	}
}

func TestListExt(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("inbox/a.jpg", []byte("a"))
	_ = s.Write("inbox/b.PNG", []byte("b"))
	_ = s.Write("inbox/notes.md", []byte("not an image"))
	_ = s.Write("inbox/sub/c.jpeg", []byte("c"))

	items, err := s.ListExt("inbox", ".jpg", ".jpeg", ".png")
	if err != nil {
		t.Fatalf("ListExt: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len = %d, want 3 (extension match is case-insensitive)", len(items))
	}
}

func TestListExtSkipsTrash(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write(TrashDir+"/b.md", []byte("b"))

	items, err := s.ListExt("", ".md")
	if err != nil {
		t.Fatalf("ListExt: %v", err)
	}
	if len(items) != 1 || items[0].Path != "a.md" {
		t.Errorf("items = %v, trash must be excluded", items)
	}
}

func TestTrash(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("inbox/card.jpg", []byte("v1"))

	trashed, err := s.Trash("inbox/card.jpg")
	if err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if trashed != TrashDir+"/card.jpg" {
		t.Errorf("trashed path = %q", trashed)
	}
	if s.Exists("inbox/card.jpg") {
		t.Error("original still present")
	}

	// A second card.jpg must not overwrite the first in the trash.
	_ = s.Write("inbox/card.jpg", []byte("v2"))
	trashed2, err := s.Trash("inbox/card.jpg")
	if err != nil {
		t.Fatalf("Trash second: %v", err)
	}
	if trashed2 != TrashDir+"/card (1).jpg" {
		t.Errorf("second trashed path = %q", trashed2)
	}
	v1, _ := s.Read(trashed)
	if string(v1) != "v1" {
		t.Errorf("first trashed content = %q", v1)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestStat(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("inbox/card.jpg", []byte("12345"))
	meta, err := s.Stat("inbox/card.jpg")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Size != 5 {
		t.Errorf("size = %d", meta.Size)
	}
}

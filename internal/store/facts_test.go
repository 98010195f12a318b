package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInsertAndListFacts(t *testing.T) {
	st := openTestStore(t)

	for i, content := range []string{"first", "second", "third"} {
		if _, err := st.InsertFact("u1", content, i, "manual"); err != nil {
			t.Fatalf("InsertFact failed: %v", err)
		}
	}

	list, err := st.ListFacts("u1")
	if err != nil {
		t.Fatalf("ListFacts failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(list))
	}
	for i, f := range list {
		if f.Position != i {
			t.Errorf("fact %d has position %d", i, f.Position)
		}
	}

	count, err := st.CountFacts("u1")
	if err != nil {
		t.Fatalf("CountFacts failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestListFactsScopedToUser(t *testing.T) {
	st := openTestStore(t)

	if _, err := st.InsertFact("u1", "mine", 0, "manual"); err != nil {
		t.Fatalf("InsertFact failed: %v", err)
	}
	if _, err := st.InsertFact("u2", "theirs", 0, "manual"); err != nil {
		t.Fatalf("InsertFact failed: %v", err)
	}

	list, err := st.ListFacts("u1")
	if err != nil {
		t.Fatalf("ListFacts failed: %v", err)
	}
	if len(list) != 1 || list[0].Content != "mine" {
		t.Fatalf("expected only u1's fact, got %+v", list)
	}
}

func TestDeleteFactRepacksPositions(t *testing.T) {
	st := openTestStore(t)

	contents := []string{"a", "b", "c", "d"}
	ids := make([]string, len(contents))
	for i, content := range contents {
		f, err := st.InsertFact("u1", content, i, "manual")
		if err != nil {
			t.Fatalf("InsertFact failed: %v", err)
		}
		ids[i] = f.ID
	}

	// Delete "b" and check the survivors are contiguous in original order.
	if err := st.DeleteFact(ids[1]); err != nil {
		t.Fatalf("DeleteFact failed: %v", err)
	}

	list, err := st.ListFacts("u1")
	if err != nil {
		t.Fatalf("ListFacts failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 facts after delete, got %d", len(list))
	}
	wantOrder := []string{"a", "c", "d"}
	for i, f := range list {
		if f.Position != i {
			t.Errorf("position %d: got %d", i, f.Position)
		}
		if f.Content != wantOrder[i] {
			t.Errorf("position %d: got content %q, want %q", i, f.Content, wantOrder[i])
		}
	}
}

func TestDeleteMissingFact(t *testing.T) {
	st := openTestStore(t)
	if err := st.DeleteFact("no-such-id"); err == nil {
		t.Fatal("expected error deleting missing fact")
	}
}

func TestUpdateFactKeepsPosition(t *testing.T) {
	st := openTestStore(t)

	if _, err := st.InsertFact("u1", "zero", 0, "manual"); err != nil {
		t.Fatalf("InsertFact failed: %v", err)
	}
	f, err := st.InsertFact("u1", "one", 1, "manual")
	if err != nil {
		t.Fatalf("InsertFact failed: %v", err)
	}

	updated, err := st.UpdateFact(f.ID, "one revised")
	if err != nil {
		t.Fatalf("UpdateFact failed: %v", err)
	}
	if updated.Content != "one revised" {
		t.Errorf("content not updated: %q", updated.Content)
	}
	if updated.Position != 1 {
		t.Errorf("update changed position to %d", updated.Position)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	st := openTestStore(t)

	got, err := st.GetProfile("nobody")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil profile for unknown user")
	}

	p := &Profile{
		ID:                "u1",
		DisplayName:       "Alex",
		WritingStyle:      "casual",
		MemoryEnabled:     true,
		ScreenshotEnabled: true,
		TokensRemaining:   1000,
		SelectedModel:     "gemini-2.5-flash",
		Language:          "en",
	}
	if err := st.UpsertProfile(p); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}

	got, err = st.GetProfile("u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got == nil || got.DisplayName != "Alex" || got.WritingStyle != "casual" {
		t.Fatalf("profile round trip mismatch: %+v", got)
	}
}

func TestAddTokenUsage(t *testing.T) {
	st := openTestStore(t)

	if err := st.UpsertProfile(&Profile{ID: "u1", TokensRemaining: 100}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}

	p, err := st.AddTokenUsage("u1", 30)
	if err != nil {
		t.Fatalf("AddTokenUsage failed: %v", err)
	}
	if p.TokensUsed != 30 || p.TokensRemaining != 70 {
		t.Errorf("after 30 tokens: used=%d remaining=%d", p.TokensUsed, p.TokensRemaining)
	}

	// Remaining clamps at zero rather than going negative.
	p, err = st.AddTokenUsage("u1", 500)
	if err != nil {
		t.Fatalf("AddTokenUsage failed: %v", err)
	}
	if p.TokensUsed != 530 || p.TokensRemaining != 0 {
		t.Errorf("after overdraw: used=%d remaining=%d", p.TokensUsed, p.TokensRemaining)
	}
}

package capture

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	windows []Source
	screens []Source
	winErr  error
}

func (f *fakeProvider) WindowSources(ctx context.Context) ([]Source, error) {
	return f.windows, f.winErr
}

func (f *fakeProvider) ScreenSources(ctx context.Context) ([]Source, error) {
	return f.screens, nil
}

var png = []byte{0x89, 'P', 'N', 'G'}

func TestCapturePrefersPreviousApp(t *testing.T) {
	sp := &fakeProvider{windows: []Source{
		{Name: "Finder", Thumbnail: png},
		{Name: "Notes", Thumbnail: png},
	}}

	shot, err := Capture(context.Background(), sp, "Notes")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if shot.SourceName != "Notes" {
		t.Errorf("selected %q, want Notes", shot.SourceName)
	}
}

func TestCapturePreviousAppMatchIsCaseInsensitiveSubstring(t *testing.T) {
	sp := &fakeProvider{windows: []Source{
		{Name: "Inbox — Mail", Thumbnail: png},
	}}

	shot, err := Capture(context.Background(), sp, "mail")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if shot.SourceName != "Inbox — Mail" {
		t.Errorf("selected %q", shot.SourceName)
	}
}

func TestCaptureSkipsOwnWindows(t *testing.T) {
	sp := &fakeProvider{windows: []Source{
		{Name: "PromptOS Overlay", Thumbnail: png},
		{Name: "Mail", Thumbnail: png},
	}}

	// No previousApp hint: the first non-overlay window wins.
	shot, err := Capture(context.Background(), sp, "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if shot.SourceName != "Mail" {
		t.Errorf("selected %q, want Mail", shot.SourceName)
	}
}

func TestCaptureFallsBackToScreen(t *testing.T) {
	sp := &fakeProvider{
		windows: []Source{{Name: "PromptOS Overlay", Thumbnail: png}},
		screens: []Source{{Name: "Entire Screen", Thumbnail: png}},
	}

	shot, err := Capture(context.Background(), sp, "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if shot.SourceName != "Entire Screen" {
		t.Errorf("selected %q, want screen fallback", shot.SourceName)
	}
}

func TestCaptureNothingAvailable(t *testing.T) {
	shot, err := Capture(context.Background(), &fakeProvider{}, "")
	if err != nil {
		t.Fatalf("expected silent nil, got error %v", err)
	}
	if shot != nil {
		t.Fatalf("expected nil screenshot, got %+v", shot)
	}
}

func TestCaptureEmptyThumbnailIsPermissionError(t *testing.T) {
	sp := &fakeProvider{windows: []Source{{Name: "Mail"}}}

	shot, err := Capture(context.Background(), sp, "Mail")
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
	if shot != nil {
		t.Fatal("expected no screenshot with permission error")
	}
}

func TestCaptureEnumerationFailureIsSilent(t *testing.T) {
	sp := &fakeProvider{winErr: errors.New("compositor unavailable")}

	shot, err := Capture(context.Background(), sp, "Mail")
	if err != nil {
		t.Fatalf("enumeration failure should be absorbed, got %v", err)
	}
	if shot != nil {
		t.Fatal("expected nil screenshot")
	}
}

package generation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"promptos/internal/capture"
	"promptos/internal/facts"
	"promptos/internal/provider"
	"promptos/internal/store"
)

// Generations cancel each other and retry waits run on timers; nothing in
// this package may leave a goroutine behind once a test returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClient scripts provider behavior and records what it was asked.
type fakeClient struct {
	mu                sync.Mutex
	generate          func(ctx context.Context, system string, msgs []provider.Message, opts provider.GenerateOptions) (*provider.Result, error)
	lastSystem        string
	lastMessages      []provider.Message
	generateCallCount int
	completeResponse  string
}

func (f *fakeClient) Generate(ctx context.Context, system string, msgs []provider.Message, opts provider.GenerateOptions) (*provider.Result, error) {
	f.mu.Lock()
	f.lastSystem = system
	f.lastMessages = msgs
	f.generateCallCount++
	fn := f.generate
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, system, msgs, opts)
	}
	return &provider.Result{Text: "generated text", Usage: provider.Usage{PromptTokens: 10, CompletionTokens: 5}}, nil
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	if f.completeResponse != "" {
		return f.completeResponse, nil
	}
	return "NO", nil
}

func (f *fakeClient) Name() string           { return "fake" }
func (f *fakeClient) Model() string          { return "gemini-2.5-flash" }
func (f *fakeClient) SetModel(string)        {}
func (f *fakeClient) SupportsVision() bool   { return true }
func (f *fakeClient) SupportsThinking() bool { return true }

type staticSources struct {
	windows []capture.Source
}

func (s staticSources) WindowSources(ctx context.Context) ([]capture.Source, error) {
	return s.windows, nil
}

func (s staticSources) ScreenSources(ctx context.Context) ([]capture.Source, error) {
	return nil, nil
}

func newTestOrchestrator(t *testing.T, client *fakeClient, sources capture.SourceProvider, profile *store.Profile) (*Orchestrator, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "gen.db"))
	if err != nil {
		t.Fatalf("store open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if profile != nil {
		if err := st.UpsertProfile(profile); err != nil {
			t.Fatalf("profile setup failed: %v", err)
		}
	}
	if sources == nil {
		sources = staticSources{}
	}
	return New(Config{
		Client:  client,
		Store:   st,
		Facts:   facts.NewManager(st, client),
		Sources: sources,
	}), st
}

func baseProfile() *store.Profile {
	return &store.Profile{
		ID:                "u1",
		DisplayName:       "Alex",
		WritingStyle:      "professional",
		MemoryEnabled:     true,
		ScreenshotEnabled: true,
		Language:          "en",
	}
}

func TestGenerateThinkingFollowsCapability(t *testing.T) {
	var gotOpts provider.GenerateOptions
	client := &fakeClient{}
	client.generate = func(ctx context.Context, system string, msgs []provider.Message, opts provider.GenerateOptions) (*provider.Result, error) {
		gotOpts = opts
		return &provider.Result{Text: "ok"}, nil
	}

	profile := baseProfile()
	profile.ThinkingEnabled = true
	orch, _ := newTestOrchestrator(t, client, nil, profile)

	if _, err := orch.Generate(context.Background(), "u1", "hello", Options{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !gotOpts.ThinkingEnabled {
		t.Error("profile toggle on a thinking-capable client should enable thinking")
	}

	profile.ThinkingEnabled = false
	orch2, _ := newTestOrchestrator(t, client, nil, profile)
	if _, err := orch2.Generate(context.Background(), "u1", "hello", Options{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotOpts.ThinkingEnabled {
		t.Error("thinking must stay off when the profile disables it")
	}
}

func TestGenerateTextOnly(t *testing.T) {
	client := &fakeClient{}
	orch, _ := newTestOrchestrator(t, client, nil, baseProfile())

	out, err := orch.Generate(context.Background(), "u1", "write a haiku about rain", Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Text != "generated text" {
		t.Errorf("text = %q", out.Text)
	}
	if out.Usage.Total() != 15 {
		t.Errorf("usage total = %d", out.Usage.Total())
	}
	if !strings.Contains(client.lastSystem, "You are promptOS") {
		t.Error("system instruction missing persona")
	}

	// The exchange lands in the session history for the next turn.
	if orch.Session().Len() != 2 {
		t.Errorf("session history = %d messages, want 2", orch.Session().Len())
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &fakeClient{}, nil, baseProfile())
	if _, err := orch.Generate(context.Background(), "u1", "", Options{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGenerateWithoutProfile(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &fakeClient{}, nil, nil)
	if _, err := orch.Generate(context.Background(), "ghost", "hello", Options{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestGenerateInjectsFactsWhenMemoryEnabled(t *testing.T) {
	client := &fakeClient{}
	orch, st := newTestOrchestrator(t, client, nil, baseProfile())

	mgr := facts.NewManager(st, nil)
	if _, err := mgr.Add("u1", "The user's name is Alex Chen", "manual"); err != nil {
		t.Fatalf("fact setup failed: %v", err)
	}

	if _, err := orch.Generate(context.Background(), "u1", "sign off an email", Options{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(client.lastSystem, "The user's name is Alex Chen") {
		t.Error("facts missing from system instruction")
	}
	if !strings.Contains(client.lastSystem, "Identity facts") {
		t.Error("identity-only instruction missing")
	}
}

func TestGenerateSkipsFactsWhenMemoryDisabled(t *testing.T) {
	client := &fakeClient{}
	profile := baseProfile()
	profile.MemoryEnabled = false
	orch, st := newTestOrchestrator(t, client, nil, profile)

	mgr := facts.NewManager(st, nil)
	if _, err := mgr.Add("u1", "The user's name is Alex Chen", "manual"); err != nil {
		t.Fatalf("fact setup failed: %v", err)
	}

	if _, err := orch.Generate(context.Background(), "u1", "sign off an email", Options{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(client.lastSystem, "Alex Chen") {
		t.Error("facts leaked into prompt with memory disabled")
	}
}

func TestGenerateScreenshotPermissionError(t *testing.T) {
	client := &fakeClient{}
	sources := staticSources{windows: []capture.Source{{Name: "Mail"}}} // empty thumbnail
	orch, _ := newTestOrchestrator(t, client, sources, baseProfile())

	_, err := orch.Generate(context.Background(), "u1", "reply to this email", Options{
		IncludeScreenshot: true,
		PreviousApp:       "Mail",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if client.generateCallCount != 0 {
		t.Error("no provider call should happen after a permission error")
	}
}

func TestGenerateScreenshotToggleOffSkipsCapture(t *testing.T) {
	client := &fakeClient{}
	profile := baseProfile()
	profile.ScreenshotEnabled = false
	sources := staticSources{windows: []capture.Source{{Name: "Mail"}}}
	orch, _ := newTestOrchestrator(t, client, sources, profile)

	out, err := orch.Generate(context.Background(), "u1", "reply to this email", Options{
		IncludeScreenshot: true,
		PreviousApp:       "Mail",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Text != "generated text" {
		t.Errorf("text = %q", out.Text)
	}
}

func TestGenerateSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	client := &fakeClient{}
	client.generate = func(ctx context.Context, system string, msgs []provider.Message, opts provider.GenerateOptions) (*provider.Result, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return &provider.Result{Text: "finished"}, nil
		}
	}
	orch, _ := newTestOrchestrator(t, client, nil, baseProfile())

	firstDone := make(chan error, 1)
	go func() {
		_, err := orch.Generate(context.Background(), "u1", "prompt A", Options{})
		firstDone <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first generation never started")
	}

	// Second call must cancel the first.
	secondDone := make(chan error, 1)
	go func() {
		_, err := orch.Generate(context.Background(), "u1", "prompt B", Options{})
		secondDone <- err
	}()

	select {
	case err := <-firstDone:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("first generation err = %v, want ErrCancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first generation was not cancelled")
	}

	close(release)
	select {
	case err := <-secondDone:
		if err != nil {
			t.Fatalf("second generation failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second generation did not complete")
	}
}

func TestGenerateRecordsExchanges(t *testing.T) {
	client := &fakeClient{}
	st, err := store.Open(filepath.Join(t.TempDir(), "rec.db"))
	if err != nil {
		t.Fatalf("store open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.UpsertProfile(baseProfile()); err != nil {
		t.Fatalf("profile setup failed: %v", err)
	}

	var recorded [][2]string
	orch := New(Config{
		Client:  client,
		Store:   st,
		Facts:   facts.NewManager(st, nil),
		Sources: staticSources{},
		Recorder: recorderFunc(func(prompt, response string) {
			recorded = append(recorded, [2]string{prompt, response})
		}),
	})

	if _, err := orch.Generate(context.Background(), "u1", "write a toast", Options{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(recorded) != 1 || recorded[0][0] != "write a toast" || recorded[0][1] != "generated text" {
		t.Errorf("recorded = %v", recorded)
	}
}

type recorderFunc func(prompt, response string)

func (f recorderFunc) Record(prompt, response string) { f(prompt, response) }

// Package generation runs the end-to-end text generation flow: single-flight
// admission, optional screenshot capture and analysis, prompt assembly,
// provider dispatch with retry, and usage reporting.
package generation

import (
	"context"
	"errors"

	"promptos/internal/bridge"
	"promptos/internal/capture"
	"promptos/internal/facts"
	"promptos/internal/logging"
	"promptos/internal/provider"
	"promptos/internal/store"
)

const defaultMaxOutputTokens = 2048

// Recorder observes completed prompt/response exchanges, used by the session
// fact extractor.
type Recorder interface {
	Record(prompt, response string)
}

// Options configures one generate call.
type Options struct {
	IncludeScreenshot bool
	PreviousApp       string          // window hint for screenshot targeting
	Browser           *bridge.TabInfo // active browser tab, nil when unavailable
}

// Output is a completed generation.
type Output struct {
	Text  string
	Usage provider.Usage

	// Clarification is set when the screenshot showed several candidate
	// messages and the model asked which one instead of generating.
	Clarification bool
}

// Orchestrator owns the generation pipeline. All collaborators are injected
// at construction; nothing is resolved from globals mid-call.
type Orchestrator struct {
	client   provider.Client
	store    *store.Store
	facts    *facts.Manager
	sources  capture.SourceProvider
	flight   *Flight
	session  *ChatSession
	status   StatusFunc
	recorder Recorder
}

// Config bundles the Orchestrator's dependencies.
type Config struct {
	Client   provider.Client
	Store    *store.Store
	Facts    *facts.Manager
	Sources  capture.SourceProvider
	Status   StatusFunc // may be nil
	Recorder Recorder   // may be nil
}

// New builds an Orchestrator with a fresh chat session.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		client:   cfg.Client,
		store:    cfg.Store,
		facts:    cfg.Facts,
		sources:  cfg.Sources,
		flight:   NewFlight(),
		session:  NewChatSession(),
		status:   cfg.Status,
		recorder: cfg.Recorder,
	}
}

// Session exposes the chat session, mainly for overlay-close resets.
func (o *Orchestrator) Session() *ChatSession { return o.session }

// Cancel aborts the in-flight generation, if any.
func (o *Orchestrator) Cancel() { o.flight.CancelCurrent() }

func (o *Orchestrator) sendStatus(s string) {
	if o.status != nil {
		o.status(s)
	}
}

// Generate runs the full pipeline for one prompt. Starting a new call
// cancels any generation still in flight.
func (o *Orchestrator) Generate(ctx context.Context, userID, prompt string, opts Options) (*Output, error) {
	if prompt == "" {
		return nil, ErrInvalidInput
	}

	ctx, id := o.flight.Start(ctx)
	defer o.flight.Finish(id)

	profile, err := o.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUnauthenticated
	}

	var screen *ScreenAnalysis
	if opts.IncludeScreenshot && profile.ScreenshotEnabled {
		shot, err := capture.Capture(ctx, o.sources, opts.PreviousApp)
		if errors.Is(err, capture.ErrPermission) {
			return nil, ErrPermissionDenied
		}
		if shot != nil {
			o.sendStatus("Analyzing...")
			analysis, err := analyzeScreenshot(ctx, o.client, shot)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ErrCancelled
				}
				return nil, err
			}
			if analysis.ClarificationNeeded {
				logging.Generation("screenshot ambiguous, asking for clarification")
				return &Output{Text: analysis.ClarificationMessage, Clarification: true}, nil
			}
			screen = analysis
			o.sendStatus("Writing...")
		}
	}

	factsBlock := ""
	if profile.MemoryEnabled {
		if list, err := o.facts.List(userID); err != nil {
			logging.GenerationWarn("fact fetch failed: %v", err)
		} else if len(list) > 0 {
			factsBlock = facts.FormatForPrompt(list)
			logging.Generation("injecting %d fact(s) into prompt", len(list))
		}
	}

	systemInstruction := buildSystemInstruction(promptInputs{
		Language:    profile.Language,
		StyleGuide:  StyleGuide(profile),
		FactsBlock:  factsBlock,
		Browser:     opts.Browser,
		Screen:      screen,
		DisplayName: profile.DisplayName,
	})
	userMessage := buildUserMessage(prompt, screen)

	messages := append(append([]provider.Message{}, o.session.History()...),
		provider.Message{Role: "user", Content: userMessage})

	genOpts := provider.GenerateOptions{
		MaxOutputTokens: defaultMaxOutputTokens,
		ThinkingEnabled: profile.ThinkingEnabled && o.client.SupportsThinking(),
	}

	result, err := withRetry(ctx, func(attemptCtx context.Context) (*provider.Result, error) {
		return o.client.Generate(attemptCtx, systemInstruction, messages, genOpts)
	}, o.sendStatus)
	if err != nil {
		return nil, err
	}

	// A superseded generation may still complete; its result is discarded.
	if !o.flight.IsCurrent(id) {
		logging.GenerationDebug("discarding result of superseded generation %d", id)
		return nil, ErrCancelled
	}

	o.session.Append(userMessage, result.Text)
	if o.recorder != nil {
		o.recorder.Record(prompt, result.Text)
	}

	// Usage is reported to the caller; token accounting is the caller's job.
	return &Output{Text: result.Text, Usage: result.Usage}, nil
}

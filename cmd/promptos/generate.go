package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"promptos/internal/bridge"
	"promptos/internal/capture"
	"promptos/internal/contextcheck"
	"promptos/internal/generation"
	"promptos/internal/memory"

	"github.com/spf13/cobra"
)

var (
	withScreenshot bool
	autoContext    bool
	previousApp    string
	pasteResult    bool
	extractFacts   bool
)

// generateCmd runs one generation through the full pipeline
var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate text for a prompt",
	Long: `Runs the full generation pipeline: optional screenshot capture and
analysis, fact and style injection, provider dispatch with retry, and token
accounting.

Example:
  promptos generate "reply to this email" --screenshot --previous-app Mail`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&withScreenshot, "screenshot", false, "Capture and analyze a screenshot for context")
	generateCmd.Flags().BoolVar(&autoContext, "auto-context", true, "Decide automatically whether a screenshot is needed")
	generateCmd.Flags().StringVar(&previousApp, "previous-app", "", "Window name hint for screenshot targeting")
	generateCmd.Flags().BoolVar(&pasteResult, "paste", false, "Paste the result into the frontmost app")
	generateCmd.Flags().BoolVar(&extractFacts, "extract-facts", true, "Extract new identity facts after generating")
	generateCmd.Flags().StringVar(&modelFlag, "model", "", "Model to use (e.g. gemini-2.5-flash, grok-3)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	profile, err := a.ensureProfile()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	br := bridge.New()

	includeScreenshot := withScreenshot
	if !includeScreenshot && autoContext {
		includeScreenshot = contextcheck.Resolve(ctx, a.client, prompt, profile.ScreenshotEnabled)
	}

	front := br.FrontmostApp(ctx)
	if previousApp == "" {
		previousApp = front.Name
	}
	browserTab := br.BrowserContext(ctx, front.Name)

	session := memory.NewSession()
	orch := generation.New(generation.Config{
		Client:   a.client,
		Store:    a.store,
		Facts:    a.facts,
		Sources:  capture.NewSystemProvider(),
		Status:   func(s string) { fmt.Fprintln(os.Stderr, s) },
		Recorder: session,
	})

	out, err := orch.Generate(ctx, userID, prompt, generation.Options{
		IncludeScreenshot: includeScreenshot,
		PreviousApp:       previousApp,
		Browser:           browserTab,
	})
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrCancelled):
			return nil
		case errors.Is(err, generation.ErrPermissionDenied):
			return fmt.Errorf("screen recording permission is required; grant it in System Settings and try again")
		case errors.Is(err, generation.ErrQuotaExceeded):
			return fmt.Errorf("provider quota exhausted; check your plan or billing before retrying")
		default:
			return err
		}
	}

	fmt.Println(out.Text)

	if out.Usage.Total() > 0 {
		a.tracker.Track(a.client.Name(), a.client.Model(), "generate", prompt,
			out.Usage.PromptTokens, out.Usage.CompletionTokens)
		if _, err := a.store.AddTokenUsage(userID, int64(out.Usage.Total())); err != nil {
			logger.Warn("token accounting failed")
		}
	}

	if pasteResult && !out.Clarification {
		if err := br.Clipboard().WriteText(out.Text); err == nil {
			br.ActivateApp(ctx, previousApp)
			time.Sleep(200 * time.Millisecond) // focus restore settle
			br.SimulatePaste(ctx)
		}
	}

	if extractFacts && !out.Clarification {
		extractor := memory.NewExtractor(a.facts, a.client)
		extractor.Analyze(ctx, profile, session.Drain())
	}

	return nil
}

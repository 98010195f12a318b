package main

import (
	"fmt"
	"path/filepath"

	"promptos/internal/config"
	"promptos/internal/facts"
	"promptos/internal/provider"
	"promptos/internal/store"
	"promptos/internal/usage"
)

// app holds everything a command needs, wired once per invocation.
type app struct {
	cfg     *config.UserConfig
	store   *store.Store
	client  provider.Client
	facts   *facts.Manager
	tracker *usage.Tracker
}

func newApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultUserConfigPath()
	}
	cfg, err := config.LoadUserConfig(path)
	if err != nil {
		return nil, err
	}

	dataDir := config.DataDir()

	st, err := store.Open(filepath.Join(dataDir, "promptos.db"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	model := modelFlag
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		if profile, err := st.GetProfile(userID); err == nil && profile != nil {
			model = profile.SelectedModel
		}
	}

	client, err := provider.NewFromConfig(cfg, model)
	if err != nil {
		st.Close()
		return nil, err
	}

	tracker, err := usage.NewTracker(dataDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   st,
		client:  client,
		facts:   facts.NewManager(st, client),
		tracker: tracker,
	}, nil
}

func (a *app) close() {
	_ = a.tracker.Save()
	_ = a.store.Close()
}

// ensureProfile returns the user's profile, creating a default row on first
// use so the CLI works without an onboarding step.
func (a *app) ensureProfile() (*store.Profile, error) {
	profile, err := a.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	profile = &store.Profile{
		ID:                userID,
		WritingStyle:      "professional",
		MemoryEnabled:     true,
		ScreenshotEnabled: true,
		SelectedModel:     "gemini-2.5-flash",
		Language:          "en",
	}
	if err := a.store.UpsertProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

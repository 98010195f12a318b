//go:build !darwin

package capture

import "context"

// systemProvider on non-macOS platforms reports no capturable sources.
type systemProvider struct{}

// NewSystemProvider returns the platform screenshot provider.
func NewSystemProvider() SourceProvider {
	return systemProvider{}
}

func (systemProvider) WindowSources(ctx context.Context) ([]Source, error) {
	return nil, nil
}

func (systemProvider) ScreenSources(ctx context.Context) ([]Source, error) {
	return nil, nil
}

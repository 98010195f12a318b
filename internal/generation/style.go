package generation

import (
	"context"
	"fmt"
	"strings"

	"promptos/internal/provider"
)

const styleAnalysisTemplate = `Analyze this writing sample and create a brief style guide (2-3 sentences) that describes the tone, vocabulary level, sentence structure, and any distinctive patterns. Be concise and actionable. The style guide will be used to instruct an AI to write in this person's style.

Writing sample:
%q

Style guide:`

// AnalyzeWritingStyle turns a user-provided writing sample into a custom
// style guide string for the profile.
func AnalyzeWritingStyle(ctx context.Context, client provider.Completer, sample string) (string, error) {
	if strings.TrimSpace(sample) == "" {
		return "", ErrInvalidInput
	}
	guide, err := client.Complete(ctx, fmt.Sprintf(styleAnalysisTemplate, sample))
	if err != nil {
		return "", classify(err)
	}
	return strings.TrimSpace(guide), nil
}

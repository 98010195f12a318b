// Package contextcheck decides whether a user prompt needs a screenshot of
// the previous application before generation. Detection is two-layered:
// fast local heuristics first, then an LLM classification only for the
// genuinely ambiguous middle ground.
package contextcheck

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"promptos/internal/logging"
	"promptos/internal/provider"
)

// Need is the three-valued outcome of the local heuristics.
type Need int

const (
	NeedNo Need = iota
	NeedYes
	NeedUnknown
)

// Confidence qualifies a heuristic decision. Only NeedUnknown carries low
// confidence and escalates to the LLM.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Source records which layer produced a decision.
type Source string

const (
	SourceHeuristics Source = "heuristics"
	SourceLLM        Source = "llm"
)

// Decision is the result of the local heuristic layer.
type Decision struct {
	Needs      Need
	Confidence Confidence
	Source     Source
}

// Patterns fire only when the user clearly references on-screen content
// (this/that/it and their Japanese counterparts).
var contextPatternsEN = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(reply|respond|answer)\s+(to\s+)?(this|that|it)\b`),
	regexp.MustCompile(`(?i)\bwhat\s+(should|do|can|would)\s+i\s+(say|write|respond|reply)\s+(to\s+)?(this|that|it)\b`),
	regexp.MustCompile(`(?i)\bthis\s+(email|message|post|comment|tweet|text|slack|dm|thread)\b`),
	regexp.MustCompile(`(?i)\bhow\s+(should|do|can|would)\s+i\s+(reply|respond|answer)\s+(to\s+)?(this|that|it)\b`),
	regexp.MustCompile(`(?i)\bwrite\s+(a\s+)?(response|reply|answer)\s+(to\s+)?(this|that|it)\b`),
}

var contextPatternsJP = []*regexp.Regexp{
	regexp.MustCompile(`返信|返事|リプライ|リプ`),
	regexp.MustCompile(`返す|返して|返答`),
	regexp.MustCompile(`このメール|このメッセージ|この投稿|このコメント`),
	regexp.MustCompile(`なんて(言|い)(う|え)|何(と|て)(言|い)(う|え)`),
	regexp.MustCompile(`どう(返|答)(す|え)`),
	regexp.MustCompile(`これに(対して|ついて)`),
}

var contextKeywordsEN = []string{
	"reply to this", "respond to this", "answer this",
	"what should i say", "how do i respond", "write back",
}

var contextKeywordsJP = []string{
	"返信して", "返事を", "これに返信", "これに返す",
	"何て言えば", "どう返せば", "どう答えれば",
}

var (
	demonstrativeEN = regexp.MustCompile(`(?i)\b(this|that|these|those)\b`)
	demonstrativeJP = regexp.MustCompile(`これ|それ|あれ|この|その`)
	commVerbEN      = regexp.MustCompile(`(?i)\b(reply|respond|answer|write|say|message|email)\b`)
	commVerbJP      = regexp.MustCompile(`返信|返事|書|言`)
)

// Check runs the local heuristic layer. Keyword and pattern hits answer yes
// with high confidence; a demonstrative paired with a communication verb but
// no explicit on-screen reference is ambiguous and answers unknown with low
// confidence; everything else answers no with high confidence.
func Check(prompt string) Decision {
	lower := strings.ToLower(prompt)

	for _, keyword := range contextKeywordsEN {
		if strings.Contains(lower, keyword) {
			return Decision{Needs: NeedYes, Confidence: ConfidenceHigh, Source: SourceHeuristics}
		}
	}
	for _, keyword := range contextKeywordsJP {
		if strings.Contains(prompt, keyword) {
			return Decision{Needs: NeedYes, Confidence: ConfidenceHigh, Source: SourceHeuristics}
		}
	}
	for _, pattern := range contextPatternsEN {
		if pattern.MatchString(prompt) {
			return Decision{Needs: NeedYes, Confidence: ConfidenceHigh, Source: SourceHeuristics}
		}
	}
	for _, pattern := range contextPatternsJP {
		if pattern.MatchString(prompt) {
			return Decision{Needs: NeedYes, Confidence: ConfidenceHigh, Source: SourceHeuristics}
		}
	}

	hasDemo := demonstrativeEN.MatchString(prompt) || demonstrativeJP.MatchString(prompt)
	hasCommVerb := commVerbEN.MatchString(prompt) || commVerbJP.MatchString(prompt)
	if hasDemo && hasCommVerb {
		return Decision{Needs: NeedUnknown, Confidence: ConfidenceLow, Source: SourceHeuristics}
	}
	return Decision{Needs: NeedNo, Confidence: ConfidenceHigh, Source: SourceHeuristics}
}

const llmCheckTemplate = `Does this request REQUIRE seeing the user's screen to respond — meaning it references a specific visible email, message, or document that cannot be answered without seeing it?

User request: "%s"

Only answer YES if the request explicitly refers to something on screen. Answer NO for generic writing requests, even if they mention replies or emails in general.

Answer with only: YES or NO`

// CheckWithLLM resolves an ambiguous prompt by asking the classification
// model. Any failure defaults to false.
func CheckWithLLM(ctx context.Context, client provider.Completer, prompt string) bool {
	if client == nil {
		return false
	}
	response, err := client.Complete(ctx, fmt.Sprintf(llmCheckTemplate, prompt))
	if err != nil {
		logging.ContextError("LLM context check failed: %v", err)
		return false
	}
	answer := strings.ToUpper(strings.TrimSpace(response))
	logging.ContextDebug("LLM context check answered %q", answer)
	return strings.Contains(answer, "YES")
}

// Resolve is the full two-layer decision. The screenshotEnabled profile
// toggle short-circuits everything to false.
func Resolve(ctx context.Context, client provider.Completer, prompt string, screenshotEnabled bool) bool {
	if !screenshotEnabled {
		return false
	}
	decision := Check(prompt)
	switch decision.Needs {
	case NeedYes:
		logging.Context("heuristics: screenshot needed")
		return true
	case NeedNo:
		return false
	default:
		return CheckWithLLM(ctx, client, prompt)
	}
}

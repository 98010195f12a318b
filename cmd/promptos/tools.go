package main

import (
	"fmt"
	"sort"
	"strings"

	"promptos/internal/contextcheck"
	"promptos/internal/generation"

	"github.com/spf13/cobra"
)

var contextCheckLLM bool

// contextCheckCmd exposes the context-need decision for debugging
var contextCheckCmd = &cobra.Command{
	Use:   "context-check [prompt]",
	Short: "Show whether a prompt would trigger a screenshot",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")
		decision := contextcheck.Check(prompt)

		switch decision.Needs {
		case contextcheck.NeedYes:
			fmt.Printf("needs screenshot: yes (%s, confidence %s)\n", decision.Source, decision.Confidence)
		case contextcheck.NeedNo:
			fmt.Printf("needs screenshot: no (%s, confidence %s)\n", decision.Source, decision.Confidence)
		default:
			fmt.Printf("ambiguous (%s, confidence %s)\n", decision.Source, decision.Confidence)
			if contextCheckLLM {
				a, err := newApp()
				if err != nil {
					return err
				}
				defer a.close()
				answer := contextcheck.CheckWithLLM(cmd.Context(), a.client, prompt)
				fmt.Printf("LLM says: %v\n", answer)
			}
		}
		return nil
	},
}

// styleCmd analyzes a writing sample into a custom style guide
var styleCmd = &cobra.Command{
	Use:   "style [sample-text]",
	Short: "Build a custom style guide from a writing sample",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		guide, err := generation.AnalyzeWritingStyle(cmd.Context(), a.client, strings.Join(args, " "))
		if err != nil {
			return err
		}

		profile, err := a.ensureProfile()
		if err != nil {
			return err
		}
		profile.WritingStyle = "custom"
		profile.WritingStyleGuide = guide
		if err := a.store.UpsertProfile(profile); err != nil {
			return err
		}

		fmt.Println("Saved custom style guide:")
		fmt.Println(guide)
		return nil
	},
}

// statsCmd prints token usage aggregates
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats := a.tracker.Stats()
		fmt.Printf("Total: %d tokens (%d prompt, %d completion)\n",
			stats.Total.Total, stats.Total.Prompt, stats.Total.Completion)

		if len(stats.ByModel) > 0 {
			fmt.Println("\nBy model:")
			for _, key := range sortedKeys(stats.ByModel) {
				c := stats.ByModel[key]
				fmt.Printf("  %-24s %d tokens\n", key, c.Total)
			}
		}
		if len(stats.ByOperation) > 0 {
			fmt.Println("\nBy operation:")
			for _, key := range sortedKeys(stats.ByOperation) {
				c := stats.ByOperation[key]
				fmt.Printf("  %-24s %d tokens\n", key, c.Total)
			}
		}

		if profile, err := a.store.GetProfile(userID); err == nil && profile != nil {
			fmt.Printf("\nProfile: %d used, %d remaining\n", profile.TokensUsed, profile.TokensRemaining)
		}
		return nil
	},
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	contextCheckCmd.Flags().BoolVar(&contextCheckLLM, "llm", false, "Ask the model when heuristics are ambiguous")
}

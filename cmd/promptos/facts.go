package main

import (
	"fmt"
	"strings"

	"promptos/internal/facts"

	"github.com/spf13/cobra"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Manage identity facts",
	Long: `Lists and edits the identity facts injected into every generation.
At most ten facts are kept per user; each fact is capped at 200 characters.`,
}

var factsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List facts in position order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		list, err := a.facts.List(userID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No facts stored.")
			return nil
		}
		for _, f := range list {
			fmt.Printf("%d. [%s] %s  (%s)\n", f.Position+1, f.Source, f.Content, f.ID)
		}
		return nil
	},
}

var factsAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add a fact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		content := strings.Join(args, " ")
		existing, err := a.facts.List(userID)
		if err != nil {
			return err
		}
		if a.facts.IsDuplicate(cmd.Context(), content, existing) {
			return fmt.Errorf("fact duplicates or contradicts an existing one")
		}

		fact, err := a.facts.Add(userID, content, "manual")
		if err != nil {
			return err
		}
		if fact == nil {
			return fmt.Errorf("fact limit reached (%d); delete one first", facts.MaxFacts)
		}
		fmt.Printf("Added fact %s at position %d\n", fact.ID, fact.Position+1)
		return nil
	},
}

var factsUpdateCmd = &cobra.Command{
	Use:   "update [fact-id] [content]",
	Short: "Replace a fact's content",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		fact, err := a.facts.Update(args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Updated fact %s\n", fact.ID)
		return nil
	},
}

var factsDeleteCmd = &cobra.Command{
	Use:   "delete [fact-id]",
	Short: "Delete a fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.facts.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var factsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show fact capacity usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		count, err := a.facts.Count(userID)
		if err != nil {
			return err
		}
		fmt.Printf("%d of %d fact slots used\n", count, facts.MaxFacts)
		return nil
	},
}

func init() {
	factsCmd.AddCommand(factsListCmd)
	factsCmd.AddCommand(factsAddCmd)
	factsCmd.AddCommand(factsUpdateCmd)
	factsCmd.AddCommand(factsDeleteCmd)
	factsCmd.AddCommand(factsStatsCmd)
}

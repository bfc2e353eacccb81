package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"MedMemory/backend/go/internal/episode"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"

	"github.com/spf13/cobra"
)

func newAssessCmd() *cobra.Command {
	var at string
	c := &cobra.Command{
		Use:   "assess [statement text]",
		Short: "Check whether a statement is usable before it reaches memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clock, err := parseAnchor(at)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), statement.NewValidator(clock).Assess(strings.Join(args, " ")))
		},
	}
	c.Flags().StringVar(&at, "at", "", "reference time for relative phrases (RFC3339 or YYYY-MM-DD)")
	return c
}

func newTimeCmd() *cobra.Command {
	timeCmd := &cobra.Command{
		Use:   "time",
		Short: "Work with time phrases",
	}

	var at string
	parseCmd := &cobra.Command{
		Use:   "parse [phrase]",
		Short: "Resolve a relative or vague time phrase into a window",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clock, err := parseAnchor(at)
			if err != nil {
				return err
			}
			parsed := statement.Parser{Now: clock}.Parse(strings.Join(args, " "))
			if parsed == nil {
				return fmt.Errorf("no time information found")
			}
			return printJSON(cmd.OutOrStdout(), parsed)
		},
	}
	parseCmd.Flags().StringVar(&at, "at", "", "reference time (RFC3339 or YYYY-MM-DD)")
	timeCmd.AddCommand(parseCmd)
	return timeCmd
}

type decision struct {
	RuleAction models.Action `json:"rule_action"`
	Action     models.Action `json:"action"`
	Confidence float64       `json:"confidence"`
}

func newDecideCmd() *cobra.Command {
	var currentPath, nextPath string
	c := &cobra.Command{
		Use:       "decide [medication|symptom]",
		Short:     "Decide how a new fact relates to an existing one",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"medication", "symptom"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var out decision
			switch args[0] {
			case "medication":
				var current, next models.MedicationFact
				if err := readFacts(currentPath, nextPath, &current, &next); err != nil {
					return err
				}
				out.RuleAction = episode.DecideMedication(&current, &next)
				out.Action, out.Confidence = episode.ComputeMedicationConfidence(&current, &next, episode.ScoreOptions{})
			case "symptom":
				var current, next models.SymptomFact
				if err := readFacts(currentPath, nextPath, &current, &next); err != nil {
					return err
				}
				out.RuleAction = episode.DecideSymptom(&current, &next)
				out.Action, out.Confidence = episode.ComputeSymptomConfidence(&current, &next, episode.ScoreOptions{})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	c.Flags().StringVar(&currentPath, "current", "", "JSON file with the existing fact")
	c.Flags().StringVar(&nextPath, "next", "", "JSON file with the incoming fact")
	_ = c.MarkFlagRequired("current")
	_ = c.MarkFlagRequired("next")
	return c
}

type defaulter interface {
	EnsureDefaults(now time.Time)
}

// readFacts decodes both facts and fills the fields a hand-written JSON file
// usually leaves out, the same way the HTTP handlers do.
func readFacts(currentPath, nextPath string, current, next defaulter) error {
	if err := readJSON(currentPath, current); err != nil {
		return err
	}
	if err := readJSON(nextPath, next); err != nil {
		return err
	}
	now := time.Now()
	current.EnsureDefaults(now)
	next.EnsureDefaults(now)
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

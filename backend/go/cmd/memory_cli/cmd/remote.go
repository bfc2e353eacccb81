package cmd

import (
	"fmt"
	"net/url"
	"time"

	"MedMemory/backend/go/internal/models"

	"github.com/spf13/cobra"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		file string
		rec  models.StatementRecord
		kind string
	)
	c := &cobra.Command{
		Use:   "ingest",
		Short: "Send a statement to the memory service",
		Long:  `Send a statement read from --file, or assembled from flags, to the memory service and print the decision.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				if err := readJSON(file, &rec); err != nil {
					return err
				}
			} else {
				rec.Kind = models.FactKind(kind)
				rec.StatedAt = time.Now().UTC()
			}
			if err := rec.Validate(); err != nil {
				return err
			}
			client, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			var out map[string]interface{}
			if err := client.PostJSON(cmd.Context(), "/api/v1/statements", rec, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "JSON file holding a statement record")
	c.Flags().StringVar(&rec.SubjectID, "subject", "", "subject id")
	c.Flags().StringVar(&kind, "kind", string(models.KindMedication), "medication or symptom")
	c.Flags().StringVar(&rec.ConceptOrCode, "concept", "", "drug code or symptom concept")
	c.Flags().StringVar(&rec.Dose, "dose", "", "dose")
	c.Flags().StringVar(&rec.Frequency, "frequency", "", "frequency")
	c.Flags().StringVar(&rec.Provenance, "provenance", "patient_reported", "source of the statement")
	c.Flags().StringVar(&rec.RawText, "text", "", "raw statement text")
	return c
}

func newListCmd(opts *rootOptions) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Query what the service remembers about a subject",
	}
	for _, what := range []string{"medications", "symptoms", "decisions", "rejected", "graph"} {
		what := what
		listCmd.AddCommand(&cobra.Command{
			Use:   what + " [subject-id]",
			Short: fmt.Sprintf("List %s for a subject", what),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.client(cmd.Context())
				if err != nil {
					return err
				}
				var out interface{}
				path := fmt.Sprintf("/api/v1/subjects/%s/%s", url.PathEscape(args[0]), what)
				if err := client.GetJSON(cmd.Context(), path, &out); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			},
		})
	}
	return listCmd
}

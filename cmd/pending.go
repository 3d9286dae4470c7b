package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List submissions loaded for review and not approved yet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		ledger, closeLedger, err := env.ledger()
		if err != nil {
			return err
		}
		defer closeLedger()

		entries, err := ledger.Pending(cmd.Context())
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing pending.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBMISSION\tJOB\tCANDIDATE\tSENT\tRESPONSE\tSUGGESTED\tAI")
		for _, e := range entries {
			hint := "-"
			if e.Hint != nil {
				hint = fmt.Sprintf("%.0f", e.Hint.Score)
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
				e.SubmissionID, e.Key.JobID, e.Key.CandidateID,
				e.SubmittedAt.Format("2006-01-02 15:04"), e.Kind, e.Suggested, hint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

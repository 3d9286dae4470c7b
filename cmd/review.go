package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/review"
	"github.com/spigell/assessment-flow/internal/workflow"
)

var reviewCmd = &cobra.Command{
	Use:   "review JOB_ID CANDIDATE_ID",
	Short: "Show the latest submission of a candidate and approve it into a contract",
	Args:  cobra.ExactArgs(2),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("contract", "", "contract type to approve with (PJ, CLT, CONTRATO, COOPERADO); default is derived from the job")
	reviewCmd.Flags().BoolP("yes", "y", false, "approve without asking")
	reviewCmd.Flags().Bool("show-only", false, "only show the submission")
	reviewCmd.Flags().String("save-file", "", "write an embedded file response to this path")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	jobID, err := parseID("job id", args[0])
	if err != nil {
		return err
	}
	candidateID, err := parseID("candidate id", args[1])
	if err != nil {
		return err
	}

	env, err := setup()
	if err != nil {
		return err
	}

	ledger, closeLedger, err := env.ledger()
	if err != nil {
		return err
	}
	defer closeLedger()

	coordinator := review.NewCoordinator(review.Deps{
		Gateway:  env.client,
		Ledger:   ledger,
		Reviewer: env.reviewer(ctx),
		Logger:   env.logger,
	})

	rv, err := coordinator.LoadLatest(ctx, jobID, candidateID)
	if err != nil {
		return reviewError(err)
	}

	out := cmd.OutOrStdout()
	if rv == nil {
		fmt.Fprintln(out, "No submission found.")
		return nil
	}

	printReview(out, rv)

	if path, _ := cmd.Flags().GetString("save-file"); path != "" {
		if err := saveEmbeddedFile(rv, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "File saved to %s\n", path)
	}

	if showOnly, _ := cmd.Flags().GetBool("show-only"); showOnly {
		return nil
	}

	actor, err := env.actor()
	if err != nil {
		return err
	}

	contractType, err := chooseContractType(cmd, rv.Suggested)
	if err != nil {
		if errors.Is(err, errCancelled) {
			return nil
		}
		return err
	}

	if err := confirm(cmd, fmt.Sprintf("Approve submission %d as %s", rv.SubmissionID, contractType)); err != nil {
		if errors.Is(err, errCancelled) {
			return nil
		}
		return err
	}

	contract, err := coordinator.Approve(ctx, actor, rv.SubmissionID, contractType)
	if err != nil {
		return reviewError(err)
	}

	if contract.Existing {
		fmt.Fprintf(out, "Already approved: contract %d (%s)\n", contract.ID, contract.Type)
		return nil
	}
	fmt.Fprintf(out, "Approved: contract %d (%s)\n", contract.ID, contract.Type)
	return nil
}

// reviewError keeps coordinator errors as they are and renders backend ones.
func reviewError(err error) error {
	switch {
	case errors.Is(err, review.ErrNotAuthorized),
		errors.Is(err, review.ErrUnknownSubmission),
		errors.Is(err, review.ErrResolution),
		errors.Is(err, review.ErrListFailed),
		errors.Is(err, review.ErrSubmissionMissing):
		return err
	default:
		return fmt.Errorf("%s: %w", workflow.UserMessage(err), err)
	}
}

func printReview(out io.Writer, rv *review.Review) {
	fmt.Fprintf(out, "Submission %d for %s, sent %s (%s)\n", rv.SubmissionID, rv.Key, rv.SubmittedAt.Format("2006-01-02 15:04"), rv.Status)
	if rv.JobTitle != "" {
		fmt.Fprintf(out, "Job: %s\n", rv.JobTitle)
	}

	switch rv.Response.Kind {
	case assessment.ResponseAnswers:
		for i, a := range rv.Response.Answers {
			fmt.Fprintf(out, "\n=== [%d] %s (%s)\n%s\n", i+1, a.Title, a.Language, a.Code)
		}
	case assessment.ResponseFile:
		fmt.Fprintf(out, "\nFile response: %s (%s)\n", rv.Response.File.Filename, rv.Response.File.Mime)
	default:
		fmt.Fprintln(out, "\nNo structured response.")
	}

	if h := rv.Hint; h != nil {
		fmt.Fprintf(out, "\nAI review (advisory): %.0f/100 %s\n", h.Score, h.Summary)
		for _, s := range h.Strengths {
			fmt.Fprintf(out, "  + %s\n", s)
		}
		for _, c := range h.Concerns {
			fmt.Fprintf(out, "  - %s\n", c)
		}
	}

	fmt.Fprintf(out, "\nSuggested contract: %s\n", rv.Suggested)
}

func saveEmbeddedFile(rv *review.Review, path string) error {
	if rv.Response.Kind != assessment.ResponseFile {
		return fmt.Errorf("submission %d has no file response", rv.SubmissionID)
	}

	data, err := rv.Response.File.Bytes()
	if err != nil {
		return fmt.Errorf("decoding file response: %w", err)
	}

	return writeFile(path, data)
}

func chooseContractType(cmd *cobra.Command, suggested assessment.ContractType) (assessment.ContractType, error) {
	if value, _ := cmd.Flags().GetString("contract"); strings.TrimSpace(value) != "" {
		return assessment.ParseContractType(value)
	}
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return suggested, nil
	}

	items := []string{string(suggested)}
	for _, ct := range assessment.ContractTypes {
		if ct != suggested {
			items = append(items, string(ct))
		}
	}

	prompt := promptui.Select{
		Label: "Contract type",
		Items: items,
	}

	_, choice, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return assessment.ParseContractType(choice)
}

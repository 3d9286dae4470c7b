package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/workflow"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errCancelled = errors.New("cancelled")

var submitCmd = &cobra.Command{
	Use:   "submit JOB_ID",
	Short: "Submit the assessment of an accepted application",
	Long: "Submit answers for a questions assessment (--answer, one file per question in order)\n" +
		"or a completed document for a PDF assessment (--file).",
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringP("file", "f", "", "completed assessment document")
	submitCmd.Flags().StringArrayP("answer", "a", nil, "file with the code answering the next question")
	submitCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	submitCmd.Flags().String("save-assessment", "", "write an embedded assessment document to this path")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	jobID, err := parseID("job id", args[0])
	if err != nil {
		return err
	}

	env, err := setup()
	if err != nil {
		return err
	}

	flow, apps, err := env.candidateFlow(ctx)
	if err != nil {
		return err
	}

	app, err := findApplication(apps, jobID)
	if err != nil {
		return err
	}

	view := flow.View(app)
	out := cmd.OutOrStdout()

	var submissionID int64
	switch view.Affordance {
	case workflow.AffordanceQuestionsForm:
		answers, _ := cmd.Flags().GetStringArray("answer")
		if err := fillAnswers(view.Answers, answers); err != nil {
			return err
		}
		for i := 0; i < view.Answers.Len(); i++ {
			q, _ := view.Answers.Question(i)
			code, _ := view.Answers.Code(i)
			fmt.Fprintf(out, "--- %d. %s (%s)\n%s\n", i+1, q.Title, q.Language, code)
		}
		if err := confirm(cmd, fmt.Sprintf("Submit %d answers for job %d", view.Answers.Len(), jobID)); err != nil {
			return err
		}
		submissionID, err = flow.SubmitAnswers(ctx, app)

	case workflow.AffordancePDFUpload:
		if target, _ := cmd.Flags().GetString("save-assessment"); target != "" {
			if err := saveAssessment(app.Assessment, target); err != nil {
				return err
			}
			fmt.Fprintf(out, "Assessment saved to %s\n", target)
		}

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			printAssessmentLocation(cmd, app.Assessment)
			return nil
		}
		if err := confirm(cmd, fmt.Sprintf("Submit %s for job %d", filepath.Base(path), jobID)); err != nil {
			return err
		}
		submissionID, err = submitFile(cmd, flow, app, path)

	case workflow.AffordanceAlreadySubmitted:
		err = workflow.ErrAlreadySubmitted
	case workflow.AffordanceAwaitingAcceptance:
		err = workflow.ErrNotEligible
	default:
		err = workflow.ErrNoAssessment
	}

	if err != nil {
		if errors.Is(err, errCancelled) {
			return nil
		}
		return fmt.Errorf("%s: %w", workflow.UserMessage(err), err)
	}

	env.logger.Info("assessment sent", zap.Int64("submission_id", submissionID))
	fmt.Fprintf(out, "Submitted: %d\n", submissionID)
	return nil
}

func printAssessmentLocation(cmd *cobra.Command, spec *assessment.Spec) {
	out := cmd.OutOrStdout()

	doc, embedded := spec.Document()
	if !embedded {
		fmt.Fprintf(out, "Download the assessment at %s and submit it with --file.\n", spec.URL)
		return
	}

	if target, _ := cmd.Flags().GetString("save-assessment"); target == "" {
		fmt.Fprintf(out, "The assessment is attached to the job (%s). Save it with --save-assessment %s and submit it with --file.\n", doc.Mime, doc.Filename)
		return
	}
	fmt.Fprintln(out, "Submit the completed assessment with --file.")
}

func saveAssessment(spec *assessment.Spec, path string) error {
	doc, ok := spec.Document()
	if !ok {
		return fmt.Errorf("the assessment is not attached to the job, download it from %s", spec.URL)
	}

	data, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("decoding assessment: %w", err)
	}

	return writeFile(path, data)
}

func fillAnswers(buf *workflow.AnswerBuffer, paths []string) error {
	if len(paths) > buf.Len() {
		return fmt.Errorf("%d answers given for %d questions", len(paths), buf.Len())
	}

	for i, path := range paths {
		code, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading answer %d: %w", i+1, err)
		}
		if err := buf.Set(i, string(code)); err != nil {
			return err
		}
	}
	return nil
}

func submitFile(cmd *cobra.Command, flow *workflow.CandidateFlow, app *workflow.Application, path string) (int64, error) {
	ctx := cmd.Context()

	upload, err := flow.BeginUpload(ctx, app)
	if err != nil {
		return 0, err
	}
	defer flow.DismissUpload(app)

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if err := upload.Convert(filepath.Base(path), f); err != nil {
		return 0, err
	}

	return flow.SubmitUpload(ctx, upload)
}

func confirm(cmd *cobra.Command, label string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return nil
	}

	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return err
	}
	if answer != PromptYes {
		return errCancelled
	}
	return nil
}

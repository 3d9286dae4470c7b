package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/guard"
	"github.com/spigell/assessment-flow/internal/matching"
	"github.com/spigell/assessment-flow/internal/workflow"
)

var matchCmd = &cobra.Command{
	Use:   "match [JOB_ID]",
	Short: "Explain compatibility scores for the candidate",
	Long:  "Without arguments lists compatible jobs ranked by score. With a job id explains that job's score.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntP("limit", "n", 10, "number of jobs to list")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := setup()
	if err != nil {
		return err
	}

	actor, err := env.actor()
	if err != nil {
		return err
	}

	jobs, err := env.client.GetCompatibleJobs(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", workflow.UserMessage(err), err)
	}
	ranked := matching.Rank(jobs)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}

		for _, r := range ranked {
			if r.Job.JobID == jobID {
				printExplanation(out, r.Job.Title, r.Explanation)
				return nil
			}
		}

		// not in the compatible list: only the overall score is known
		score, err := env.client.GetCompatibility(ctx, actor.ID, jobID)
		if err != nil {
			return fmt.Errorf("%s: %w", workflow.UserMessage(err), err)
		}
		printExplanation(out, fmt.Sprintf("job %d", jobID), matching.Explain(score, nil))
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	jobIDs := make([]int64, len(ranked))
	for i, r := range ranked {
		jobIDs[i] = r.Job.JobID
	}

	applied := guard.NewApplicationGuard(env.client, env.guardConfig(), env.logger)
	report := applied.Load(ctx, actor.ID, jobIDs)
	env.logger.Debug("application check", zap.Int("applied", report.Present), zap.Int("failed", report.Failed))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tTITLE\tCOMPANY\tSCORE\tBAND\tAPPLIED")
	for _, r := range ranked {
		mark := ""
		if applied.Contains(r.Job.JobID) {
			mark = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f\t%s\t%s\n",
			r.Job.JobID, r.Job.Title, r.Job.CompanyName, r.Explanation.Overall, r.Explanation.Band, mark)
	}
	return w.Flush()
}

func printExplanation(out io.Writer, title string, exp matching.Explanation) {
	fmt.Fprintf(out, "%s: %.0f%% (%s)\n\n", title, exp.Overall, exp.Band)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CRITERION\tWEIGHT\tSCORE\tBAND")
	for _, c := range exp.Criteria {
		score := fmt.Sprintf("%.0f", c.Score)
		if c.Defaulted {
			score += " (n/a)"
		}
		fmt.Fprintf(w, "%s\t%d%%\t%s\t%s\n", c.Label, c.Weight, score, c.Band)
	}
	w.Flush()

	fmt.Fprintf(out, "\nWeighted criteria: %.1f\n", exp.WeightedSum)
	printList(out, "Skills in common", exp.CommonSkills)
	printList(out, "Missing skills", exp.MissingSkills)
	printList(out, "Strengths", exp.Strengths)
	printList(out, "Suggestions", exp.Suggestions)
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(items, ", "))
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/filtering"
	"github.com/spigell/assessment-flow/internal/workflow"
)

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List the candidate's applications and what can be done for each",
	RunE:  runApplications,
}

func init() {
	rootCmd.AddCommand(applicationsCmd)

	applicationsCmd.Flags().StringSlice("status", nil, "keep only these statuses (pending, in_review, accepted, rejected)")
	applicationsCmd.Flags().Bool("all", false, "also list applications without an assessment")
	applicationsCmd.Flags().Bool("include-submitted", true, "keep applications whose assessment was already submitted")
	applicationsCmd.Flags().StringP("exclude-file", "e", "", "yaml or json file with a jobs list to hide")
}

func runApplications(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := setup()
	if err != nil {
		return err
	}

	flow, apps, err := env.candidateFlow(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", workflow.UserMessage(err), err)
	}

	statuses, _ := cmd.Flags().GetStringSlice("status")
	includeSubmitted, _ := cmd.Flags().GetBool("include-submitted")
	excludeFile, _ := cmd.Flags().GetString("exclude-file")
	all, _ := cmd.Flags().GetBool("all")

	cfg := &filtering.Config{ExcludeFile: excludeFile, IncludeSubmitted: includeSubmitted}
	for _, s := range statuses {
		cfg.Statuses = append(cfg.Statuses, devmatch.ApplicationStatus(s))
	}

	steps := filtering.DefaultSteps()
	if all {
		filtering.DisableByName(steps, "with_assessment", "--all flag is set")
	}

	apps, err = filtering.Run(ctx, cfg, filtering.Deps{Submissions: flow, Logger: env.logger}, steps, apps)
	if err != nil {
		return fmt.Errorf("filtering applications: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tTITLE\tSTATUS\tASSESSMENT\tSTATE\tACTION")
	for _, app := range apps {
		view := flow.View(app)
		kind := "-"
		if app.Assessment != nil {
			kind = app.Assessment.Kind.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", app.JobID, app.JobTitle, app.Status, kind, view.State, view.Affordance)
	}

	return w.Flush()
}

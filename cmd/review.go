package cmd

import (
	"strings"

	"genesis-intake/models"

	"github.com/spf13/cobra"
)

func reviewCommand() *cobra.Command {
	var (
		status   string
		reviewer string
		notes    string
	)
	cmd := &cobra.Command{
		Use:   "review <submission_id>",
		Short: "Record a review decision for a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			sub, err := rt.Store.UpdateStatus(cmd.Context(), args[0],
				models.SubmissionStatus(strings.ToUpper(strings.TrimSpace(status))), reviewer, notes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sub)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "APPROVED, DEFERRED, REJECTED or PENDING")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "name of the reviewer")
	cmd.Flags().StringVar(&notes, "notes", "", "review notes")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}


package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate submission statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.Store.AggregateStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func leaderboardCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the referral leaderboard as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			if limit <= 0 {
				limit = cfg.LeaderboardDisplay
			}
			board, err := rt.Store.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), board)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries (default LEADERBOARD_DISPLAY)")
	return cmd
}

func referralsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "referrals <referral_id>",
		Short: "Print referral count, rank and chain for one referral code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.Store.ReferralStats(cmd.Context(), strings.ToUpper(strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

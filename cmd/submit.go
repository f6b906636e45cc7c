package cmd

import (
	"time"

	"genesis-intake/services"

	"github.com/spf13/cobra"
)

// submitFlags mirror the public registration form.
type submitFlags struct {
	name         string
	email        string
	organization string
	jurisdiction string
	wallet       string
	role         string
	metal        string
	unit         string
	weight       string
	intendedUse  string
	ref          string
}

func submitCommand() *cobra.Command {
	var f submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Register a submission on behalf of a registrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Intake.Submit(cmd.Context(), f.payload(time.Now().UTC()), "")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"submission_id":     result.Submission.SubmissionID,
				"referral_id":       result.Submission.ReferralID,
				"referral_link":     services.ReferralLink(cfg.BaseURL, result.Submission.ReferralID),
				"email_sent":        result.Notifications.RegistrantSent,
				"internal_notified": result.Notifications.InternalSent,
				"errors":            result.Notifications.Errors,
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "registrant name")
	fl.StringVar(&f.email, "email", "", "registrant email")
	fl.StringVar(&f.organization, "organization", "", "organization (optional)")
	fl.StringVar(&f.jurisdiction, "jurisdiction", "", "jurisdiction")
	fl.StringVar(&f.wallet, "wallet", "", "wallet address (optional)")
	fl.StringVar(&f.role, "role", "", "registrant role")
	fl.StringVar(&f.metal, "metal", "gold", "metal")
	fl.StringVar(&f.unit, "unit", "oz", "weight unit")
	fl.StringVar(&f.weight, "weight", "", "proposed weight")
	fl.StringVar(&f.intendedUse, "intended-use", "", "intended use (optional)")
	fl.StringVar(&f.ref, "ref", "", "referral code of the referrer (optional)")
	for _, name := range []string{"name", "email", "jurisdiction", "role", "weight"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// payload builds the intake body the way the registration page does: the
// submission and referral ids are derived from the form fields and the time.
func (f submitFlags) payload(now time.Time) map[string]any {
	timestamp := now.Format(time.RFC3339Nano)
	referredBy := services.NormalizeReferralCode(f.ref)

	fields := services.SubmissionFields{
		Name:           f.name,
		Email:          f.email,
		Organization:   f.organization,
		Jurisdiction:   f.jurisdiction,
		Wallet:         f.wallet,
		Role:           f.role,
		Metal:          f.metal,
		Unit:           f.unit,
		ProposedWeight: f.weight,
		IntendedUse:    f.intendedUse,
		ReferredBy:     referredBy,
	}

	payload := map[string]any{
		"submission_id":   services.DeriveSubmissionID(fields, timestamp),
		"referral_id":     services.DeriveReferralID(f.email, timestamp, 0),
		"timestamp":       timestamp,
		"name":            f.name,
		"email":           f.email,
		"organization":    f.organization,
		"jurisdiction":    f.jurisdiction,
		"wallet":          f.wallet,
		"role":            f.role,
		"metal":           f.metal,
		"unit":            f.unit,
		"proposed_weight": f.weight,
		"intended_use":    f.intendedUse,
	}
	if referredBy != nil {
		payload["referred_by"] = *referredBy
	}
	return payload
}

package services

import (
	"strings"
	"text/template"
	"time"

	"genesis-intake/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var (
	englishPrinter = message.NewPrinter(language.English)
	titleCaser     = cases.Title(language.English)
)

// FormatWeight renders a weight with grouped thousands and at most four decimals.
func FormatWeight(w decimal.Decimal) string {
	return englishPrinter.Sprint(number.Decimal(w.InexactFloat64(), number.MaxFractionDigits(4)))
}

// MetalName renders a metal the way it reads in correspondence ("gold" → "Gold").
func MetalName(metal string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(metal)))
}

func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

var templateFuncs = template.FuncMap{
	"weight": FormatWeight,
	"metal":  MetalName,
	"short":  shortID,
	"rule":   func() string { return rule },
	"inc":    func(i int) int { return i + 1 },
	"utc": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006 at 15:04")
	},
	"deref": func(s *string, fallback string) string {
		if s == nil || *s == "" {
			return fallback
		}
		return *s
	},
}

var registrantTemplate = template.Must(template.New("registrant").Funcs(templateFuncs).Parse(
	`K IMPERIA — Genesis Registration Confirmed

Your K IMPERIA Genesis Allocation registration has been received.

{{rule}}

SUBMISSION DETAILS

Submission ID: {{short .Sub.SubmissionID 16}}...
Date: {{utc .Sub.Timestamp}} UTC
Metal: {{metal .Sub.Metal}}
Proposed Weight: {{weight .Sub.ProposedWeight}} {{.Sub.Unit}}
Intended Use: {{.Sub.IntendedUse}}
Referred By: {{deref .Sub.ReferredBy "(direct)"}}

{{rule}}

YOUR REFERRAL LINK

Share K IMPERIA with your network:
{{.ReferralURL}}

Anyone who registers through your link will be recorded as your referral.

{{rule}}

IMPORTANT REMINDERS

• This submission is non-binding
• No price, yield, or redemption is implied
• Allocation acceptance is discretionary
• This is not an offer, not a purchase agreement, and does not guarantee eligibility, allocation, or issuance

You will be contacted directly if selected for the next phase of K IMPERIA Genesis issuance.
`))

var internalTemplate = template.Must(template.New("internal").Funcs(templateFuncs).Parse(
	`New K IMPERIA Genesis Allocation Registration

{{rule}}

REGISTRANT INFORMATION

Name: {{.Sub.Name}}
Email: {{.Sub.Email}}
Organization: {{deref .Sub.Organization "N/A"}}
Jurisdiction: {{.Sub.Jurisdiction}}
Role: {{.Sub.Role}}

REFERRAL TRACKING

Referral ID: {{.Sub.ReferralID}}
Referred By: {{deref .Sub.ReferredBy "Direct signup (no referral)"}}

ALLOCATION SIGNAL

Metal: {{metal .Sub.Metal}}
Weight: {{weight .Sub.ProposedWeight}} {{.Sub.Unit}}
Intended Use: {{.Sub.IntendedUse}}

TECHNICAL DETAILS

Submission ID: {{.Sub.SubmissionID}}
Timestamp: {{.Sub.Timestamp.UTC.Format "2006-01-02T15:04:05Z07:00"}}
Wallet: {{deref .Sub.Wallet "Not provided"}}
Status: {{.Sub.Status}}

{{rule}}

Review this allocation in the K IMPERIA back office.
Note: Registration is non-binding. Do not treat as commitment.
`))

var digestTemplate = template.Must(template.New("digest").Funcs(templateFuncs).Parse(
	`K IMPERIA — Genesis Daily Digest ({{utc .GeneratedAt}} UTC)

{{rule}}

TOTALS

Submissions: {{.Stats.Total}}
Pending review: {{len .Pending}}
Jurisdictions: {{.Stats.UniqueJurisdictions}}
Referral rate: {{.ReferralRate}}%
{{range $metal, $w := .Stats.WeightByMetal}}{{metal $metal}}: {{weight $w}}
{{end}}
{{rule}}

TOP REFERRERS
{{if .Leaderboard}}{{range $i, $e := .Leaderboard}}
#{{inc $i}} {{$e.Name}} ({{$e.ReferralID}}): {{$e.ReferralCount}}{{end}}{{else}}
No referral activity yet.{{end}}
`))

type submissionMail struct {
	Sub         *models.Submission
	ReferralURL string
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderRegistrantEmail builds the confirmation sent to the registrant.
func RenderRegistrantEmail(sub *models.Submission, baseURL string) (subject, body string, err error) {
	body, err = render(registrantTemplate, submissionMail{Sub: sub, ReferralURL: ReferralLink(baseURL, sub.ReferralID)})
	return "K IMPERIA — Genesis Registration Confirmed", body, err
}

// RenderInternalEmail builds the notice sent to the internal team.
func RenderInternalEmail(sub *models.Submission) (subject, body string, err error) {
	body, err = render(internalTemplate, submissionMail{Sub: sub})
	return "K IMPERIA — New Genesis Allocation [" + shortID(sub.SubmissionID, 8) + "]", body, err
}

// RenderDigestEmail builds the scheduled internal digest.
func RenderDigestEmail(view models.DashboardView) (subject, body string, err error) {
	body, err = render(digestTemplate, view)
	return "K IMPERIA — Genesis Daily Digest", body, err
}

// ReferralLink is the shareable registration URL for a referral code.
func ReferralLink(baseURL, referralID string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return strings.TrimRight(baseURL, "/") + sep + "ref=" + referralID
}

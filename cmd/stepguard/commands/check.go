// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepguard/stepguard/cmd/stepguard/internal/clierr"
	"github.com/stepguard/stepguard/internal/corpus"
	"github.com/stepguard/stepguard/internal/coverage"
	"github.com/stepguard/stepguard/internal/framework"
	"github.com/stepguard/stepguard/internal/gitio"
	"github.com/stepguard/stepguard/internal/integrity"
	"github.com/stepguard/stepguard/internal/ledger"
	"github.com/stepguard/stepguard/internal/quality"
	"github.com/stepguard/stepguard/internal/verdict"
)

type checkReport struct {
	Verdict  verdict.Verdict   `json:"verdict"`
	Outcomes []verdict.Outcome `json:"check_outcomes"`
	Coverage coverage.Result   `json:"coverage"`
	Quality  quality.Result    `json:"quality"`
}

// NewCheckCmd runs the full enforcement pipeline: integrity, coverage and
// quality in order, aggregated into one verdict and appended to the ledger.
func NewCheckCmd() *cobra.Command {
	var (
		rootFlag  string
		stepsDir  string
		language  string
		policyStr string
		asJSON    bool
		noLedger  bool
	)

	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Run integrity, coverage and quality checks and record the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := verdict.ParsePolicy(policyStr)
			if err != nil {
				return err
			}
			src, root, err := resolveTarget(args[0], rootFlag)
			if err != nil {
				return err
			}
			c, err := corpus.Extract(src)
			if err != nil {
				return err
			}

			if stepsDir == "" {
				stepsDir = root
			}
			profile := framework.Detect(language, stepsDir)
			lang := language
			if lang == "" && profile != nil {
				lang = profile.Language
			}

			repo := gitio.New(repoDir(src))
			store := integrity.NewStore(root)

			in := verdict.IntegrityInputs{Policy: policy}
			var covRes coverage.Result
			var qualRes quality.Result

			pipeline := verdict.NewPipeline(log(), []verdict.Check{
				{Name: "integrity", Run: func(ctx context.Context) (verdict.Status, string, error) {
					var err error
					in.Record, err = store.Verify(args[0])
					if err != nil {
						return "", "", err
					}
					in.Anchor, err = integrity.VerifyAnchor(ctx, repo, c)
					if errors.Is(err, gitio.ErrNoHistory) {
						in.Anchor = integrity.StatusMissing
					} else if err != nil {
						return "", "", err
					}
					if repo.HasHistory(ctx) {
						in.Drift, err = integrity.CheckDrift(ctx, repo, args[0])
						if err != nil {
							return "", "", err
						}
					}
					st, reason := verdict.Decide(in)
					return st, reason, nil
				}},
				{Name: "coverage", Run: func(ctx context.Context) (verdict.Status, string, error) {
					covRes = coverage.New(log()).Run(ctx, len(c.Lines), root, profile)
					return verdict.FromCoverage(covRes.Status), covRes.Details, nil
				}},
				{Name: "quality", Run: func(ctx context.Context) (verdict.Status, string, error) {
					var err error
					qualRes, err = quality.NewAnalyzer(log(), nil).AnalyzeDir(ctx, stepsDir, lang)
					if err != nil {
						return "", "", err
					}
					detail := fmt.Sprintf("%d binding(s), %d defect(s)", qualRes.TotalSteps, qualRes.QualityFail)
					if qualRes.ParserNote != "" {
						detail += "; " + qualRes.ParserNote
					}
					return verdict.FromQuality(qualRes.Status), detail, nil
				}},
			})

			outcomes, _, err := pipeline.Execute(cmd.Context())
			if err != nil {
				return err
			}
			v := verdict.Aggregate(in, covRes, qualRes)

			if !noLedger {
				l, err := ledger.Open(root)
				if err != nil {
					return err
				}
				defer func() { _ = l.Close() }()
				if _, err := l.Append(args[0], string(policy), v); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, checkReport{v, outcomes, covRes, qualRes}); err != nil {
					return err
				}
			} else {
				renderVerdict(out, v, outcomes)
			}

			if v.Overall == verdict.StatusBlocked {
				return clierr.New(exitBlocked, v.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "feature artifact root (default: derived from <path>)")
	cmd.Flags().StringVar(&stepsDir, "steps", "", "step-binding directory (default: the artifact root)")
	cmd.Flags().StringVar(&language, "language", "", "target language or framework token (default: sniffed)")
	cmd.Flags().StringVar(&policyStr, "policy", "optional", "enforcement policy: mandatory, optional or forbidden")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-parseable JSON")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not append the verdict to the run ledger")
	return cmd
}

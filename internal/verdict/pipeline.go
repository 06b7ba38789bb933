// SPDX-License-Identifier: AGPL-3.0-or-later
package verdict

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Check is one named gate in the enforcement pipeline.
type Check struct {
	Name string
	Run  func(ctx context.Context) (Status, string, error)
}

// Outcome records one executed check.
type Outcome struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Pipeline executes checks in order. A failing check never aborts the
// sequence; failures accumulate and the worst status wins. Only an
// operational error (a check that could not run at all) stops execution.
type Pipeline struct {
	log    *zap.Logger
	checks []Check
}

func NewPipeline(log *zap.Logger, checks []Check) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{log: log, checks: checks}
}

// Execute runs every check and returns the outcomes plus the worst status.
func (p *Pipeline) Execute(ctx context.Context) ([]Outcome, Status, error) {
	overall := StatusPass
	outcomes := make([]Outcome, 0, len(p.checks))

	for _, c := range p.checks {
		if err := ctx.Err(); err != nil {
			return outcomes, overall, err
		}
		status, detail, err := c.Run(ctx)
		if err != nil {
			return outcomes, overall, fmt.Errorf("running %s check: %w", c.Name, err)
		}

		p.log.Debug("check finished",
			zap.String("check", c.Name),
			zap.String("status", string(status)))

		outcomes = append(outcomes, Outcome{Name: c.Name, Status: status, Detail: detail})
		overall = Worse(overall, status)
	}
	return outcomes, overall, nil
}

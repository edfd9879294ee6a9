package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// MatchCriteria normalizes events and returns the id of the first criteria
// (in list order) whose query tree holds. The bool is false when no
// criteria holds; that is a normal outcome, not an error.
func MatchCriteria(list []criteria.Criteria, events []ir.Event) (string, bool) {
	normalized := Normalize(events)
	for _, c := range list {
		if EvaluateTree(c.Query, normalized) {
			return c.ID, true
		}
	}
	return "", false
}

// Checker runs MatchCriteria with logging.
//
// Thread-safety: Checker holds no mutable state and is safe for
// concurrent use.
type Checker struct {
	logger *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker. Without WithLogger, logs are discarded.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Match is MatchCriteria with a debug record per evaluated criteria.
func (c *Checker) Match(list []criteria.Criteria, events []ir.Event) (string, bool) {
	normalized := Normalize(events)
	c.logger.Debug("evaluating criteria",
		"criteria", len(list),
		"events", len(events),
		"normalized", len(normalized))

	for _, cr := range list {
		if !EvaluateTree(cr.Query, normalized) {
			c.logger.Debug("criteria not matched", "criteria_id", cr.ID)
			continue
		}
		c.logger.Info("criteria matched", "criteria_id", cr.ID, "name", cr.Name)
		return cr.ID, true
	}
	return "", false
}

// CheckDocument reads a raw criteria document and matches it against
// events. An unreadable document is logged and matches nothing.
func (c *Checker) CheckDocument(raw []byte, events []ir.Event) (string, bool) {
	list, err := criteria.Parse(raw)
	if err != nil {
		c.logger.Warn("criteria document unreadable", "error", err)
		return "", false
	}
	for _, cr := range list {
		if result := criteria.Validate(cr); !result.Clean {
			for _, w := range result.Warnings {
				c.logger.Debug("criteria warning", "criteria_id", cr.ID, "code", w.Code, "path", w.Path, "message", w.Message)
			}
		}
	}
	return c.Match(list, events)
}

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"romscrape/internal/journal"
)

// HistoryCommand lists recorded scrape runs, newest first.
type HistoryCommand struct {
	env      *Env
	systemID string
	limit    int
}

// NewHistoryCommand constructs an executable history command.
func NewHistoryCommand(env *Env, systemID string, limit int) *HistoryCommand {
	return &HistoryCommand{env: env, systemID: systemID, limit: limit}
}

// Run executes the history command logic.
func (c *HistoryCommand) Run(ctx context.Context) error {
	if c.systemID != "" {
		if err := c.env.requireSystem(c.systemID); err != nil {
			return err
		}
	}

	j, err := journal.Open(ctx, c.env.Cfg.JournalPath())
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(ctx, c.systemID, c.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no recorded runs")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(os.Stdout, "#%d %s %s [%s] processed=%d created=%d skipped=%d failed=%d\n",
			run.ID,
			time.Unix(run.EndTime, 0).Format(time.RFC3339),
			run.SystemID,
			run.Provider,
			run.Processed, run.Created, run.Skipped, run.Failed,
		)
	}
	return nil
}

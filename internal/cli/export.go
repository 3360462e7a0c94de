package cli

import (
	"context"
	"fmt"
	"os"

	"glucotrack/internal/report"
	"glucotrack/internal/stats"
)

type ExportCmd struct {
	Out string `help:"Output path. Defaults to glucose-report-YYYY-MM.xlsx." type:"path"`
}

func (c *ExportCmd) Run(ctx *Context) error {
	bg := context.Background()
	a, err := ctx.open(bg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.engine.Now().In(a.location)
	logs := a.engine.Logs()
	summary := stats.Summarize(logs, a.engine.Reminders(), now, report.Days, a.location)

	data, err := report.MonthlyWorkbook(logs, summary, now, a.location)
	if err != nil {
		return err
	}
	path := c.Out
	if path == "" {
		path = report.Filename(now)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Wrote %s (%d readings in the last %d days)\n", path, len(stats.Window(logs, now, report.Days, a.location)), report.Days)
	return nil
}

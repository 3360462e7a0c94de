package cli

import (
	"context"
	"fmt"

	"glucotrack/internal/model"
)

type LogCmd struct {
	Value float64 `required:"" help:"Reading in mg/dL."`
	Label string  `required:"" help:"Routine label, e.g. Fasting or post-lunch."`
}

func (c *LogCmd) Run(ctx *Context) error {
	label, err := model.ParseLabel(c.Label)
	if err != nil {
		return err
	}

	bg := context.Background()
	a, err := ctx.open(bg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.engine.AddLog(bg, c.Value, label)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Logged %g mg/dL for %s (%s)\n", entry.Value, entry.Label, entry.ID)
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

type EvaluateCmd struct {
	DryRun bool `help:"Use the fixed messages instead of calling Gemini."`
}

// Run loads state, runs one evaluation pass and prints what it raised.
func (c *EvaluateCmd) Run(ctx *Context) error {
	bg := context.Background()
	a, err := ctx.open(bg, c.DryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.engine.Tick(bg)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%d notification(s) at %s\n", created, a.engine.Now().In(a.location).Format("2006-01-02 15:04"))

	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(a.engine.Notifications())
}

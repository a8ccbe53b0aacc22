package app

import (
	"context"
	"fmt"
	"os"
)

// CheckCommand reports whether a cache entry exists for one ROM.
type CheckCommand struct {
	env      *Env
	systemID string
	romFile  string
}

// NewCheckCommand constructs an executable check command.
func NewCheckCommand(env *Env, systemID, romFile string) *CheckCommand {
	return &CheckCommand{env: env, systemID: systemID, romFile: romFile}
}

// Run executes the check command logic.
func (c *CheckCommand) Run(ctx context.Context) error {
	if err := c.env.requireSystem(c.systemID); err != nil {
		return err
	}

	if c.env.Service.HasMetadata(c.romFile, c.systemID) {
		fmt.Fprintf(os.Stdout, "cached: %s/%s\n", c.systemID, c.romFile)
		return nil
	}
	return fmt.Errorf("not cached: %s/%s", c.systemID, c.romFile)
}

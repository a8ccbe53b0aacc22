package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// GetCommand prints the cached metadata document for one ROM. It never
// touches the network.
type GetCommand struct {
	env      *Env
	systemID string
	romFile  string
}

// NewGetCommand constructs an executable get command.
func NewGetCommand(env *Env, systemID, romFile string) *GetCommand {
	return &GetCommand{env: env, systemID: systemID, romFile: romFile}
}

// Run executes the get command logic.
func (c *GetCommand) Run(ctx context.Context) error {
	if err := c.env.requireSystem(c.systemID); err != nil {
		return err
	}

	md := c.env.Service.GetMetadata(c.romFile, c.systemID)
	if md == nil {
		return fmt.Errorf("no cached metadata for %s/%s", c.systemID, c.romFile)
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"
)

type ExportCommand struct {
	weightsFile string
	npzOutFile  string
}

var _ subcommands.Command = (*ExportCommand)(nil)

func (*ExportCommand) Name() string {
	return "export"
}

func (*ExportCommand) Synopsis() string {
	return "Convert a safetensors checkpoint to numpy .npz"
}

func (*ExportCommand) Usage() string {
	return `export --weights=<file.safetensors> --npz-out=<file.npz>

Writes one layer_<l>.npy array per weight block, bias in the last column.
`
}

func (c *ExportCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightsFile, "weights", "tinynn-out.safetensors", "Path to the weights produced by the train command")
	f.StringVar(&c.npzOutFile, "npz-out", "tinynn-out.npz", "Path of the .npz file to write")
}

func (c *ExportCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *ExportCommand) executeErr(ctx context.Context) error {
	net, err := loadCheckpoint(c.weightsFile)
	if err != nil {
		return fmt.Errorf("while loading weights: %w", err)
	}

	if err := writeNPZ(net.CloneWeights(), c.npzOutFile); err != nil {
		return fmt.Errorf("while writing npz weights: %w", err)
	}

	log.Printf("Wrote %d weight blocks to %s", len(net.Layers())-1, c.npzOutFile)
	return nil
}

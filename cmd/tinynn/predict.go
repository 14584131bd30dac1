package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/google/subcommands"
)

type PredictCommand struct {
	weightsFile string
	inputs      string

	stdout io.Writer
}

var _ subcommands.Command = (*PredictCommand)(nil)

func (*PredictCommand) Name() string {
	return "predict"
}

func (*PredictCommand) Synopsis() string {
	return "Predict using trained weights"
}

func (*PredictCommand) Usage() string {
	return `predict --weights=<file.safetensors> --inputs=0,1,0.5
`
}

func (c *PredictCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightsFile, "weights", "tinynn-out.safetensors", "Path to the weights produced by the train command")
	f.StringVar(&c.inputs, "inputs", "", "Comma separated input values")
}

func (c *PredictCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *PredictCommand) executeErr(ctx context.Context) error {
	net, err := loadCheckpoint(c.weightsFile)
	if err != nil {
		return fmt.Errorf("while loading weights: %w", err)
	}

	x, err := parseFloats(c.inputs)
	if err != nil {
		return fmt.Errorf("while parsing inputs: %w", err)
	}

	pred, err := net.Predict(x)
	if err != nil {
		return fmt.Errorf("while predicting: %w", err)
	}

	fmt.Fprintln(c.stdout, formatFloats(pred))
	return nil
}

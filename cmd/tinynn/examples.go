package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"

	"github.com/ahmedtd/tinynn/dataset"
	"github.com/ahmedtd/tinynn/toolbox"
	"github.com/google/subcommands"
	"gonum.org/v1/gonum/stat"
)

const (
	syntheticInputs = 5
	syntheticTests  = 10
)

// SyntheticCommand trains a fixed network on freshly generated examples, one
// new example per iteration, and then compares predictions with the true
// labels of a few more.
type SyntheticCommand struct {
	name     string
	synopsis string

	topology          string
	learningRate      float64
	defaultIterations int
	generate          func(r *rand.Rand, width int) dataset.Example

	iterations  int
	reportEvery int
	seed        int64

	stdout io.Writer
}

var _ subcommands.Command = (*SyntheticCommand)(nil)

// SumCommand learns the sum of five inputs.  The relu output layer lets the
// prediction exceed 1.
func SumCommand(stdout io.Writer) *SyntheticCommand {
	return &SyntheticCommand{
		name:              "sum",
		synopsis:          "Learn the sum of five random inputs",
		topology:          "5:sigmoid,10:sigmoid,5:sigmoid,1:relu",
		learningRate:      0.1,
		defaultIterations: 1000000,
		generate:          dataset.Sum,
		stdout:            stdout,
	}
}

func AverageCommand(stdout io.Writer) *SyntheticCommand {
	return &SyntheticCommand{
		name:              "average",
		synopsis:          "Learn the average of five random inputs",
		topology:          "5:sigmoid,10:sigmoid,5:sigmoid,1:sigmoid",
		learningRate:      toolbox.DefaultLearningRate,
		defaultIterations: 10000000,
		generate:          dataset.Average,
		stdout:            stdout,
	}
}

func (c *SyntheticCommand) Name() string {
	return c.name
}

func (c *SyntheticCommand) Synopsis() string {
	return c.synopsis
}

func (c *SyntheticCommand) Usage() string {
	return fmt.Sprintf(`%s [flags]

Trains %s and prints "predicted actual difference" for %d new examples.
`, c.name, c.topology, syntheticTests)
}

func (c *SyntheticCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.iterations, "iterations", c.defaultIterations, "Number of training examples to generate")
	f.IntVar(&c.reportEvery, "report-every", 100000, "Log the mean loss every this many iterations")
	f.Int64Var(&c.seed, "seed", 1, "Seed for generating examples")
}

func (c *SyntheticCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *SyntheticCommand) executeErr(ctx context.Context) error {
	layers, err := toolbox.ParseTopology(c.topology)
	if err != nil {
		return fmt.Errorf("while parsing topology: %w", err)
	}
	net, err := toolbox.NewNetwork(layers, c.learningRate)
	if err != nil {
		return fmt.Errorf("while building network: %w", err)
	}

	r := rand.New(rand.NewSource(c.seed))

	window := []float64{}
	for i := 0; i < c.iterations; i++ {
		ex := c.generate(r, syntheticInputs)
		loss, err := net.Train(ex.Inputs, ex.Targets)
		if err != nil {
			return fmt.Errorf("while training iteration %d: %w", i, err)
		}
		window = append(window, loss)

		if c.reportEvery > 0 && (i+1)%c.reportEvery == 0 {
			log.Printf("iteration %d mean-loss=%g", i+1, stat.Mean(window, nil))
			window = window[:0]
		}
	}

	for i := 0; i < syntheticTests; i++ {
		ex := c.generate(r, syntheticInputs)
		pred, err := net.Predict(ex.Inputs)
		if err != nil {
			return fmt.Errorf("while predicting: %w", err)
		}
		fmt.Fprintf(c.stdout, "%.6f %.6f %.6f\n", pred[0], ex.Targets[0], pred[0]-ex.Targets[0])
	}

	return nil
}

// Command tinynn trains small feedforward networks and runs them.
//
// To train: `go run ./cmd/tinynn train --descriptor=toolbox/testdata/with_hidden.txt`
//
// To predict: `go run ./cmd/tinynn predict --weights=tinynn-out.safetensors --inputs=1,0,0,1`
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/ahmedtd/tinynn/dataset"
	"github.com/ahmedtd/tinynn/toolbox"
	"github.com/google/subcommands"
	"gonum.org/v1/gonum/stat"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&TrainCommand{stdout: os.Stdout}, "")
	subcommands.Register(&PredictCommand{stdout: os.Stdout}, "")
	subcommands.Register(&ExportCommand{}, "")
	subcommands.Register(SumCommand(os.Stdout), "examples")
	subcommands.Register(AverageCommand(os.Stdout), "examples")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

type TrainCommand struct {
	descriptorFile string
	dataFile       string

	topology     string
	learningRate float64
	iterations   int
	reportEvery  int

	fromCheckpointFile string
	outputWeightFile   string
	npzOutFile         string

	cpuProfileFile string

	stdout io.Writer
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string {
	return "train"
}

func (*TrainCommand) Synopsis() string {
	return "Train a network"
}

func (*TrainCommand) Usage() string {
	return `train (--descriptor=<file> | --data-file=<file.npz> --topology=<layers>) [flags]

Trains a network one example at a time and writes its weights.  When a
descriptor is given, its test inputs are predicted at the end.
`
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.descriptorFile, "descriptor", "", "Path to a text training descriptor")
	f.StringVar(&c.dataFile, "data-file", "", "Path to an .npz file holding x.npy and y.npy")

	f.StringVar(&c.topology, "topology", "", "Layers such as 16:sigmoid,4:sigmoid,1:sigmoid (default: all-sigmoid layers from the descriptor)")
	f.Float64Var(&c.learningRate, "learning-rate", toolbox.DefaultLearningRate, "Gradient descent step size")
	f.IntVar(&c.iterations, "iterations", 0, "Passes over the training examples (default: the descriptor's count, or 1)")
	f.IntVar(&c.reportEvery, "report-every", 1, "Log the mean loss every this many passes")

	f.StringVar(&c.fromCheckpointFile, "from-checkpoint", "", "Path to a checkpoint to continue training from")
	f.StringVar(&c.outputWeightFile, "output-weight-file", "tinynn-out.safetensors", "Path to save trained weights (safetensors format)")
	f.StringVar(&c.npzOutFile, "npz-out", "", "Also save trained weights to this .npz file")

	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *TrainCommand) executeErr(ctx context.Context) error {
	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var (
		examples dataset.Examples
		tests    [][]float64
		layers   []toolbox.Layer
	)
	iterations := 1

	switch {
	case c.descriptorFile != "" && c.dataFile != "":
		return fmt.Errorf("--descriptor and --data-file are mutually exclusive")
	case c.descriptorFile != "":
		d, err := dataset.LoadDescriptor(c.descriptorFile)
		if err != nil {
			return fmt.Errorf("while loading descriptor: %w", err)
		}
		examples, tests, iterations = d.Training, d.Tests, d.Iterations
		for _, w := range d.Widths() {
			layers = append(layers, toolbox.Layer{Neurons: w, Activation: toolbox.Sigmoid})
		}
	case c.dataFile != "":
		var err error
		examples, err = dataset.LoadNPZ(c.dataFile)
		if err != nil {
			return fmt.Errorf("while loading data file: %w", err)
		}
		if c.topology == "" && c.fromCheckpointFile == "" {
			return fmt.Errorf("--topology is required with --data-file")
		}
	default:
		return fmt.Errorf("one of --descriptor or --data-file is required")
	}
	if c.iterations > 0 {
		iterations = c.iterations
	}

	if c.topology != "" {
		var err error
		layers, err = toolbox.ParseTopology(c.topology)
		if err != nil {
			return fmt.Errorf("while parsing topology: %w", err)
		}
	}

	var net *toolbox.Network
	if c.fromCheckpointFile != "" {
		var err error
		net, err = loadCheckpoint(c.fromCheckpointFile)
		if err != nil {
			return fmt.Errorf("while loading initial checkpoint: %w", err)
		}
		log.Printf("Continuing from %s with topology %s", c.fromCheckpointFile, toolbox.FormatTopology(net.Layers()))
	} else {
		var err error
		net, err = toolbox.NewNetwork(layers, c.learningRate)
		if err != nil {
			return fmt.Errorf("while building network: %w", err)
		}
	}

	log.Printf("Training %s on %d examples for %d passes", toolbox.FormatTopology(net.Layers()), len(examples), iterations)

	losses := make([]float64, len(examples))
	for pass := 0; pass < iterations; pass++ {
		for k, ex := range examples {
			loss, err := net.Train(ex.Inputs, ex.Targets)
			if err != nil {
				return fmt.Errorf("while training on example %d: %w", k, err)
			}
			losses[k] = loss
		}

		if c.reportEvery > 0 && ((pass+1)%c.reportEvery == 0 || pass == iterations-1) && len(losses) > 0 {
			log.Printf("pass %d mean-loss=%g", pass+1, stat.Mean(losses, nil))
		}
	}

	if err := writeCheckpoint(net, c.outputWeightFile); err != nil {
		return fmt.Errorf("while writing checkpoint: %w", err)
	}
	if c.npzOutFile != "" {
		if err := writeNPZ(net.CloneWeights(), c.npzOutFile); err != nil {
			return fmt.Errorf("while writing npz weights: %w", err)
		}
	}

	for _, in := range tests {
		out, err := net.Predict(in)
		if err != nil {
			return fmt.Errorf("while predicting %v: %w", in, err)
		}
		fmt.Fprintf(c.stdout, "%s -> %s\n", formatFloats(in), formatFloats(out))
	}

	return nil
}

func loadCheckpoint(path string) (*toolbox.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening checkpoint file: %w", err)
	}
	defer f.Close()

	return toolbox.ReadCheckpoint(f)
}

func writeCheckpoint(net *toolbox.Network, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating checkpoint file: %w", err)
	}
	defer f.Close()

	if err := net.WriteCheckpoint(f); err != nil {
		return err
	}

	return f.Close()
}

func writeNPZ(w *toolbox.WeightTensor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating npz file: %w", err)
	}
	defer f.Close()

	if err := toolbox.WriteNPZ(f, w); err != nil {
		return err
	}

	return f.Close()
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// parseFloats parses a comma separated list such as "0,1,0.5".
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty value list")
	}
	parts := strings.Split(s, ",")
	vs := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("while parsing value %d: %w", i, err)
		}
		vs[i] = v
	}
	return vs, nil
}

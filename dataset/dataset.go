// Package dataset loads and generates training examples for toolbox networks.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type Example struct {
	Inputs  []float64
	Targets []float64
}

type Examples []Example

// Descriptor is a complete training scenario: a topology, a number of
// passes over the training examples, and inputs to predict afterwards.
//
// The text form is
//
//	<inputs> <outputs> <hidden layers> <tests> <examples> <iterations>
//	<hidden layer sizes, blank when there are none>
//	<test input digits>               (one line per test)
//	<input digits> <target digits>    (one line per example)
//
// where every digit is one value, e.g. "0110 1".
type Descriptor struct {
	Inputs     int
	Outputs    int
	Hidden     []int
	Iterations int
	Tests      [][]float64
	Training   Examples
}

// Widths returns the layer widths, input layer first.
func (d *Descriptor) Widths() []int {
	widths := make([]int, 0, len(d.Hidden)+2)
	widths = append(widths, d.Inputs)
	widths = append(widths, d.Hidden...)
	return append(widths, d.Outputs)
}

// LineError reports a malformed descriptor line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("at line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

var errMissingLine = errors.New("unexpected end of descriptor")

func LoadDescriptor(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening descriptor: %w", err)
	}
	defer f.Close()

	d, err := ParseDescriptor(f)
	if err != nil {
		return nil, fmt.Errorf("while parsing %s: %w", path, err)
	}
	return d, nil
}

func ParseDescriptor(r io.Reader) (*Descriptor, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	next := func() (string, error) {
		lineNum++
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", &LineError{Line: lineNum, Err: errMissingLine}
		}
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}

	line, err := next()
	if err != nil {
		return nil, err
	}
	header, err := parseInts(line, 6)
	if err != nil {
		return nil, &LineError{Line: lineNum, Err: err}
	}
	for _, v := range header {
		if v < 0 {
			return nil, &LineError{Line: lineNum, Err: fmt.Errorf("negative count in header %v", header)}
		}
	}
	d := &Descriptor{
		Inputs:     header[0],
		Outputs:    header[1],
		Iterations: header[5],
	}
	if d.Inputs == 0 || d.Outputs == 0 {
		return nil, &LineError{Line: lineNum, Err: fmt.Errorf("input and output layers need at least one neuron")}
	}
	hiddenCount, testCount, trainCount := header[2], header[3], header[4]

	line, err = next()
	if err != nil {
		return nil, err
	}
	d.Hidden, err = parseInts(line, hiddenCount)
	if err != nil {
		return nil, &LineError{Line: lineNum, Err: err}
	}
	for _, h := range d.Hidden {
		if h <= 0 {
			return nil, &LineError{Line: lineNum, Err: fmt.Errorf("hidden layer size %d is not positive", h)}
		}
	}

	d.Tests = make([][]float64, testCount)
	for i := range d.Tests {
		line, err := next()
		if err != nil {
			return nil, err
		}
		d.Tests[i], err = parseDigits(strings.TrimSpace(line), d.Inputs)
		if err != nil {
			return nil, &LineError{Line: lineNum, Err: err}
		}
	}

	d.Training = make(Examples, trainCount)
	for i := range d.Training {
		line, err := next()
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &LineError{Line: lineNum, Err: fmt.Errorf("expected inputs and targets, got %d fields", len(fields))}
		}
		inputs, err := parseDigits(fields[0], d.Inputs)
		if err != nil {
			return nil, &LineError{Line: lineNum, Err: fmt.Errorf("parsing inputs: %w", err)}
		}
		targets, err := parseDigits(fields[1], d.Outputs)
		if err != nil {
			return nil, &LineError{Line: lineNum, Err: fmt.Errorf("parsing targets: %w", err)}
		}
		d.Training[i] = Example{Inputs: inputs, Targets: targets}
	}

	return d, nil
}

func parseInts(line string, want int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d values, got %d", want, len(fields))
	}
	values := make([]int, want)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", f, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseDigits(s string, want int) ([]float64, error) {
	if len(s) != want {
		return nil, fmt.Errorf("expected %d digits, got %q", want, s)
	}
	values := make([]float64, want)
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, fmt.Errorf("%q is not a digit", s[i])
		}
		values[i] = float64(s[i] - '0')
	}
	return values, nil
}

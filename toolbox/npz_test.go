package toolbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ahmedtd/tinynn/dataset"
	"github.com/google/go-cmp/cmp"
)

func TestNPZRoundTrip(t *testing.T) {
	net := mustNetwork(t, sigmoidLayers(3, 4, 2), 0.5)
	if _, err := net.Train([]float64{1, 0, 1}, []float64{0, 1}); err != nil {
		t.Fatalf("Train(): %v", err)
	}
	want := net.CloneWeights()

	path := filepath.Join(t.TempDir(), "weights.npz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create(): %v", err)
	}
	if err := WriteNPZ(f, want); err != nil {
		t.Fatalf("WriteNPZ(): %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	got, err := ReadNPZ(path)
	if err != nil {
		t.Fatalf("ReadNPZ(): %v", err)
	}
	if diff := cmp.Diff(got.Widths(), []int{3, 4, 2}); diff != "" {
		t.Errorf("Wrong widths; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(got.Nested(), want.Nested()); diff != "" {
		t.Errorf("Weights did not round-trip; diff (-got +want)\n%s", diff)
	}
	if err := net.SetWeights(got, false); err != nil {
		t.Errorf("SetWeights() of npz tensor: %v", err)
	}
}

func TestReadNPZRejectsDatasetArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.npz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create(): %v", err)
	}
	examples := dataset.Examples{{Inputs: []float64{0, 1}, Targets: []float64{1}}}
	if err := dataset.WriteNPZ(f, examples); err != nil {
		t.Fatalf("dataset.WriteNPZ(): %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	if _, err := ReadNPZ(path); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("ReadNPZ() of a dataset archive; got err %v, want %v", err, ErrShapeMismatch)
	}
	if _, err := ReadNPZ(filepath.Join(t.TempDir(), "missing.npz")); err == nil {
		t.Errorf("ReadNPZ() of missing file succeeded")
	}
}

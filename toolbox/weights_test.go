package toolbox

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCloneWeightsIsIndependent(t *testing.T) {
	net := mustNetwork(t, sigmoidLayers(2, 2, 1), 0.5)
	snapshot := net.CloneWeights()
	want := snapshot.Clone().Values()

	if _, err := net.Train([]float64{1, 1}, []float64{0}); err != nil {
		t.Fatalf("Train(): %v", err)
	}
	if diff := cmp.Diff(snapshot.Values(), want); diff != "" {
		t.Errorf("Training changed a snapshot; diff (-got +want)\n%s", diff)
	}

	snapshot.Values()[0] = 100
	if got := net.CloneWeights().Values()[0]; got == 100 {
		t.Errorf("Editing a snapshot reached the network")
	}
}

func TestSetWeightsRestoresPredictions(t *testing.T) {
	for _, deepCopy := range []bool{true, false} {
		net := mustNetwork(t, sigmoidLayers(3, 4, 2), 0.5)
		in := []float64{0.3, 0.6, 0.9}

		snapshot := net.CloneWeights()
		want, err := net.Predict(in)
		if err != nil {
			t.Fatalf("Predict(): %v", err)
		}

		for i := 0; i < 20; i++ {
			if _, err := net.Train(in, []float64{1, 0}); err != nil {
				t.Fatalf("Train(): %v", err)
			}
		}

		if err := net.SetWeights(snapshot, deepCopy); err != nil {
			t.Fatalf("SetWeights(deepCopy=%v): %v", deepCopy, err)
		}
		got, err := net.Predict(in)
		if err != nil {
			t.Fatalf("Predict(): %v", err)
		}
		if diff := cmp.Diff(got, want); diff != "" {
			t.Errorf("SetWeights(deepCopy=%v) did not restore predictions; diff (-got +want)\n%s", deepCopy, diff)
		}
	}
}

func TestSetWeightsDeepCopy(t *testing.T) {
	net := mustNetwork(t, sigmoidLayers(1, 1), 0.5)
	w := net.CloneWeights()
	w.Set(0, 0, 0, 2)

	if err := net.SetWeights(w, true); err != nil {
		t.Fatalf("SetWeights(): %v", err)
	}
	w.Set(0, 0, 0, 5)
	if got := net.CloneWeights().At(0, 0, 0); got != 2 {
		t.Errorf("deep copied weight; got %v, want 2", got)
	}

	if err := net.SetWeights(w, false); err != nil {
		t.Fatalf("SetWeights(): %v", err)
	}
	w.Set(0, 0, 0, 7)
	if got := net.CloneWeights().At(0, 0, 0); got != 7 {
		t.Errorf("shared weight; got %v, want 7", got)
	}
}

func TestSetWeightsRejectsMismatch(t *testing.T) {
	net := mustNetwork(t, sigmoidLayers(2, 3, 1), 0.5)
	before := net.CloneWeights().Values()

	other := mustNetwork(t, sigmoidLayers(3, 2, 1), 0.5).CloneWeights()
	sameCount, err := WeightTensorFromNested([][][]float64{{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}}})
	if err != nil {
		t.Fatalf("WeightTensorFromNested(): %v", err)
	}

	for name, w := range map[string]*WeightTensor{
		"nil":               nil,
		"other topology":    other,
		"same weight count": sameCount,
		"zero value":        &WeightTensor{},
	} {
		if err := net.SetWeights(w, true); !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("%s: got err %v, want %v", name, err, ErrShapeMismatch)
		}
	}

	if diff := cmp.Diff(net.CloneWeights().Values(), before); diff != "" {
		t.Errorf("Rejected SetWeights changed the network; diff (-got +want)\n%s", diff)
	}
}

func TestWeightsJSONRoundTrip(t *testing.T) {
	net := mustNetwork(t, sigmoidLayers(4, 3, 2), 0.5)
	for i := 0; i < 5; i++ {
		if _, err := net.Train([]float64{1, 0, 0.5, 0.25}, []float64{0.1, 0.9}); err != nil {
			t.Fatalf("Train(): %v", err)
		}
	}
	want := net.CloneWeights()

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("json.Marshal(): %v", err)
	}

	got := &WeightTensor{}
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if diff := cmp.Diff(got.Nested(), want.Nested()); diff != "" {
		t.Errorf("JSON round trip lost weights; diff (-got +want)\n%s", diff)
	}
	if err := net.SetWeights(got, false); err != nil {
		t.Errorf("SetWeights() of decoded tensor: %v", err)
	}

	if err := json.Unmarshal([]byte(`[[[1, 2], [3]]]`), &WeightTensor{}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Unmarshal of ragged weights; got err %v, want %v", err, ErrShapeMismatch)
	}
}

func TestDumpAndLoadTensors(t *testing.T) {
	src := mustNetwork(t, sigmoidLayers(2, 3, 1), 0.5)
	if _, err := src.Train([]float64{1, 0}, []float64{1}); err != nil {
		t.Fatalf("Train(): %v", err)
	}

	tensors := map[string]*AF64{}
	src.DumpTensors(tensors)
	if diff := cmp.Diff(tensors["net.0.weights"].Shape, []int{3, 3}); diff != "" {
		t.Errorf("Wrong shape for net.0.weights; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(tensors["net.1.weights"].Shape, []int{1, 4}); diff != "" {
		t.Errorf("Wrong shape for net.1.weights; diff (-got +want)\n%s", diff)
	}

	dst := mustNetwork(t, sigmoidLayers(2, 3, 1), 0.5)
	if err := dst.LoadTensors(tensors); err != nil {
		t.Fatalf("LoadTensors(): %v", err)
	}
	if diff := cmp.Diff(dst.CloneWeights().Values(), src.CloneWeights().Values()); diff != "" {
		t.Errorf("LoadTensors() lost weights; diff (-got +want)\n%s", diff)
	}

	delete(tensors, "net.1.weights")
	fresh := mustNetwork(t, sigmoidLayers(2, 3, 1), 0.5)
	before := fresh.CloneWeights().Values()
	if err := fresh.LoadTensors(tensors); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("LoadTensors() with missing block; got err %v, want %v", err, ErrShapeMismatch)
	}
	if diff := cmp.Diff(fresh.CloneWeights().Values(), before); diff != "" {
		t.Errorf("Failed LoadTensors() changed weights; diff (-got +want)\n%s", diff)
	}
}

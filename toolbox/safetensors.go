package toolbox

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
)

const safeTensorsMetadataKey = "__metadata__"

type SafeTensorInfo struct {
	DType       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets []int  `json:"data_offsets"`
}

// WriteSafeTensors writes tensors in the safetensors format with dtype F64.
// metadata may be nil.
func WriteSafeTensors(w io.Writer, tensors map[string]*AF64, metadata map[string]string) error {
	header := map[string]any{}
	dataOffset := 0

	keys := []string{}
	for k := range tensors {
		if k == safeTensorsMetadataKey {
			return fmt.Errorf("tensor name %s is reserved", k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		begin := dataOffset
		dataOffset += len(tensors[k].V) * 8
		end := dataOffset

		header[k] = SafeTensorInfo{
			DType:       "F64",
			Shape:       tensors[k].Shape,
			DataOffsets: []int{begin, end},
		}
	}
	if len(metadata) > 0 {
		header[safeTensorsMetadataKey] = metadata
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerBytes))); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	for _, k := range keys {
		if err := binary.Write(w, binary.LittleEndian, tensors[k].V); err != nil {
			return fmt.Errorf("while writing %s values: %w", k, err)
		}
	}

	return nil
}

// ReadSafeTensors reads a file written by WriteSafeTensors.  Only F64 tensors
// are supported.
func ReadSafeTensors(r io.Reader) (map[string]*AF64, map[string]string, error) {
	var headerLen uint64
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLen > 100<<20 {
		return nil, nil, fmt.Errorf("header length %d is too large", headerLen)
	}

	headerBytes := make([]byte, int(headerLen))
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, nil, fmt.Errorf("while reading header: %w", err)
	}

	rawHeader := map[string]json.RawMessage{}
	if err := json.Unmarshal(headerBytes, &rawHeader); err != nil {
		return nil, nil, fmt.Errorf("while reading header: %w", err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("while reading tensor data: %w", err)
	}

	var metadata map[string]string
	tensors := map[string]*AF64{}
	for k, raw := range rawHeader {
		if k == safeTensorsMetadataKey {
			if err := json.Unmarshal(raw, &metadata); err != nil {
				return nil, nil, fmt.Errorf("while reading metadata: %w", err)
			}
			continue
		}

		var hdr SafeTensorInfo
		if err := json.Unmarshal(raw, &hdr); err != nil {
			return nil, nil, fmt.Errorf("while reading header for %s: %w", k, err)
		}
		if hdr.DType != "F64" {
			return nil, nil, fmt.Errorf("unsupported dtype %s", hdr.DType)
		}

		size := 1
		for _, s := range hdr.Shape {
			if s < 1 {
				return nil, nil, fmt.Errorf("bad shape %v", hdr.Shape)
			}
			size *= s
		}

		if len(hdr.DataOffsets) != 2 {
			return nil, nil, fmt.Errorf("bad data offsets %v for %s", hdr.DataOffsets, k)
		}
		begin, end := hdr.DataOffsets[0], hdr.DataOffsets[1]
		if begin < 0 || end > len(body) || end-begin != size*8 {
			return nil, nil, fmt.Errorf("data offsets %v for %s do not fit shape %v", hdr.DataOffsets, k, hdr.Shape)
		}

		tensor := &AF64{
			V:     make([]float64, size),
			Shape: hdr.Shape,
		}
		if err := binary.Read(bytes.NewReader(body[begin:end]), binary.LittleEndian, tensor.V); err != nil {
			return nil, nil, fmt.Errorf("while reading bytes for %s: %w", k, err)
		}

		tensors[k] = tensor
	}

	return tensors, metadata, nil
}

const (
	topologyMetadataKey     = "topology"
	learningRateMetadataKey = "learning_rate"
)

// WriteCheckpoint writes the network topology, learning rate and weights in
// the safetensors format.
func (net *Network) WriteCheckpoint(w io.Writer) error {
	tensors := map[string]*AF64{}
	net.DumpTensors(tensors)

	metadata := map[string]string{
		topologyMetadataKey:     FormatTopology(net.layers),
		learningRateMetadataKey: strconv.FormatFloat(net.learningRate, 'g', -1, 64),
	}

	if err := WriteSafeTensors(w, tensors, metadata); err != nil {
		return fmt.Errorf("while writing checkpoint tensors: %w", err)
	}
	return nil
}

// ReadCheckpoint rebuilds a network from a file written by WriteCheckpoint.
func ReadCheckpoint(r io.Reader) (*Network, error) {
	tensors, metadata, err := ReadSafeTensors(r)
	if err != nil {
		return nil, fmt.Errorf("while reading checkpoint tensors: %w", err)
	}

	topology, ok := metadata[topologyMetadataKey]
	if !ok {
		return nil, fmt.Errorf("checkpoint has no %s metadata", topologyMetadataKey)
	}
	layers, err := ParseTopology(topology)
	if err != nil {
		return nil, fmt.Errorf("while parsing checkpoint topology: %w", err)
	}

	learningRate := DefaultLearningRate
	if s, ok := metadata[learningRateMetadataKey]; ok {
		learningRate, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("while parsing checkpoint learning rate: %w", err)
		}
	}

	net, err := NewNetwork(layers, learningRate)
	if err != nil {
		return nil, fmt.Errorf("while building network: %w", err)
	}
	if err := net.LoadTensors(tensors); err != nil {
		return nil, fmt.Errorf("while restoring weights: %w", err)
	}
	return net, nil
}

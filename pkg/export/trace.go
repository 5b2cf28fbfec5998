package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
)

// TraceVersion is the current trace layout.
const TraceVersion = 1

// CompressedExt marks snappy-framed trace files.
const CompressedExt = ".sz"

// snappy framing format stream identifier
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// ErrUnsupportedTrace is returned for traces written by a newer layout.
var ErrUnsupportedTrace = errors.New("unsupported trace version")

// Trace is a self-contained record of one run: the resolved nodes, the
// seed that drove it and its result. It is enough to replay the cascade
// step by step without the original graph file.
type Trace struct {
	Version int                `json:"version"`
	Seed    *uint64            `json:"seed,omitempty"`
	Nodes   []graph.Node       `json:"nodes"`
	Result  *simulation.Result `json:"result"`
}

// NewTrace bundles res with the nodes of g.
func NewTrace(g *graph.Graph, res *simulation.Result, seed *uint64) *Trace {
	return &Trace{Version: TraceVersion, Seed: seed, Nodes: g.Nodes(), Result: res}
}

// WriteTrace writes t as JSON.
func WriteTrace(w io.Writer, t *Trace) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	return nil
}

// WriteCompressedTrace writes t as snappy-framed JSON.
func WriteCompressedTrace(w io.Writer, t *Trace) error {
	sw := snappy.NewBufferedWriter(w)
	if err := WriteTrace(sw, t); err != nil {
		return err
	}
	return sw.Close()
}

// ReadTrace reads a trace, detecting snappy framing from the stream header.
func ReadTrace(r io.Reader) (*Trace, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(snappyMagic)); bytes.Equal(head, snappyMagic) {
		r = snappy.NewReader(br)
	} else {
		r = br
	}

	var t Trace
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	if t.Version > TraceVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTrace, t.Version)
	}
	if t.Result == nil {
		return nil, errors.New("decode trace: missing result")
	}
	return &t, nil
}

// SaveTrace writes t to path, compressed when path ends in .sz.
func SaveTrace(path string, t *Trace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if strings.HasSuffix(path, CompressedExt) {
		return WriteCompressedTrace(f, t)
	}
	return WriteTrace(f, t)
}

// LoadTrace reads the trace stored at path.
func LoadTrace(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return ReadTrace(f)
}

// SaveZip writes the CSV archive of res, a run over g, to path.
func SaveZip(path string, g *graph.Graph, res *simulation.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteZip(f, g, res)
}

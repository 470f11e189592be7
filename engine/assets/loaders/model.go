package loaders

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-playground/engine/core"
	"github.com/spaghettifunk/anima-playground/engine/math"
	"github.com/spaghettifunk/anima-playground/engine/platform"
	"github.com/spaghettifunk/anima-playground/engine/renderer/metadata"
)

// LineSource yields lines until it returns io.EOF.
type LineSource interface {
	Next() (string, error)
}

type importOptions struct {
	strictPositions bool
	readerOptions   []platform.LineReaderOption
}

type ImportOption func(*importOptions)

// WithStrictPositions makes a `v` line with a non-numeric component fail the
// import instead of skipping the token.
func WithStrictPositions(strict bool) ImportOption {
	return func(o *importOptions) {
		o.strictPositions = strict
	}
}

// WithReaderOptions configures the line reader used by ImportOBJ.
func WithReaderOptions(options ...platform.LineReaderOption) ImportOption {
	return func(o *importOptions) {
		o.readerOptions = append(o.readerOptions, options...)
	}
}

func buildImportOptions(options []ImportOption) *importOptions {
	opts := &importOptions{}
	for _, o := range options {
		o(opts)
	}
	return opts
}

// ImportOBJ reads the model file at path and repacks it into a MeshRecord.
// The file is closed before ImportOBJ returns, whatever the outcome.
func ImportOBJ(path string, options ...ImportOption) (mr *metadata.MeshRecord, err error) {
	opts := buildImportOptions(options)

	lr, err := platform.OpenLineReader(path, opts.readerOptions...)
	if err != nil {
		return nil, &core.ImportError{Path: path, Err: err}
	}
	defer func() {
		if cerr := lr.Close(); cerr != nil && err == nil {
			mr, err = nil, &core.ImportError{Path: path, Err: cerr}
		}
	}()

	mr, err = decode(lr, path, opts)
	if err != nil {
		return nil, err
	}
	core.LogDebug("imported '%s': %d vertices, %d indices, %d ignored lines",
		path, len(mr.Vertices), len(mr.Indices), mr.Stats.IgnoredLines)
	return mr, nil
}

// DecodeOBJ repacks the lines produced by src into a MeshRecord.
func DecodeOBJ(src LineSource, options ...ImportOption) (*metadata.MeshRecord, error) {
	return decode(src, "", buildImportOptions(options))
}

// faceRef is one corner of a face, 0-based, with the line it came from.
type faceRef struct {
	position int
	normal   int
	line     int
}

type objDecoder struct {
	opts *importOptions
	path string
	line int

	// positions is a flat float stream, three per position.
	positions                    []float32
	normalsX, normalsY, normalsZ []float32
	refs                         []faceRef

	stats metadata.ImportStats
}

func decode(src LineSource, path string, opts *importOptions) (*metadata.MeshRecord, error) {
	d := &objDecoder{opts: opts, path: path}
	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, d.fail(d.line+1, err)
		}
		d.line++
		if err := d.parseLine(strings.TrimSuffix(line, "\r")); err != nil {
			return nil, d.fail(d.line, err)
		}
	}
	return d.finalize()
}

func (d *objDecoder) fail(line int, err error) error {
	return &core.ImportError{Path: d.path, Line: line, Err: err}
}

func (d *objDecoder) parseLine(line string) error {
	tokens := strings.Split(line, " ")
	switch tokens[0] {
	case "v":
		return d.parsePosition(tokens[1:])
	case "vn":
		return d.parseNormal(tokens[1:])
	case "f":
		return d.parseFace(tokens[1:])
	default:
		if strings.TrimSpace(line) != "" {
			d.stats.IgnoredLines++
		}
		return nil
	}
}

func parseFloat(s string) (float32, bool) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

// nonEmpty drops the empty tokens left by repeated separators.
func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (d *objDecoder) parsePosition(tokens []string) error {
	if d.opts.strictPositions {
		fields := nonEmpty(tokens)
		if len(fields) < 3 {
			return fmt.Errorf("%w: got %d", core.ErrMalformedPositionLine, len(fields))
		}
		var xyz [3]float32
		for i, f := range fields[:3] {
			v, ok := parseFloat(f)
			if !ok {
				return fmt.Errorf("%w: %q", core.ErrMalformedPositionLine, f)
			}
			xyz[i] = v
		}
		d.positions = append(d.positions, xyz[:]...)
		return nil
	}

	// Every numeric token is taken as the next component, so a bad token
	// shifts the components that follow it onto the next position.
	for _, t := range tokens {
		if t == "" {
			continue
		}
		v, ok := parseFloat(t)
		if !ok {
			d.stats.SkippedTokens++
			continue
		}
		d.positions = append(d.positions, v)
	}
	return nil
}

func (d *objDecoder) parseNormal(tokens []string) error {
	fields := nonEmpty(tokens)
	if len(fields) < 3 {
		return fmt.Errorf("%w: got %d", core.ErrMalformedNormalLine, len(fields))
	}
	var xyz [3]float32
	for i, f := range fields[:3] {
		v, ok := parseFloat(f)
		if !ok {
			return fmt.Errorf("%w: %q", core.ErrMalformedNormalLine, f)
		}
		xyz[i] = v
	}
	d.normalsX = append(d.normalsX, xyz[0])
	d.normalsY = append(d.normalsY, xyz[1])
	d.normalsZ = append(d.normalsZ, xyz[2])
	return nil
}

func (d *objDecoder) parseFace(tokens []string) error {
	d.stats.Faces++
	for _, t := range tokens {
		if t == "" {
			continue
		}
		sub := strings.Split(t, "//")
		if len(sub) != 2 {
			d.stats.SkippedTokens++
			continue
		}
		p, err := strconv.Atoi(sub[0])
		if err != nil {
			return fmt.Errorf("%w: %q", core.ErrMalformedFaceLine, t)
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			return fmt.Errorf("%w: %q", core.ErrMalformedFaceLine, t)
		}
		d.refs = append(d.refs, faceRef{position: p - 1, normal: n - 1, line: d.line})
	}
	return nil
}

func (d *objDecoder) finalize() (*metadata.MeshRecord, error) {
	count := len(d.positions) / 3
	if count == 0 {
		return nil, d.fail(0, core.ErrEmptyModel)
	}
	normalCount := len(d.normalsX)

	// one normal per position; a later reference to the same position overwrites an earlier one
	normals := make([]float32, 3*count)
	indices := make([]uint32, len(d.refs))
	for i, ref := range d.refs {
		if !math.IndexInRange(ref.position, count) {
			return nil, d.fail(ref.line, fmt.Errorf("%w: position %d, have %d", core.ErrIndexOutOfRange, ref.position+1, count))
		}
		if !math.IndexInRange(ref.normal, normalCount) {
			return nil, d.fail(ref.line, fmt.Errorf("%w: normal %d, have %d", core.ErrIndexOutOfRange, ref.normal+1, normalCount))
		}
		p := 3 * ref.position
		normals[p] = d.normalsX[ref.normal]
		normals[p+1] = d.normalsY[ref.normal]
		normals[p+2] = d.normalsZ[ref.normal]
		indices[i] = uint32(ref.position)
	}

	vertices := make([]metadata.InterleavedVertex, count)
	for i := range vertices {
		vertices[i] = metadata.InterleavedVertex{
			Position: math.NewVec3(d.positions[3*i], d.positions[3*i+1], d.positions[3*i+2]),
			Normal:   math.NewVec3(normals[3*i], normals[3*i+1], normals[3*i+2]),
		}
	}

	d.stats.Lines = d.line
	d.stats.Positions = count
	d.stats.Normals = normalCount
	d.stats.References = len(d.refs)

	return &metadata.MeshRecord{
		Vertices: vertices,
		Indices:  indices,
		Normals:  normals,
		Stats:    d.stats,
	}, nil
}

type ModelLoader struct {
	Options []ImportOption
}

func (ml *ModelLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeModel {
		return nil, fmt.Errorf("model loader cannot load %s resources", assetType)
	}
	name := path
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		name = p["name"]
	}
	mr, err := ImportOBJ(path, ml.Options...)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeModel,
		Name:     name,
		FullPath: path,
		DataSize: mr.VertexBufferSize(),
		Data:     mr,
	}, nil
}

func (ml *ModelLoader) Unload(res *metadata.Resource) error {
	if res == nil {
		return fmt.Errorf("model loader: nil resource")
	}
	res.Data = nil
	res.DataSize = 0
	return nil
}

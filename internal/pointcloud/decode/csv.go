package decode

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"signa/internal/pointcloud/models"
)

// CSVDecoder parses comma-separated point data. The header must name x, y,
// and z columns (any order, case-insensitive); nx/ny/nz and intensity are
// picked up when present.
type CSVDecoder struct{}

// Format identifies the decoder.
func (CSVDecoder) Format() string { return "csv" }

// Decode reads the full CSV stream into a point cloud.
func (CSVDecoder) Decode(r io.Reader) (*models.Cloud, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	xi, xok := col["x"]
	yi, yok := col["y"]
	zi, zok := col["z"]
	if !xok || !yok || !zok {
		return nil, fmt.Errorf("missing required columns x, y, z (got %s)", strings.Join(header, ", "))
	}
	nxi, hasNX := col["nx"]
	nyi, hasNY := col["ny"]
	nzi, hasNZ := col["nz"]
	hasNormals := hasNX && hasNY && hasNZ
	ii, hasIntensity := col["intensity"]

	var (
		points      []v3.Vec
		normals     []v3.Vec
		intensities []float64
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := parseVec(rec, xi, yi, zi)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, p)
		if hasNormals {
			n, err := parseVec(rec, nxi, nyi, nzi)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			normals = append(normals, n)
		}
		if hasIntensity {
			v, err := field(rec, ii)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			intensities = append(intensities, v)
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("file contains zero points")
	}
	return models.New(points, normals, intensities)
}

func parseVec(rec []string, xi, yi, zi int) (v3.Vec, error) {
	x, err := field(rec, xi)
	if err != nil {
		return v3.Vec{}, err
	}
	y, err := field(rec, yi)
	if err != nil {
		return v3.Vec{}, err
	}
	z, err := field(rec, zi)
	if err != nil {
		return v3.Vec{}, err
	}
	return v3.Vec{X: x, Y: y, Z: z}, nil
}

func field(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return 0, fmt.Errorf("row has %d fields, need column %d", len(rec), i+1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("column %d: %w", i+1, err)
	}
	return v, nil
}

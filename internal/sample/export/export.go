// Package export turns generated samples into a tabular dataset and encodes
// it for download. CSV ships in-tree; other encodings (Parquet) register an
// Encoder at wiring time.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	smodels "signa/internal/sample/models"
	dErrors "signa/pkg/domain-errors"
)

// Encoder serializes a dataset to a wire format.
type Encoder interface {
	Format() string
	ContentType() string
	Encode(w io.Writer, ds smodels.Dataset) error
}

// Registry maps format names to encoders, CSV preinstalled.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry builds a registry with the CSV encoder installed.
func NewRegistry() *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	r.Register(CSVEncoder{})
	return r
}

// Register installs an encoder for its format, replacing any previous one.
func (r *Registry) Register(e Encoder) {
	r.encoders[strings.ToLower(e.Format())] = e
}

// Lookup resolves a format name. Empty means CSV.
func (r *Registry) Lookup(format string) (Encoder, error) {
	if format == "" {
		format = "csv"
	}
	e, ok := r.encoders[strings.ToLower(format)]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "no encoder registered for format %q", format)
	}
	return e, nil
}

// Dataset wraps samples in the export schema. Row order is sample order.
func Dataset(samples []smodels.Sample) smodels.Dataset {
	return smodels.Dataset{Columns: smodels.Columns, Rows: samples}
}

// CSVEncoder writes the dataset as headered CSV.
type CSVEncoder struct{}

// Format identifies the encoder.
func (CSVEncoder) Format() string { return "csv" }

// ContentType is the response content type.
func (CSVEncoder) ContentType() string { return "text/csv" }

// Encode streams the dataset.
func (CSVEncoder) Encode(w io.Writer, ds smodels.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	rec := make([]string, len(ds.Columns))
	for i := range ds.Rows {
		s := &ds.Rows[i]
		rec[0] = formatFloat(s.Position.X)
		rec[1] = formatFloat(s.Position.Y)
		rec[2] = formatFloat(s.Position.Z)
		rec[3] = formatFloat(s.Phi)
		rec[4] = s.Label.String()
		rec[5] = formatFloat(s.Normal.X)
		rec[6] = formatFloat(s.Normal.Y)
		rec[7] = formatFloat(s.Normal.Z)
		rec[8] = formatFloat(s.Weight)
		rec[9] = s.Source
		rec[10] = s.ConstraintID.String()
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// PhiStats summarizes the signed-distance range of a sample set, for the
// viewer's color ramp.
type PhiStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Subsample returns up to limit samples drawn deterministically (seeded
// shuffle) plus the phi range of the full set. limit <= 0 means all.
func Subsample(samples []smodels.Sample, limit int, seed int64) ([]smodels.Sample, PhiStats) {
	stats := PhiStats{Min: math.Inf(1), Max: math.Inf(-1)}
	for i := range samples {
		stats.Min = math.Min(stats.Min, samples[i].Phi)
		stats.Max = math.Max(stats.Max, samples[i].Phi)
	}
	if len(samples) == 0 {
		stats = PhiStats{}
	}
	if limit <= 0 || limit >= len(samples) {
		return samples, stats
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(len(samples))))
	picked := make([]smodels.Sample, limit)
	for i, j := range rng.Perm(len(samples))[:limit] {
		picked[i] = samples[j]
	}
	return picked, stats
}

// Package decode turns uploaded bytes into a point cloud. CSV decoding ships
// in-tree because its failure modes (missing columns, zero rows) are part of
// the upload contract; the heavy formats (PLY, LAS, LAZ, NPZ, Parquet) are
// registration points for external decoders.
package decode

import (
	"io"
	"strings"

	"signa/internal/pointcloud/models"
	dErrors "signa/pkg/domain-errors"
)

// Decoder parses one upload format into a point cloud.
type Decoder interface {
	// Format returns the lowercase format name ("csv", "ply", ...).
	Format() string
	Decode(r io.Reader) (*models.Cloud, error)
}

// Registry maps format names to decoders. Formats the registry knows about
// but has no decoder for yield a distinct error so the UI can tell
// "unsupported here" from "never supported".
type Registry struct {
	decoders map[string]Decoder
}

// knownFormats is the accepted upload format set. Registering a decoder for
// an unknown format is a programming error and panics at wiring time.
var knownFormats = map[string]bool{
	"csv": true, "ply": true, "las": true, "laz": true, "npz": true, "parquet": true,
}

// NewRegistry builds a registry with the in-tree CSV decoder installed.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]Decoder)}
	r.Register(CSVDecoder{})
	return r
}

// Register installs a decoder for its format, replacing any previous one.
func (r *Registry) Register(d Decoder) {
	format := strings.ToLower(d.Format())
	if !knownFormats[format] {
		panic("decode: unknown point cloud format " + format)
	}
	r.decoders[format] = d
}

// Decode parses the upload. Format is matched case-insensitively and may be
// a filename extension with or without the dot.
func (r *Registry) Decode(reader io.Reader, format string) (*models.Cloud, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "upload format is required")
	}
	if !knownFormats[format] {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown point cloud format %q", format)
	}
	d, ok := r.decoders[format]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "no decoder registered for format %q", format)
	}
	cloud, err := d.Decode(reader)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "point cloud decode failed")
	}
	return cloud, nil
}

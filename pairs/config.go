package pairs

import (
	"image"

	"github.com/visum-ml/stochpair/catalog"
	"github.com/visum-ml/stochpair/superpixel"
)

// SegmentSource selects where a dataset's segmentation label maps come
// from.
type SegmentSource int

const (
	// SegmentsNone yields plain pairs without segmentation maps.
	SegmentsNone SegmentSource = iota
	// SegmentsFromFile reads precomputed label maps from the catalog's
	// segment path column.
	SegmentsFromFile
	// SegmentsCompute runs the superpixel segmenter on each resized view.
	SegmentsCompute
)

// Segmenter computes a superpixel label map for an image. It must be
// deterministic for a dataset to be reproducible.
type Segmenter func(img image.Image, params superpixel.Params) [][]int32

// Config describes a stochastic pair dataset. It is captured at
// construction and never mutated per example.
type Config struct {
	// DataRoot is the base directory relative catalog paths are resolved
	// against. Required.
	DataRoot string

	// DataCSV is the catalog file path. Required.
	DataCSV string

	// SpatialSize is the square side length, in pixels, every view and
	// label map is resized to. Required.
	SpatialSize int

	// Flip enables a random horizontal flip per view, with an
	// independent coin per view. Default false.
	Flip bool

	// AvoidIdentity prefers a partner different from the row itself when
	// the identity group has more than one member. DefaultConfig sets it
	// to true.
	AvoidIdentity bool

	// Schema describes the catalog columns. If nil, a default layout is
	// used depending on Masked and Segments, or the schema is inferred
	// from the header row when HasHeader is set.
	Schema catalog.Schema

	// HasHeader marks the catalog's first line as a header row. With a
	// nil Schema the header is used to infer column names and roles;
	// otherwise it is skipped.
	HasHeader bool

	// Masked multiplies each image by a boolean foreground mask loaded
	// from the catalog's mask path column before resizing.
	Masked bool

	// MaskLabel is the mask pixel value treated as foreground, compared
	// by exact equality against the mask's 8-bit gray level (0..255).
	// DefaultConfig sets it to 1, matching masks that store raw label
	// ids; masks that mark the foreground as saturated white need 255.
	// Pipelines that compare against normalized float images instead
	// select white with 1 — port such configs by rescaling the label to
	// the 8-bit domain.
	MaskLabel float64

	// InvertMask treats MaskLabel as background instead.
	InvertMask bool

	// Segments selects the segmentation source. Default SegmentsNone.
	Segments SegmentSource

	// Segmenter overrides the on-the-fly segmentation routine used with
	// SegmentsCompute. Nil means superpixel.Segment.
	Segmenter Segmenter

	// Superpixel parameterizes on-the-fly segmentation. DefaultConfig
	// sets superpixel.DefaultParams().
	Superpixel superpixel.Params

	// Seed initializes the dataset's random source. Zero means a
	// time-based seed; set it explicitly for reproducible sampling.
	Seed int64

	// BatchSize used by Yield. DefaultConfig sets 32.
	BatchSize int
}

// DefaultConfig returns a Config for a plain pair dataset with the
// documented defaults: identity avoidance on, mask label 1, superpixel
// params {250, 10, 1}, batch size 32.
func DefaultConfig(root, csvPath string, spatialSize int) Config {
	return Config{
		DataRoot:      root,
		DataCSV:       csvPath,
		SpatialSize:   spatialSize,
		AvoidIdentity: true,
		MaskLabel:     1,
		Superpixel:    superpixel.DefaultParams(),
		BatchSize:     32,
	}
}

// defaultSchema picks the catalog layout matching the configured variant.
func (c *Config) defaultSchema() catalog.Schema {
	switch {
	case c.Segments == SegmentsFromFile:
		return catalog.SegmentSchema()
	case c.Masked:
		return catalog.MaskSchema()
	default:
		return catalog.PairSchema()
	}
}

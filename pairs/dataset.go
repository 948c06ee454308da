// Package pairs samples pairs of same-identity views from a labeled image
// catalog for representation-learning training.
//
// A Dataset maps each catalog row to the pool of rows sharing its identity
// key. GetExample(i) draws a partner j from that pool (avoiding j == i
// when possible), runs both rows through the preprocessing pipeline
// (load, optional masking, resize, optional segmentation, optional random
// horizontal flip), and returns the two views as float32 tensors, plus
// int32 segmentation maps for the segmented variants.
//
// Fetches are synchronous and single-threaded. The dataset's random
// source is not safe for uncoordinated concurrent use: parallel consumers
// must each own an independently seeded Dataset, or serialize access
// externally.
package pairs

import (
	"fmt"
	"image"
	"io"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	timage "github.com/gomlx/gomlx/pkg/core/tensors/images"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/visum-ml/stochpair/catalog"
	"github.com/visum-ml/stochpair/superpixel"
)

// Example is one sampled pair. View0 and View1 are float32 tensors shaped
// [SpatialSize, SpatialSize, 3]. Segments0 and Segments1 are int32 label
// map tensors, nil unless the dataset has a segmentation source. Index is
// the requested row, Partner the sampled same-identity row.
type Example struct {
	View0, View1         *tensors.Tensor
	Segments0, Segments1 *tensors.Tensor
	Index, Partner       int
}

// maskingPolicy transforms a loaded image before resizing.
type maskingPolicy interface {
	apply(img image.Image, row int) (image.Image, error)
}

// segmentationPolicy produces the label map for a resized view, or nil
// when the dataset has no segmentation source.
type segmentationPolicy interface {
	labels(resized image.Image, row int) (*LabelMap, error)
}

// Dataset yields identity-grouped stochastic pairs. Create it with New;
// the catalog and identity index are immutable afterwards, only the
// random source's state advances per call.
type Dataset struct {
	cfg      Config
	cat      *catalog.Catalog
	rng      *rand.Rand
	mask     maskingPolicy
	segments segmentationPolicy
	toTensor *timage.ToTensorConfig

	cursor int
}

var _ train.Dataset = &Dataset{}

// New loads the catalog described by cfg and builds the dataset.
// Construction fails on a malformed catalog; per-example I/O errors are
// deferred to GetExample.
func New(cfg Config) (*Dataset, error) {
	if cfg.DataRoot == "" || cfg.DataCSV == "" {
		return nil, fmt.Errorf("pairs: DataRoot and DataCSV are required")
	}
	if cfg.SpatialSize <= 0 {
		return nil, fmt.Errorf("pairs: SpatialSize must be positive, got %d", cfg.SpatialSize)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}

	schema := cfg.Schema
	if schema == nil && !cfg.HasHeader {
		schema = cfg.defaultSchema()
	}
	cat, err := catalog.Load(cfg.DataRoot, cfg.DataCSV, schema, cfg.HasHeader)
	if err != nil {
		return nil, err
	}

	// A batch larger than the catalog would make Yield return io.EOF
	// before the first batch; clamp so small catalogs still get an epoch.
	if cfg.BatchSize > cat.Len() && cat.Len() > 0 {
		cfg.BatchSize = cat.Len()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	d := &Dataset{
		cfg:      cfg,
		cat:      cat,
		rng:      rand.New(rand.NewSource(seed)),
		toTensor: timage.ToTensor(dtypes.Float32),
	}

	d.mask = noMask{}
	if cfg.Masked {
		d.mask = labelMask{d: d}
	}

	switch cfg.Segments {
	case SegmentsNone:
		d.segments = noLabels{}
	case SegmentsFromFile:
		d.segments = fileLabels{d: d}
	case SegmentsCompute:
		fn := cfg.Segmenter
		if fn == nil {
			fn = func(img image.Image, params superpixel.Params) [][]int32 {
				return superpixel.Segment(img, params)
			}
		}
		d.segments = computeLabels{fn: fn, params: cfg.Superpixel}
	default:
		return nil, fmt.Errorf("pairs: unknown segment source %d", cfg.Segments)
	}
	return d, nil
}

// Len returns the number of catalog rows.
func (d *Dataset) Len() int { return d.cat.Len() }

// Catalog exposes the loaded catalog, for inspection and diagnostics.
func (d *Dataset) Catalog() *catalog.Catalog { return d.cat }

// Choices returns the partner pool of row i, shared and read-only.
func (d *Dataset) Choices(i int) []int { return d.cat.Choices(i) }

// PairImages samples a partner for row i and preprocesses both views,
// returning them as images plus their label maps (nil without a
// segmentation source). It is GetExample without the tensor conversion,
// for inspection and offline export.
func (d *Dataset) PairImages(i int) (view0, view1 image.Image, segments0, segments1 *LabelMap, partner int, err error) {
	if i < 0 || i >= d.cat.Len() {
		return nil, nil, nil, nil, 0, fmt.Errorf("pairs: index %d out of range [0, %d)", i, d.cat.Len())
	}
	partner = d.samplePartner(i)
	view0, segments0, err = d.view(i)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	view1, segments1, err = d.view(partner)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	return view0, view1, segments0, segments1, partner, nil
}

// GetExample samples a partner for row i and preprocesses both views.
// Failures abort only this call; the dataset stays usable for other
// indices.
func (d *Dataset) GetExample(i int) (*Example, error) {
	img0, img1, labels0, labels1, j, err := d.PairImages(i)
	if err != nil {
		return nil, err
	}

	ex := &Example{
		View0:   d.toTensor.Single(img0),
		View1:   d.toTensor.Single(img1),
		Index:   i,
		Partner: j,
	}
	if labels0 != nil {
		ex.Segments0 = labels0.ToTensor()
		ex.Segments1 = labels1.ToTensor()
	}
	return ex, nil
}

// view runs one row through the preprocessing pipeline and returns the
// final image and, for segmented variants, its label map.
func (d *Dataset) view(row int) (image.Image, *LabelMap, error) {
	path, err := d.cat.Path("file_path_", row)
	if err != nil {
		return nil, nil, err
	}
	img, err := loadImage(path)
	if err != nil {
		return nil, nil, err
	}
	img, err = d.mask.apply(img, row)
	if err != nil {
		return nil, nil, err
	}
	img = imaging.Resize(img, d.cfg.SpatialSize, d.cfg.SpatialSize, imaging.Lanczos)

	labels, err := d.segments.labels(img, row)
	if err != nil {
		return nil, nil, err
	}
	if labels != nil {
		// Label values must never be blended, so the map gets its own
		// nearest-neighbor resize whatever filter the view used.
		labels, err = ResizeLabels(labels, d.cfg.SpatialSize)
		if err != nil {
			return nil, nil, err
		}
	}

	if d.cfg.Flip && d.rng.Intn(2) == 1 {
		img = imaging.FlipH(img)
		if labels != nil {
			labels.FlipH()
		}
	}
	return img, labels, nil
}

// noMask leaves images untouched.
type noMask struct{}

func (noMask) apply(img image.Image, _ int) (image.Image, error) { return img, nil }

// labelMask zeroes background pixels using the catalog's mask column.
type labelMask struct{ d *Dataset }

func (m labelMask) apply(img image.Image, row int) (image.Image, error) {
	path, err := m.d.cat.Path("mask_path_", row)
	if err != nil {
		return nil, err
	}
	mask, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	return applyMask(img, mask, m.d.cfg.MaskLabel, m.d.cfg.InvertMask)
}

// noLabels is the segmentation policy of plain pair datasets.
type noLabels struct{}

func (noLabels) labels(image.Image, int) (*LabelMap, error) { return nil, nil }

// fileLabels reads precomputed label maps from the segment path column.
type fileLabels struct{ d *Dataset }

func (f fileLabels) labels(_ image.Image, row int) (*LabelMap, error) {
	path, err := f.d.cat.Path("segment_path_", row)
	if err != nil {
		return nil, err
	}
	return loadLabelImage(path)
}

// computeLabels segments the resized view on the fly.
type computeLabels struct {
	fn     Segmenter
	params superpixel.Params
}

func (c computeLabels) labels(resized image.Image, _ int) (*LabelMap, error) {
	return LabelMapFromRows(c.fn(resized, c.params))
}

// Name implements train.Dataset.
func (d *Dataset) Name() string { return "StochasticPairs" }

// Reset implements train.Dataset, restarting the epoch.
func (d *Dataset) Reset() { d.cursor = 0 }

// Yield implements train.Dataset. It returns the next BatchSize examples
// as inputs [view0, view1] (each [batch, size, size, 3]) plus, for
// segmented variants, [segments0, segments1] (each int32
// [batch, size, size]). Labels are nil: pair sampling is
// self-supervised. Only full batches are yielded: Yield returns io.EOF
// once fewer than BatchSize rows remain, dropping the partial tail of the
// epoch (New clamps BatchSize to the catalog length, so a small catalog
// still yields one batch). Call Reset to start the next epoch.
func (d *Dataset) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	n := d.cfg.BatchSize
	if d.cursor+n > d.cat.Len() {
		return nil, nil, nil, io.EOF
	}

	views0 := make([]image.Image, n)
	views1 := make([]image.Image, n)
	var segs0, segs1 [][][]int32
	for k := 0; k < n; k++ {
		i := d.cursor + k
		j := d.samplePartner(i)
		img0, labels0, err := d.view(i)
		if err != nil {
			return nil, nil, nil, err
		}
		img1, labels1, err := d.view(j)
		if err != nil {
			return nil, nil, nil, err
		}
		views0[k], views1[k] = img0, img1
		if labels0 != nil {
			r0, err := labelRows(labels0)
			if err != nil {
				return nil, nil, nil, err
			}
			r1, err := labelRows(labels1)
			if err != nil {
				return nil, nil, nil, err
			}
			segs0 = append(segs0, r0)
			segs1 = append(segs1, r1)
		}
	}
	d.cursor += n

	inputs = []*tensors.Tensor{d.toTensor.Batch(views0), d.toTensor.Batch(views1)}
	if segs0 != nil {
		inputs = append(inputs, tensors.FromAnyValue(segs0), tensors.FromAnyValue(segs1))
	}
	return d, inputs, nil, nil
}

// labelRows flattens a single-plane label map into per-row slices for
// batching. Plane stacks cannot be batched uniformly and are rejected.
func labelRows(m *LabelMap) ([][]int32, error) {
	if m.rank() != 2 {
		return nil, fmt.Errorf("%w: cannot batch rank-%d label maps", ErrInvalidLabelShape, m.rank())
	}
	_, h, w := m.dims()
	rows := make([][]int32, h)
	for y := 0; y < h; y++ {
		rows[y] = m.Data[y*w : (y+1)*w]
	}
	return rows, nil
}

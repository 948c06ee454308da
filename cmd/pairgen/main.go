// Command pairgen pre-generates pair examples to disk: for every catalog
// row it samples a partner, runs both views through the configured
// preprocessing pipeline and writes the results as image files. The output
// can be inspected directly or consumed by training jobs that want the
// augmentation baked in.
//
// Layout under -out:
//
//	view0/000042.png        first view of example 42
//	view1/000042.png        sampled partner view
//	segments0/000042.png    16-bit label map (segmented variants only)
//	segments1/000042.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/visum-ml/stochpair/pairs"
)

func main() {
	root := flag.String("root", ".", "data root directory for relative catalog paths")
	csvPath := flag.String("csv", "", "catalog CSV file (required)")
	size := flag.Int("size", 256, "output square side length in pixels")
	outDir := flag.String("out", "pairs_out", "output directory")
	epochs := flag.Int("epochs", 1, "how many passes over the catalog to generate")
	seed := flag.Int64("seed", 1, "random seed for partner sampling and flips")
	flip := flag.Bool("flip", false, "enable random horizontal flips")
	noAvoid := flag.Bool("no-avoid-identity", false, "allow a row to be paired with itself even when partners exist")
	masked := flag.Bool("masked", false, "apply foreground masks from the catalog's mask column")
	maskLabel := flag.Float64("mask-label", 1, "mask pixel value treated as foreground")
	invertMask := flag.Bool("invert-mask", false, "treat mask-label as background instead")
	segments := flag.String("segments", "none", "segmentation source: none, file or compute")
	verbose := flag.Bool("v", true, "show a progress bar")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := pairs.DefaultConfig(*root, *csvPath, *size)
	cfg.Seed = *seed
	cfg.Flip = *flip
	cfg.AvoidIdentity = !*noAvoid
	cfg.Masked = *masked
	cfg.MaskLabel = *maskLabel
	cfg.InvertMask = *invertMask
	switch *segments {
	case "none":
		cfg.Segments = pairs.SegmentsNone
	case "file":
		cfg.Segments = pairs.SegmentsFromFile
	case "compute":
		cfg.Segments = pairs.SegmentsCompute
	default:
		log.Fatalf("unknown -segments value %q (want none, file or compute)", *segments)
	}

	ds, err := pairs.New(cfg)
	if err != nil {
		log.Fatalf("failed to build dataset: %v", err)
	}

	if err := generate(ds, *outDir, *epochs, *verbose); err != nil {
		log.Fatalf("generation failed: %+v", err)
	}
}

// generate streams epochs x Len examples into outDir.
func generate(ds *pairs.Dataset, outDir string, epochs int, verbose bool) error {
	subDirs := []string{"view0", "view1", "segments0", "segments1"}
	for _, sub := range subDirs {
		if err := os.MkdirAll(filepath.Join(outDir, sub), 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", sub)
		}
	}

	total := epochs * ds.Len()
	var pBar *progressbar.ProgressBar
	if verbose {
		pBar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Generating pairs"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("examples"),
		)
	}

	counter := 0
	for epoch := 0; epoch < epochs; epoch++ {
		for i := 0; i < ds.Len(); i++ {
			view0, view1, segs0, segs1, _, err := ds.PairImages(i)
			if err != nil {
				return errors.Wrapf(err, "example %d (epoch %d)", i, epoch)
			}

			name := fmt.Sprintf("%06d.png", counter)
			if err := imaging.Save(view0, filepath.Join(outDir, "view0", name)); err != nil {
				return errors.Wrap(err, "saving view0")
			}
			if err := imaging.Save(view1, filepath.Join(outDir, "view1", name)); err != nil {
				return errors.Wrap(err, "saving view1")
			}
			if segs0 != nil {
				if err := saveLabels(segs0, filepath.Join(outDir, "segments0", name)); err != nil {
					return errors.Wrap(err, "saving segments0")
				}
				if err := saveLabels(segs1, filepath.Join(outDir, "segments1", name)); err != nil {
					return errors.Wrap(err, "saving segments1")
				}
			}

			counter++
			if pBar != nil {
				_ = pBar.Add(1)
			}
		}
	}
	if pBar != nil {
		_ = pBar.Close()
		fmt.Println()
	}
	return nil
}

// saveLabels writes a single-plane label map as a 16-bit gray PNG, the
// same depth-preserving format the dataset reads precomputed segments
// from. Label ids above 16 bits cannot be represented and fail.
func saveLabels(m *pairs.LabelMap, path string) error {
	if len(m.Shape) != 2 {
		return errors.Errorf("cannot save rank-%d label map as an image", len(m.Shape))
	}
	h, w := m.Shape[0], m.Shape[1]
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := m.Data[y*w+x]
			if v < 0 || v > 0xffff {
				return errors.Errorf("label %d at (%d,%d) outside 16-bit range", v, x, y)
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

package pairs

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // catalog images are JPEG or PNG
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// loadImage opens and decodes an image file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrImageLoad, path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrImageLoad, path, err)
	}
	return img, nil
}

// loadLabelImage decodes a precomputed segment file into a single-plane
// label map. Segment files can be 16-bit PNGs; the stdlib decoder keeps
// them as Gray16, so the full label range survives.
func loadLabelImage(path string) (*LabelMap, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]int32, h*w)
	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = int32(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = int32(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
				data[y*w+x] = int32(g.Y)
			}
		}
	}
	return &LabelMap{Data: data, Shape: []int{h, w}}, nil
}

// grayValue returns the 8-bit gray level of a pixel, the value mask labels
// are compared against.
func grayValue(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

// applyMask zeroes every pixel of img whose mask pixel does not equal
// label exactly (or does equal it, when invert is set). Mask and image
// must have the same dimensions.
func applyMask(img, mask image.Image, label float64, invert bool) (image.Image, error) {
	ib, mb := img.Bounds(), mask.Bounds()
	if ib.Dx() != mb.Dx() || ib.Dy() != mb.Dy() {
		return nil, fmt.Errorf("%w: mask size %dx%d does not match image %dx%d",
			ErrImageLoad, mb.Dx(), mb.Dy(), ib.Dx(), ib.Dy())
	}

	out := imaging.Clone(img)
	w, h := ib.Dx(), ib.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := float64(grayValue(mask.At(mb.Min.X+x, mb.Min.Y+y))) == label
			if invert {
				keep = !keep
			}
			if keep {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 0, 0, 0
		}
	}
	return out, nil
}

// Package superpixel computes superpixel segmentation label maps for
// photographic images. It implements a SLIC-style clustering: pixels are
// grouped into perceptually coherent regions by iterating a localized
// k-means over CIE-Lab color augmented with a compactness-weighted spatial
// term.
//
// The segmentation is deterministic: cluster centers are seeded on a
// regular grid and no randomness is involved, so the same image and
// parameters always produce the same label map.
package superpixel

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Params configures the segmentation.
type Params struct {
	// NSegments is the approximate number of superpixels to produce.
	NSegments int
	// Compactness balances color proximity against spatial proximity.
	// Higher values give more square, grid-like superpixels.
	Compactness float64
	// Sigma is the standard deviation of the Gaussian smoothing applied
	// to the image before clustering. Zero disables smoothing.
	Sigma float64
}

// DefaultParams returns the documented defaults: 250 segments,
// compactness 10, sigma 1.
func DefaultParams() Params {
	return Params{NSegments: 250, Compactness: 10, Sigma: 1}
}

// iterations of the assignment/update loop. SLIC converges quickly; ten
// rounds is the conventional fixed count.
const iterations = 10

type cluster struct {
	l, a, b float64
	x, y    float64
	count   int

	// accumulators for the update step
	sumL, sumA, sumB, sumX, sumY float64
}

// Segment partitions img into superpixels and returns an integer label map
// with one row per image row. Labels are contiguous cluster indices
// starting at 0.
func Segment(img image.Image, p Params) [][]int32 {
	if p.NSegments <= 0 {
		p.NSegments = DefaultParams().NSegments
	}
	if p.Compactness <= 0 {
		p.Compactness = DefaultParams().Compactness
	}
	if p.Sigma > 0 {
		img = imaging.Blur(img, p.Sigma)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	labels := make([][]int32, h)
	for y := range labels {
		labels[y] = make([]int32, w)
	}
	if w == 0 || h == 0 {
		return labels
	}

	// Flatten to Lab planes once; clustering touches every pixel many
	// times.
	labL := make([]float64, w*h)
	labA := make([]float64, w*h)
	labB := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := colorful.Color{
				R: float64(r) / 0xffff,
				G: float64(g) / 0xffff,
				B: float64(b) / 0xffff,
			}
			l, la, lb := c.Lab()
			labL[y*w+x] = l * 100
			labA[y*w+x] = la * 100
			labB[y*w+x] = lb * 100
		}
	}

	// Grid seeding. The step defines both the seed spacing and the search
	// window of the assignment step.
	step := int(math.Sqrt(float64(w*h) / float64(p.NSegments)))
	if step < 1 {
		step = 1
	}
	var clusters []cluster
	for cy := step / 2; cy < h; cy += step {
		for cx := step / 2; cx < w; cx += step {
			i := cy*w + cx
			clusters = append(clusters, cluster{
				l: labL[i], a: labA[i], b: labB[i],
				x: float64(cx), y: float64(cy),
			})
		}
	}
	if len(clusters) == 0 {
		i := (h/2)*w + w/2
		clusters = []cluster{{l: labL[i], a: labA[i], b: labB[i], x: float64(w / 2), y: float64(h / 2)}}
	}

	assignment := make([]int32, w*h)
	distance := make([]float64, w*h)
	spatialWeight := p.Compactness / float64(step)

	for iter := 0; iter < iterations; iter++ {
		for i := range distance {
			distance[i] = math.MaxFloat64
		}
		for ci := range clusters {
			c := &clusters[ci]
			x0, x1 := clampWindow(int(c.x), step, w)
			y0, y1 := clampWindow(int(c.y), step, h)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					i := y*w + x
					dl := labL[i] - c.l
					da := labA[i] - c.a
					db := labB[i] - c.b
					dx := (float64(x) - c.x) * spatialWeight
					dy := (float64(y) - c.y) * spatialWeight
					d := dl*dl + da*da + db*db + dx*dx + dy*dy
					if d < distance[i] {
						distance[i] = d
						assignment[i] = int32(ci)
					}
				}
			}
		}

		// Recompute centers from their members.
		for ci := range clusters {
			c := &clusters[ci]
			c.sumL, c.sumA, c.sumB, c.sumX, c.sumY, c.count = 0, 0, 0, 0, 0, 0
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				c := &clusters[assignment[i]]
				c.sumL += labL[i]
				c.sumA += labA[i]
				c.sumB += labB[i]
				c.sumX += float64(x)
				c.sumY += float64(y)
				c.count++
			}
		}
		for ci := range clusters {
			c := &clusters[ci]
			if c.count == 0 {
				continue
			}
			n := float64(c.count)
			c.l, c.a, c.b = c.sumL/n, c.sumA/n, c.sumB/n
			c.x, c.y = c.sumX/n, c.sumY/n
		}
	}

	for y := 0; y < h; y++ {
		copy(labels[y], assignment[y*w:(y+1)*w])
	}
	return labels
}

// clampWindow returns the [lo, hi) pixel range of the 2*step search window
// centered at c, clipped to [0, limit).
func clampWindow(c, step, limit int) (int, int) {
	lo := c - 2*step
	if lo < 0 {
		lo = 0
	}
	hi := c + 2*step
	if hi > limit {
		hi = limit
	}
	return lo, hi
}

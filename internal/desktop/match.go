package desktop

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Box is a template match location in screen coordinates.
type Box struct {
	X, Y, W, H int
}

func (b Box) Center() (int, int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// LoadIcon reads a PNG template image from disk.
func LoadIcon(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load icon: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load icon %s: %w", path, err)
	}
	return img, nil
}

// FindAll locates every place the template appears in img with at least the
// given confidence. Confidence is 1 minus the normalized mean absolute
// luminance difference, so 1.0 demands an exact match and 0.8 tolerates
// antialiasing and light theme drift. Overlapping candidates are suppressed,
// keeping the first (topmost, then leftmost) hit.
func FindAll(img, tpl image.Image, conf float64) []Box {
	src := luminance(img)
	pat := luminance(tpl)

	th := len(pat)
	if th == 0 {
		return nil
	}
	tw := len(pat[0])
	sh := len(src)
	if sh < th {
		return nil
	}
	sw := len(src[0])
	if sw < tw {
		return nil
	}

	// Total absolute difference allowed before the score drops below conf;
	// lets the inner loop bail out early on hopeless positions.
	budget := (1 - conf) * 255 * float64(tw*th)

	var found []Box
	for y := 0; y+th <= sh; y++ {
		for x := 0; x+tw <= sw; x++ {
			box := Box{X: x, Y: y, W: tw, H: th}
			if overlapsAny(found, box) {
				continue
			}
			if diffWithin(src, pat, x, y, budget) {
				found = append(found, box)
			}
		}
	}
	return found
}

func diffWithin(src, pat [][]float64, x, y int, budget float64) bool {
	sum := 0.0
	for ty := range pat {
		row := src[y+ty]
		for tx, p := range pat[ty] {
			d := row[x+tx] - p
			if d < 0 {
				d = -d
			}
			sum += d
			if sum > budget {
				return false
			}
		}
	}
	return true
}

func overlapsAny(boxes []Box, b Box) bool {
	for _, o := range boxes {
		if b.X < o.X+o.W && o.X < b.X+b.W && b.Y < o.Y+o.H && o.Y < b.Y+b.H {
			return true
		}
	}
	return false
}

// luminance flattens an image to a row-major grid of 0..255 brightness
// values, the only channel the icon templates vary in.
func luminance(img image.Image) [][]float64 {
	bounds := img.Bounds()
	out := make([][]float64, bounds.Dy())
	for y := range out {
		row := make([]float64, bounds.Dx())
		for x := range row {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			row[x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
		}
		out[y] = row
	}
	return out
}

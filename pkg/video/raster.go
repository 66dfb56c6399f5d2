package video

import (
	"image"

	"github.com/pkg/errors"
)

var (
	// ErrNoFrames is returned when a container opened but produced no frames
	ErrNoFrames = errors.New("no frames could be decoded from video")
	// ErrUnsupportedContainer is returned when the file cannot be probed as a video
	ErrUnsupportedContainer = errors.New("unsupported or unreadable video container")
)

// Raster is one decoded frame in packed BGR order, three bytes per pixel
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// ToRGBA converts the frame to an opaque RGBA image
func (r Raster) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	n := r.Width * r.Height
	for i := 0; i < n && i*3+2 < len(r.Pix); i++ {
		src := r.Pix[i*3 : i*3+3]
		dst := img.Pix[i*4 : i*4+4]
		dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xff
	}
	return img
}

// FromImage packs any image into a BGR raster
func FromImage(img image.Image) Raster {
	b := img.Bounds()
	r := Raster{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, b.Dx()*b.Dy()*3)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r.Pix[i], r.Pix[i+1], r.Pix[i+2] = byte(cb>>8), byte(cg>>8), byte(cr>>8)
			i += 3
		}
	}
	return r
}

// intensity is a single channel view of a frame used for change detection
type intensity struct {
	width  int
	height int
	y      []uint8
}

// luma converts BGR pixels with the ITU-R BT.601 weights, rounded to the nearest integer
func (r Raster) luma() intensity {
	n := r.Width * r.Height
	out := intensity{width: r.Width, height: r.Height, y: make([]uint8, n)}
	for i := 0; i < n && i*3+2 < len(r.Pix); i++ {
		b, g, rd := uint32(r.Pix[i*3]), uint32(r.Pix[i*3+1]), uint32(r.Pix[i*3+2])
		out.y[i] = uint8((299*rd + 587*g + 114*b + 500) / 1000)
	}
	return out
}

// changeRatio is the fraction of pixels whose intensity differs between a and b.
// Frames of different sizes are entirely different.
func changeRatio(a, b intensity) float64 {
	if a.width != b.width || a.height != b.height || len(a.y) != len(b.y) {
		return 1
	}
	if len(a.y) == 0 {
		return 0
	}
	changed := 0
	for i := range a.y {
		if a.y[i] != b.y[i] {
			changed++
		}
	}
	return float64(changed) / float64(len(a.y))
}

package render

import (
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
)

func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Recorder accumulates frames for an animated GIF.
type Recorder struct {
	frames []*image.Paletted
	delays []int
	delay  int
}

// NewRecorder returns a recorder that shows every frame for delay
// hundredths of a second.
func NewRecorder(delay int) *Recorder {
	return &Recorder{delay: delay}
}

// Add quantizes img to the Plan 9 palette with Floyd-Steinberg dithering.
func (r *Recorder) Add(img image.Image) {
	b := img.Bounds()
	frame := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(frame, b, img, b.Min)
	r.frames = append(r.frames, frame)
	r.delays = append(r.delays, r.delay)
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Encode(w io.Writer) error {
	return gif.EncodeAll(w, &gif.GIF{Image: r.frames, Delay: r.delays, LoopCount: 0})
}

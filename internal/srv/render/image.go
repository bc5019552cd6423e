package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	DisplayWidth  = 128
	DisplayHeight = 64
	DefaultPitch  = 10
	textXOffset   = 2
)

var (
	foreground = image.NewUniform(color.RGBA{255, 255, 255, 255})
	background = image.NewUniform(color.RGBA{0, 0, 0, 255})
)

// ImageSink receives finished frames, typically the display device.
type ImageSink interface {
	ShowImage(img image.Image)
}

// ImageSurface rasterises text lines at a fixed vertical pitch into an RGBA frame.
type ImageSurface struct {
	bounds    image.Rectangle
	pitch     int
	face      font.Face
	baselines func(line int) int
	sink      ImageSink

	img *image.RGBA
}

func NewImageSurface(width, height, pitch int, sink ImageSink) *ImageSurface {
	if pitch <= 0 {
		pitch = DefaultPitch
	}
	s := &ImageSurface{
		bounds: image.Rect(0, 0, width, height),
		pitch:  pitch,
		face:   bitmapfont.Face,
		sink:   sink,
	}

	m := s.face.Metrics()
	ascent := m.Ascent.Ceil()
	descent := m.Descent.Ceil()
	offset := ascent + (pitch-(ascent+descent))/2
	if offset < ascent {
		offset = ascent
	}
	s.baselines = func(line int) int {
		y := line*pitch + offset
		if y > height-descent {
			y = height - descent
		}
		return y
	}
	return s
}

func (s *ImageSurface) BeginFrame() {
	s.img = image.NewRGBA(s.bounds)
	draw.Draw(s.img, s.img.Bounds(), background, image.Point{}, draw.Src)
}

func (s *ImageSurface) DrawLine(index int, text string) {
	s.drawText(index, text, foreground)
}

// DrawHighlightedLine draws the line inverted.
func (s *ImageSurface) DrawHighlightedLine(index int, text string) {
	box := image.Rect(0, index*s.pitch, s.bounds.Dx(), (index+1)*s.pitch).Intersect(s.bounds)
	draw.Draw(s.img, box, foreground, image.Point{}, draw.Src)
	s.drawText(index, text, background)
}

func (s *ImageSurface) drawText(index int, text string, src image.Image) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  src,
		Face: s.face,
		Dot:  fixed.P(textXOffset, s.baselines(index)),
	}
	d.DrawString(text)
}

func (s *ImageSurface) EndFrame() error {
	s.sink.ShowImage(s.img)
	return nil
}

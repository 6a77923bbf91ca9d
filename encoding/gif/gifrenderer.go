// Package gif renders the frames of self-played episodes into an animated GIF.
package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/searchrl"
	"github.com/gorgonia/searchrl/game"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi             = 144.0
	fontsize        = 12.0
	lineheight      = 1.2
	dummyLongString = `Episode 100000, Move: 1000`

	lastFrameDelay = 300 // 100ths of a second
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

var globPalette = color.Palette{
	color.Gray{0},
	color.Gray{253},
}

// Encoder draws every frame it is given as text and collects them into one GIF.
type Encoder struct {
	H, W int
	font.Drawer

	out *gif.GIF
	io.Writer
	face font.Face

	maxH, maxW  int // maxHeight and maxWidth
	padH, padW  int // padding so everything don't start at the topleft
	initialized bool
}

var _ searchrl.OutputEncoder = &Encoder{}

// NewGifEncoder creates an encoder whose frames are at most h x w pixels. The GIF is written to w on Flush.
func NewGifEncoder(h, w int, out io.Writer) *Encoder {
	return &Encoder{
		H:      -1,
		W:      -1,
		maxH:   h,
		maxW:   w,
		padH:   10,
		padW:   10,
		Writer: out,

		Drawer: font.Drawer{
			Src: image.Black,
		},
		out: &gif.GIF{LoopCount: -1},
	}
}

// Frames is the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

// Encode draws the state, then the game name, the episode and move, and the result once there is one.
func (enc *Encoder) Encode(ms game.MetaState) error {
	repr := fmt.Sprintf("%s", ms.State())
	lines := strings.Split(repr, "\n")
	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))

	if !enc.initialized {
		// the first frame decides the size of all of them
		enc.face = truetype.NewFace(regular, &truetype.Options{
			Size:    fontsize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		enc.Drawer.Face = enc.face

		w := font.MeasureString(enc.Face, dummyLongString).Ceil()
		for _, l := range lines {
			w = max(w, font.MeasureString(enc.Face, l).Ceil())
		}
		w += 2 * enc.padW
		h := (len(lines)+3)*dy + 2*enc.padH // name, episode and result lines

		w = min(w, enc.maxW)
		h = min(h, enc.maxH)
		if w == enc.maxW {
			enc.padW = 0
		}
		if h == enc.maxH {
			enc.padH = 0
		}
		enc.H = h
		enc.W = w
		enc.initialized = true
	}

	im := image.NewPaletted(image.Rect(0, 0, enc.W, enc.H), globPalette)
	draw.Draw(im, im.Bounds(), image.White, image.Point{}, draw.Src)
	enc.Dst = im

	y := dy
	writeLine := func(s string) {
		enc.Dot = fixed.P(enc.padW, y)
		enc.DrawString(s)
		y += dy
	}
	for _, l := range lines {
		writeLine(l)
	}
	writeLine(ms.Name())
	writeLine(fmt.Sprintf("Episode %d, Move: %d", ms.Episode(), ms.MoveNumber()))

	var delay int
	if result := ms.Result(); result != "" {
		delay = lastFrameDelay
		writeLine(result)
	}
	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, delay)
	return nil
}

// Flush writes the GIF into the writer.
func (enc *Encoder) Flush() error {
	if enc.Writer == nil {
		return errors.New("gif: no writer to flush to")
	}
	if len(enc.out.Image) == 0 {
		return errors.New("gif: nothing to flush")
	}
	return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out))
}

package render

import (
	"image/color"

	"github.com/aquilax/go-perlin"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Skyline geometry
const (
	skylineHeight = 180
	buildingWidth = 24
	minBuildingH  = 30
	maxBuildingH  = 150
	windowSize    = 3
	windowGap     = 7
)

// Backdrop is the neon skyline behind the road, generated once from perlin
// noise and scrolled with parallax. The image is twice the screen width so a
// wrapped draw never shows a seam.
type Backdrop struct {
	img   *ebiten.Image
	width int
}

// NewBackdrop generates a skyline for a playfield screenW pixels wide
func NewBackdrop(screenW int, seed int64) *Backdrop {
	w := screenW * 2
	img := ebiten.NewImage(w, skylineHeight)

	heightNoise := perlin.NewPerlin(2, 2, 3, seed)
	lightNoise := perlin.NewPerlin(2, 2, 3, seed+1)

	building := color.RGBA{24, 16, 48, 255}
	edge := color.RGBA{90, 40, 160, 255}
	lit := color.RGBA{255, 170, 60, 200}
	dark := color.RGBA{40, 30, 70, 120}

	cols := w / buildingWidth
	for i := 0; i <= cols; i++ {
		// sample at the column center; the same seed always yields the
		// same skyline, and column i and i+cols must match for the wrap
		n := heightNoise.Noise1D(float64(i%cols) * 0.35)
		h := minBuildingH + int((n+1)/2*(maxBuildingH-minBuildingH))
		x := float32(i * buildingWidth)
		top := float32(skylineHeight - h)

		vector.DrawFilledRect(img, x, top, buildingWidth, float32(h), building, false)
		vector.DrawFilledRect(img, x, top, buildingWidth, 2, edge, false)

		for wy := int(top) + 5; wy < skylineHeight-4; wy += windowGap {
			for wx := int(x) + 4; wx < int(x)+buildingWidth-4; wx += windowGap {
				c := dark
				if lightNoise.Noise2D(float64(wx%w)*0.11, float64(wy)*0.11) > 0.1 {
					c = lit
				}
				vector.DrawFilledRect(img, float32(wx), float32(wy), windowSize, windowSize, c, false)
			}
		}
	}
	return &Backdrop{img: img, width: w}
}

// Draw renders the skyline with its top edge at y, shifted left by offset
// pixels and wrapped
func (b *Backdrop) Draw(screen *ebiten.Image, y, offset float64) {
	shift := int(offset) % b.width
	if shift < 0 {
		shift += b.width
	}
	for _, dx := range []int{-shift, b.width - shift} {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(dx), y)
		screen.DrawImage(b.img, op)
	}
}

// Package camera maps board coordinates onto a screen.
package camera

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

const (
	minZoom = 0.01
	maxZoom = 100.0
)

// Camera is a viewport onto a board. Board and screen Y both grow
// downwards.
type Camera struct {
	// Center position in board units
	CenterX float64
	CenterY float64

	// Screen units per board unit
	Zoom float64

	ScreenWidth  int
	ScreenHeight int

	// Height of a screen unit relative to its width. Pixels are square;
	// terminal cells are about twice as tall as wide, so 2.
	CellAspect float64

	FlipView bool    // mirror around the vertical axis
	Rotation float64 // degrees, normalized to [0, 360)

	// Point the view rotates and flips around, in board units
	RotationCenterX float64
	RotationCenterY float64
}

// New creates a camera for a screen of the given size.
func New(screenWidth, screenHeight int) *Camera {
	return &Camera{
		Zoom:         1,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		CellAspect:   1,
	}
}

func (c *Camera) aspect() float64 {
	if c.CellAspect <= 0 {
		return 1
	}
	return c.CellAspect
}

// WorldToScreen converts a board position to screen coordinates.
func (c *Camera) WorldToScreen(pos layout.Vec) (float64, float64) {
	pos = c.applyViewTransform(pos)

	x := (pos.X - c.CenterX) * c.Zoom
	y := (pos.Y - c.CenterY) * c.Zoom / c.aspect()

	return x + float64(c.ScreenWidth)/2, y + float64(c.ScreenHeight)/2
}

// ScreenToWorld converts screen coordinates to a board position.
func (c *Camera) ScreenToWorld(screenX, screenY float64) layout.Vec {
	x := (screenX - float64(c.ScreenWidth)/2) / c.Zoom
	y := (screenY - float64(c.ScreenHeight)/2) * c.aspect() / c.Zoom

	return c.applyInverseViewTransform(layout.Vec{X: x + c.CenterX, Y: y + c.CenterY})
}

// Scale converts a board length to screen units along X.
func (c *Camera) Scale(length float64) float64 {
	return length * c.Zoom
}

// Pan moves the camera by a screen offset.
func (c *Camera) Pan(deltaX, deltaY float64) {
	c.CenterX -= deltaX / c.Zoom
	c.CenterY -= deltaY * c.aspect() / c.Zoom
}

// ZoomAt zooms around a screen position, keeping the board point under it
// fixed. factor > 1 zooms in.
func (c *Camera) ZoomAt(screenX, screenY, factor float64) {
	before := c.ScreenToWorld(screenX, screenY)
	c.Zoom = math.Min(math.Max(c.Zoom*factor, minZoom), maxZoom)
	after := c.ScreenToWorld(screenX, screenY)

	c.CenterX += before.X - after.X
	c.CenterY += before.Y - after.Y
}

// Fit centers the bounds and zooms so they fill 90% of the screen.
func (c *Camera) Fit(b scene.Bounds) {
	width, height := b.Width(), b.Height()
	if width <= 0 || height <= 0 {
		return
	}
	c.CenterX = (b.MinX + b.MaxX) / 2
	c.CenterY = (b.MinY + b.MaxY) / 2
	c.RotationCenterX = c.CenterX
	c.RotationCenterY = c.CenterY

	// A quarter turn swaps the extents.
	if r := math.Mod(c.Rotation, 180); r > 45 && r < 135 {
		width, height = height, width
	}
	zoomX := float64(c.ScreenWidth) * 0.9 / width
	zoomY := float64(c.ScreenHeight) * c.aspect() * 0.9 / height
	c.Zoom = math.Min(zoomX, zoomY)
}

// Resize updates the screen size.
func (c *Camera) Resize(width, height int) {
	c.ScreenWidth = width
	c.ScreenHeight = height
}

// Flip toggles the mirrored view.
func (c *Camera) Flip() {
	c.FlipView = !c.FlipView
}

// Rotate turns the view by degrees.
func (c *Camera) Rotate(degrees float64) {
	c.Rotation = math.Mod(c.Rotation+degrees, 360)
	if c.Rotation < 0 {
		c.Rotation += 360
	}
}

func (c *Camera) applyViewTransform(pos layout.Vec) layout.Vec {
	x, y := pos.X-c.RotationCenterX, pos.Y-c.RotationCenterY
	if c.Rotation != 0 {
		sin, cos := math.Sincos(c.Rotation * math.Pi / 180)
		x, y = x*cos-y*sin, x*sin+y*cos
	}
	if c.FlipView {
		x = -x
	}
	return layout.Vec{X: x + c.RotationCenterX, Y: y + c.RotationCenterY}
}

func (c *Camera) applyInverseViewTransform(pos layout.Vec) layout.Vec {
	x, y := pos.X-c.RotationCenterX, pos.Y-c.RotationCenterY
	if c.FlipView {
		x = -x
	}
	if c.Rotation != 0 {
		sin, cos := math.Sincos(-c.Rotation * math.Pi / 180)
		x, y = x*cos-y*sin, x*sin+y*cos
	}
	return layout.Vec{X: x + c.RotationCenterX, Y: y + c.RotationCenterY}
}

// VisibleBounds returns the board area on screen, for culling.
func (c *Camera) VisibleBounds() scene.Bounds {
	w, h := float64(c.ScreenWidth), float64(c.ScreenHeight)
	corners := [4]layout.Vec{
		c.ScreenToWorld(0, 0), c.ScreenToWorld(w, 0),
		c.ScreenToWorld(0, h), c.ScreenToWorld(w, h),
	}
	b := scene.Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range corners {
		b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
		b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
	}
	return b
}

package geometry

import "math"

// Rect describes a rectangular region. Whether the origin is the bottom-left
// (native) or top-left (caller) corner depends on where the value came from.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Decode converts a native bottom-left-origin frame into the top-left
// representation handed to callers: the Y of the top edge is y + height.
func Decode(native Rect) Rect {
	return Rect{
		X:      native.X,
		Y:      native.Y + native.Height,
		Width:  native.Width,
		Height: native.Height,
	}
}

// Encode is the inverse of Decode.
func Encode(topLeft Rect) Rect {
	return Rect{
		X:      topLeft.X,
		Y:      topLeft.Y - topLeft.Height,
		Width:  topLeft.Width,
		Height: topLeft.Height,
	}
}

// FlipY mirrors r vertically inside a screen of the given height. It maps a
// top-left-origin screen rectangle (X11) to bottom-left-origin native space
// and back; applying it twice yields r.
func FlipY(r Rect, screenHeight float64) Rect {
	return Rect{
		X:      r.X,
		Y:      screenHeight - (r.Y + r.Height),
		Width:  r.Width,
		Height: r.Height,
	}
}

// Centered returns r moved so that it is centered within bounds.
func Centered(r, bounds Rect) Rect {
	return Rect{
		X:      bounds.X + (bounds.Width-r.Width)/2,
		Y:      bounds.Y + (bounds.Height-r.Height)/2,
		Width:  r.Width,
		Height: r.Height,
	}
}

// Ints rounds r to integer pixel geometry.
func (r Rect) Ints() (x, y, width, height int) {
	return int(math.Round(r.X)), int(math.Round(r.Y)), int(math.Round(r.Width)), int(math.Round(r.Height))
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

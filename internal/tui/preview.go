package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/registry"
)

// summarizeWindow returns a one-line description of a window's geometry.
func summarizeWindow(info registry.Info) string {
	x, y, w, h := info.Frame.Ints()
	parts := []string{
		fmt.Sprintf("%dx%d at (%d, %d)", w, h, x, y),
		info.State,
	}
	if info.Maximized {
		parts = append(parts, "maximized")
	}
	return strings.Join(parts, " | ")
}

// screenRect converts a caller frame to top-left-origin screen coordinates.
func screenRect(frame, screen geometry.Rect) geometry.Rect {
	return geometry.FlipY(geometry.Encode(frame), screen.Height)
}

// renderFramePreview draws every window inside the screen bounds on an ASCII
// canvas, highlighting selected.
func renderFramePreview(windows []registry.Info, selected int64, screen geometry.Rect, width, height int) []string {
	if width < 4 || height < 3 {
		return emptyCanvas(width, height)
	}
	if screen.Empty() {
		screen = geometry.Rect{Width: 1920, Height: 1080}
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	// Selected window last so it stays on top.
	for _, info := range windows {
		if int64(info.ID) != selected {
			drawFrame(canvas, screenRect(info.Frame, screen), fmt.Sprintf("%d", info.ID), false, screen, width, height)
		}
	}
	for _, info := range windows {
		if int64(info.ID) == selected {
			drawFrame(canvas, screenRect(info.Frame, screen), fmt.Sprintf("%d", info.ID), true, screen, width, height)
		}
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

func drawFrame(canvas [][]rune, rect geometry.Rect, label string, selected bool, screen geometry.Rect, canvasW, canvasH int) {
	// Map rect coordinates to canvas coordinates
	x1 := int((rect.X - screen.X) * float64(canvasW) / screen.Width)
	y1 := int(rect.Y * float64(canvasH) / screen.Height)
	x2 := int((rect.X - screen.X + rect.Width) * float64(canvasW) / screen.Width)
	y2 := int((rect.Y + rect.Height) * float64(canvasH) / screen.Height)

	// Clamp to canvas bounds
	if x1 < 1 {
		x1 = 1
	}
	if y1 < 1 {
		y1 = 1
	}
	if x2 >= canvasW-1 {
		x2 = canvasW - 2
	}
	if y2 >= canvasH-1 {
		y2 = canvasH - 2
	}

	// Need at least 2x2 for a frame
	if x2 <= x1 || y2 <= y1 {
		return
	}

	horiz, vert := '─', '│'
	corners := [4]rune{'┌', '┐', '└', '┘'}
	if selected {
		horiz, vert = '━', '┃'
		corners = [4]rune{'┏', '┓', '┗', '┛'}
	}

	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			canvas[y][x] = ' '
		}
	}
	for x := x1; x <= x2; x++ {
		canvas[y1][x] = horiz
		canvas[y2][x] = horiz
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = vert
		canvas[y][x2] = vert
	}
	canvas[y1][x1] = corners[0]
	canvas[y1][x2] = corners[1]
	canvas[y2][x1] = corners[2]
	canvas[y2][x2] = corners[3]

	// Draw window id in center
	centerY := (y1 + y2) / 2
	centerX := (x1 + x2) / 2
	if centerY > y1 && centerY < y2 && centerX > x1 && centerX < x2 {
		startX := centerX - len(label)/2
		for i, r := range label {
			if startX+i > x1 && startX+i < x2 {
				canvas[centerY][startX+i] = r
			}
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	// Top and bottom borders
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}

	// Left and right borders
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}

	// Corners
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}

package bake

import "github.com/Faultbox/character2d/pkg/sprite"

// SampleCellAlpha returns the highest alpha among the four corners and the
// center of the cell whose top-left pixel is (x, y).
func SampleCellAlpha(buf *sprite.PixelBuffer, x, y, cell int) uint8 {
	half := cell / 2
	return max(
		buf.Alpha(x, y),
		buf.Alpha(x+cell, y),
		buf.Alpha(x, y+cell),
		buf.Alpha(x+cell, y+cell),
		buf.Alpha(x+half, y+half),
	)
}

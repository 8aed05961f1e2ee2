// Package capture defines the camera and display surfaces the sessions drive.
// Implementations live in subpackages; opencv is the one used in production.
package capture

import "math"

// Rect is a box in pixel coordinates, right and bottom exclusive
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Scale multiplies every coordinate by factor, rounding to the nearest pixel
func (r Rect) Scale(factor float64) Rect {
	return Rect{
		Left:   scaleCoord(r.Left, factor),
		Top:    scaleCoord(r.Top, factor),
		Right:  scaleCoord(r.Right, factor),
		Bottom: scaleCoord(r.Bottom, factor),
	}
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func scaleCoord(v int, factor float64) int {
	return int(math.Round(float64(v) * factor))
}

// Overlay is a labelled box drawn over the displayed frame, in the
// coordinates of the full-size frame
type Overlay struct {
	Box   Rect
	Label string
}

// Frame is one image from a camera or a file. Callers own the frame and
// must Close it.
type Frame interface {
	Size() (width, height int)
	// Scale returns a new frame resized by factor; the receiver is unchanged
	Scale(factor float64) (Frame, error)
	// JPEG encodes the frame for extractors and snapshots
	JPEG() ([]byte, error)
	Close() error
}

// Camera produces frames until closed
type Camera interface {
	Read() (Frame, error)
	Close() error
}

// Display shows frames in a window and reports key presses
type Display interface {
	Show(frame Frame, overlay *Overlay) error
	// PollKey returns the key pressed since the last poll, if any
	PollKey() (rune, bool)
	Close() error
}

// Device opens the camera and windows for one session
type Device interface {
	OpenCamera() (Camera, error)
	OpenDisplay(title string) (Display, error)
}

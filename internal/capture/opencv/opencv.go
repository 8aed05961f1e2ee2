// Package opencv implements the capture surfaces with gocv.
package opencv

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const labelStripHeight = 35

var (
	boxColor   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Device opens a webcam by index and named HighGUI windows
type Device struct {
	CameraID int
}

func NewDevice(cameraID int) *Device {
	return &Device{CameraID: cameraID}
}

func (d *Device) OpenCamera() (capture.Camera, error) {
	vc, err := gocv.OpenVideoCapture(d.CameraID)
	if err != nil {
		return nil, domain.ErrCapture.WithError(fmt.Errorf("open camera %d: %w", d.CameraID, err))
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, domain.ErrCapture.WithError(fmt.Errorf("camera %d is not available", d.CameraID))
	}
	return &Camera{vc: vc}, nil
}

func (d *Device) OpenDisplay(title string) (capture.Display, error) {
	return &Window{w: gocv.NewWindow(title)}, nil
}

// Camera reads frames from a gocv VideoCapture
type Camera struct {
	vc   *gocv.VideoCapture
	once sync.Once
}

func (c *Camera) Read() (capture.Frame, error) {
	mat := gocv.NewMat()
	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		_ = mat.Close()
		return nil, domain.ErrCapture.WithError(errors.New("camera returned no frame"))
	}
	return &Frame{mat: mat}, nil
}

func (c *Camera) Close() error {
	var err error
	c.once.Do(func() { err = c.vc.Close() })
	return err
}

// Frame wraps a gocv Mat
type Frame struct {
	mat gocv.Mat
}

// LoadFrame reads an image file from disk
func LoadFrame(path string) (*Frame, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		_ = mat.Close()
		return nil, fmt.Errorf("read image %s: unreadable or unsupported", path)
	}
	return &Frame{mat: mat}, nil
}

func (f *Frame) Size() (int, int) {
	return f.mat.Cols(), f.mat.Rows()
}

func (f *Frame) Scale(factor float64) (capture.Frame, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("invalid scale factor %v", factor)
	}
	dst := gocv.NewMat()
	gocv.Resize(f.mat, &dst, image.Point{}, factor, factor, gocv.InterpolationLinear)
	if dst.Empty() {
		_ = dst.Close()
		return nil, errors.New("resize produced an empty frame")
	}
	return &Frame{mat: dst}, nil
}

func (f *Frame) JPEG() ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, f.mat)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

func (f *Frame) Close() error {
	return f.mat.Close()
}

// Window is a HighGUI window
type Window struct {
	w *gocv.Window
}

// Show draws the overlay onto the frame, then displays it
func (w *Window) Show(frame capture.Frame, overlay *capture.Overlay) error {
	f, ok := frame.(*Frame)
	if !ok {
		return fmt.Errorf("opencv window cannot show %T", frame)
	}

	if overlay != nil && !overlay.Box.Empty() {
		drawOverlay(&f.mat, *overlay)
	}

	w.w.IMShow(f.mat)
	return nil
}

func (w *Window) PollKey() (rune, bool) {
	key := w.w.WaitKey(1)
	if key < 0 {
		return 0, false
	}
	return rune(key & 0xff), true
}

func (w *Window) Close() error {
	return w.w.Close()
}

// drawOverlay draws the face box with a filled label strip along its bottom edge
func drawOverlay(mat *gocv.Mat, overlay capture.Overlay) {
	box := overlay.Box
	if box.Empty() {
		return
	}
	gocv.Rectangle(mat, image.Rect(box.Left, box.Top, box.Right, box.Bottom), boxColor, 2)

	strip := image.Rect(box.Left, box.Bottom-min(labelStripHeight, box.Height()), box.Right, box.Bottom)
	gocv.Rectangle(mat, strip, boxColor, -1)
	gocv.PutText(mat, overlay.Label, image.Pt(box.Left+6, box.Bottom-6), gocv.FontHersheyComplex, 1.0, labelColor, 2)
}

var (
	_ capture.Device  = (*Device)(nil)
	_ capture.Camera  = (*Camera)(nil)
	_ capture.Frame   = (*Frame)(nil)
	_ capture.Display = (*Window)(nil)
)

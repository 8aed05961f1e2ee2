package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, identity string, descriptor domain.Descriptor) (*domain.EnrollmentRecord, error) {
	args := m.Called(ctx, identity, descriptor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrollmentRecord), args.Error(1)
}

func (m *MockStore) LoadAll(ctx context.Context) ([]domain.EnrollmentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EnrollmentRecord), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) DetectAndEncode(ctx context.Context, frame capture.Frame) ([]provider.Detection, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Detection), args.Error(1)
}

func (m *MockExtractor) Close() error {
	return nil
}

// fakeFrame remembers the factor it was scaled by
type fakeFrame struct {
	scale   float64
	payload []byte
	closed  bool
}

func newFakeFrame() *fakeFrame {
	return &fakeFrame{scale: 1, payload: []byte("fake jpeg payload")}
}

func (f *fakeFrame) Size() (int, int) { return 640, 480 }

func (f *fakeFrame) Scale(factor float64) (capture.Frame, error) {
	return &fakeFrame{scale: f.scale * factor, payload: f.payload}, nil
}

func (f *fakeFrame) JPEG() ([]byte, error) {
	return f.payload, nil
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

type fakeCamera struct {
	// failAt makes the read with this 1-based number fail; zero never fails
	failAt int
	reads  int
	closed bool
}

func (c *fakeCamera) Read() (capture.Frame, error) {
	c.reads++
	if c.failAt != 0 && c.reads >= c.failAt {
		return nil, domain.ErrCapture.WithError(errors.New("device unplugged"))
	}
	return newFakeFrame(), nil
}

func (c *fakeCamera) Close() error {
	c.closed = true
	return nil
}

type fakeDisplay struct {
	title    string
	keys     []rune
	overlays []*capture.Overlay
	onShow   func(shown int)
	closed   bool
}

func (d *fakeDisplay) Show(_ capture.Frame, overlay *capture.Overlay) error {
	d.overlays = append(d.overlays, overlay)
	if d.onShow != nil {
		d.onShow(len(d.overlays))
	}
	return nil
}

func (d *fakeDisplay) PollKey() (rune, bool) {
	if len(d.keys) == 0 {
		return 0, false
	}
	key := d.keys[0]
	d.keys = d.keys[1:]
	return key, key != 0
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

type fakeDevice struct {
	camera  *fakeCamera
	display *fakeDisplay
	opened  int
}

func newFakeDevice(keys ...rune) *fakeDevice {
	return &fakeDevice{
		camera:  &fakeCamera{},
		display: &fakeDisplay{keys: keys},
	}
}

func (d *fakeDevice) OpenCamera() (capture.Camera, error) {
	d.opened++
	return d.camera, nil
}

func (d *fakeDevice) OpenDisplay(title string) (capture.Display, error) {
	d.display.title = title
	return d.display, nil
}

type recordingAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAnnouncer) Announce(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *recordingAnnouncer) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

// scriptedPrompter answers with names in order, then io.EOF
type scriptedPrompter struct {
	names []string
	calls int
}

func (p *scriptedPrompter) ReadName(ctx context.Context) (string, error) {
	p.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.names) == 0 {
		return "", io.EOF
	}
	name := p.names[0]
	p.names = p.names[1:]
	return name, nil
}

func descriptor(v float64) domain.Descriptor {
	d := make(domain.Descriptor, 128)
	for i := range d {
		d[i] = v
	}
	return d
}

func detectionAt(box capture.Rect, d domain.Descriptor) []provider.Detection {
	return []provider.Detection{{Box: box, Descriptor: d}}
}

type failingAuditor struct {
	events []audit.EventType
}

func (a *failingAuditor) Log(_ context.Context, event audit.Event) error {
	a.events = append(a.events, event.EventType)
	return errors.New("audit sink unavailable")
}

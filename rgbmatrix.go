// Package rgbmatrix drives scanned HUB75-style RGB LED matrix panels over
// GPIO using Binary Code Modulation.
//
// See the examples for how to use this package.
package rgbmatrix

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flavioheleno/rgbmatrix/imagebcm"
	"periph.io/x/conn/v3/gpio"
)

// planeCount is the number of bit-planes scanned per channel; the panel shows
// 4-bit color depth per channel.
const planeCount = 4

// initialPeriod is the timer period used until the first refresh invocation
// reprograms it from the BCM duration table.
const initialPeriod = 200 * time.Microsecond

// defaultBasePeriod is the display interval of plane 0, the least significant
// bit-plane. Each successive plane doubles it.
const defaultBasePeriod = 50 * time.Microsecond

// Opts is the configuration for a matrix panel.
type Opts struct {
	// Panel geometry
	Width int // Columns (default: 32, must be a positive multiple of 32)
	Rows  int // Multiplexed scan rows: 8 or 16; panel height is 2*Rows

	// DoubleBuffered allocates a second frame buffer so drawing and scan-out
	// never touch the same bytes. Without it SwapBuffers is a no-op.
	DoubleBuffered bool

	// BasePeriod is the on-time of bit-plane 0 (default: 50µs). Planes 1-3
	// display for 2x, 4x and 8x this value.
	BasePeriod time.Duration

	// Timer drives the refresh callback. Leave nil to use an internal
	// goroutine-based timer; supply one to bind the engine to a hardware
	// timer. The engine owns it exclusively.
	Timer IntervalTimer

	// Row address lines. D is only used (and required) when Rows is 16.
	A, B, C, D gpio.PinOut

	// Control lines
	CLK gpio.PinOut // Shift register clock
	LAT gpio.PinOut // Latch
	OE  gpio.PinOut // Output enable (active low)

	// Color data lines, upper and lower half-panel
	R1, G1, B1 gpio.PinOut
	R2, G2, B2 gpio.PinOut
}

// Dev is the device handle for a matrix panel.
type Dev struct {
	// Pins
	addrA, addrB, addrC, addrD gpio.PinOut
	clk, lat, oe               gpio.PinOut
	r1, g1, b1, r2, g2, b2     gpio.PinOut

	// Geometry and BCM timing
	width, rows int
	durations   [planeCount]time.Duration
	timer       IntervalTimer
	ownTimer    bool

	// Frame buffers; both entries alias one buffer when not double-buffered.
	buf       [2]*imagebcm.PlaneBuffer
	backIndex atomic.Int32

	// Swap handoff between the drawing and refresh contexts
	mu          sync.Mutex
	swapDone    *sync.Cond
	swapPending bool
	running     bool

	// Refresh cursor and scan-out scratch, owned by the timer context
	row, plane int
	front      *imagebcm.PlaneBuffer
	scratch    []byte
}

// New creates a matrix panel device driven through the given GPIO pins.
//
// The refresh engine does not start until Begin is called, so the device can
// be drawn into (and inspected in tests) without any timer running.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("rgbmatrix: opts are required")
	}
	width := opts.Width
	if width == 0 {
		width = 32
	}
	if width < 32 || width%32 != 0 {
		return nil, errors.New("rgbmatrix: width must be a positive multiple of 32")
	}
	if opts.Rows != 8 && opts.Rows != 16 {
		return nil, errors.New("rgbmatrix: rows must be 8 or 16")
	}

	type pinCheck struct {
		name string
		pin  gpio.PinOut
	}
	required := []pinCheck{
		{"A", opts.A}, {"B", opts.B}, {"C", opts.C},
		{"CLK", opts.CLK}, {"LAT", opts.LAT}, {"OE", opts.OE},
		{"R1", opts.R1}, {"G1", opts.G1}, {"B1", opts.B1},
		{"R2", opts.R2}, {"G2", opts.G2}, {"B2", opts.B2},
	}
	if opts.Rows == 16 {
		required = append(required, pinCheck{"D", opts.D})
	}
	for _, r := range required {
		if r.pin == nil {
			return nil, fmt.Errorf("rgbmatrix: pin %s is required", r.name)
		}
	}

	base := opts.BasePeriod
	if base == 0 {
		base = defaultBasePeriod
	}

	d := &Dev{
		addrA: opts.A, addrB: opts.B, addrC: opts.C, addrD: opts.D,
		clk: opts.CLK, lat: opts.LAT, oe: opts.OE,
		r1: opts.R1, g1: opts.G1, b1: opts.B1,
		r2: opts.R2, g2: opts.G2, b2: opts.B2,
		width: width,
		rows:  opts.Rows,
		timer: opts.Timer,
		// The first timer callback advances this cursor through a clean
		// rollover into row 0, plane 0.
		row:     opts.Rows - 1,
		plane:   planeCount - 1,
		scratch: make([]byte, width),
	}
	d.swapDone = sync.NewCond(&d.mu)
	for i := range d.durations {
		d.durations[i] = base << i
	}
	if d.timer == nil {
		d.timer = newSleepTimer()
		d.ownTimer = true
	}

	d.buf[0] = imagebcm.NewPlaneBuffer(width, opts.Rows)
	if opts.DoubleBuffered {
		d.buf[1] = imagebcm.NewPlaneBuffer(width, opts.Rows)
	} else {
		// Both buffer roles alias one allocation; swaps become no-ops.
		d.buf[1] = d.buf[0]
	}
	d.front = d.buf[1]

	return d, nil
}

// Begin drives every pin to its idle level and starts the refresh timer.
// Output stays blanked (OE high) until the first refresh invocation.
func (d *Dev) Begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("rgbmatrix: already started")
	}

	low := []gpio.PinOut{
		d.clk, d.lat,
		d.addrA, d.addrB, d.addrC,
		d.r1, d.g1, d.b1, d.r2, d.g2, d.b2,
	}
	if d.rows > 8 {
		low = append(low, d.addrD)
	}
	for _, p := range low {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("rgbmatrix: failed to drive %s low: %w", p, err)
		}
	}
	if err := d.oe.Out(gpio.High); err != nil {
		return fmt.Errorf("rgbmatrix: failed to disable output: %w", err)
	}

	d.running = true
	d.timer.Start(d.refresh, initialPeriod)
	return nil
}

// Halt stops the refresh timer and blanks the panel. Any goroutine blocked in
// SwapBuffers is released without its swap being applied.
func (d *Dev) Halt() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	d.timer.Stop()
	if d.ownTimer {
		// The internal timer is single-shot across Start/Stop; replace it so
		// Begin can be called again.
		d.timer = newSleepTimer()
	}

	d.mu.Lock()
	d.swapPending = false
	d.swapDone.Broadcast()
	d.mu.Unlock()

	return d.oe.Out(gpio.High)
}

// back returns the buffer currently designated for drawing.
func (d *Dev) back() *imagebcm.PlaneBuffer {
	return d.buf[d.backIndex.Load()]
}

// DrawPixel sets the pixel at (x, y) in the back buffer from a 5/6/5 color.
// Coordinates outside the panel are silently ignored.
func (d *Dev) DrawPixel(x, y int, c uint16) {
	d.back().SetRGB565(x, y, c)
}

// FillScreen fills the whole back buffer with a 5/6/5 color.
func (d *Dev) FillScreen(c uint16) {
	d.back().Fill(c)
}

// ColorModel returns the color model of the panel.
func (d *Dev) ColorModel() color.Model {
	return imagebcm.RGB444Model
}

// Bounds returns the image bounds of the panel.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, 2*d.rows)
}

// At returns the back buffer color at (x, y).
func (d *Dev) At(x, y int) color.Color {
	return d.back().At(x, y)
}

// Set sets the back buffer pixel at (x, y). Together with At and Bounds this
// makes Dev a draw.Image, so image/draw and font rasterizers can target the
// panel directly.
func (d *Dev) Set(x, y int, c color.Color) {
	d.back().Set(x, y, c)
}

// BackBuffer returns the raw bytes of the back buffer for bulk load/store of
// pre-packed images. The caller owns the correctness of any writes.
func (d *Dev) BackBuffer() []byte {
	return d.back().Pix
}

// SwapBuffers exchanges the front and back buffer roles for smooth animation.
//
// To avoid tearing the actual exchange happens inside the refresh handler at
// the end of a complete sweep; SwapBuffers blocks until then. With copy true
// the new back buffer is then overwritten with the just-displayed frame so it
// can be modified incrementally; with copy false it holds the stale frame
// from two swaps ago and must be treated as undefined.
//
// Without double buffering this is a no-op.
func (d *Dev) SwapBuffers(copyForward bool) {
	if d.buf[0] == d.buf[1] {
		return
	}
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.swapPending = true
	for d.swapPending {
		d.swapDone.Wait()
	}
	// Halt also releases waiters, without flipping the buffers; the back
	// buffer then still holds the caller's frame and must not be clobbered.
	applied := d.running
	d.mu.Unlock()

	if copyForward && applied {
		back := d.buf[d.backIndex.Load()]
		front := d.buf[1-d.backIndex.Load()]
		copy(back.Pix, front.Pix)
	}
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("rgbmatrix.Dev{%dx%d}", d.width, 2*d.rows)
}

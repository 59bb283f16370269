package rgbmatrix

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/flavioheleno/rgbmatrix/imagebcm"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testOpts() *Opts {
	pin := func(n string) gpio.PinOut { return &gpiotest.Pin{N: n} }
	return &Opts{
		Width: 32, Rows: 8,
		Timer: &manualTimer{},
		A:     pin("A"), B: pin("B"), C: pin("C"), D: pin("D"),
		CLK: pin("CLK"), LAT: pin("LAT"), OE: pin("OE"),
		R1: pin("R1"), G1: pin("G1"), B1: pin("B1"),
		R2: pin("R2"), G2: pin("G2"), B2: pin("B2"),
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Opts)
		wantErr bool
	}{
		{"defaults", func(o *Opts) {}, false},
		{"explicit 64 wide", func(o *Opts) { o.Width = 64 }, false},
		{"width not multiple of 32", func(o *Opts) { o.Width = 40 }, true},
		{"width negative", func(o *Opts) { o.Width = -32 }, true},
		{"rows invalid", func(o *Opts) { o.Rows = 7 }, true},
		{"rows 16 with D", func(o *Opts) { o.Rows = 16 }, false},
		{"rows 16 missing D", func(o *Opts) { o.Rows = 16; o.D = nil }, true},
		{"rows 8 missing D is fine", func(o *Opts) { o.D = nil }, false},
		{"missing CLK", func(o *Opts) { o.CLK = nil }, true},
		{"missing R2", func(o *Opts) { o.R2 = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOpts()
			tt.mutate(opts)
			_, err := New(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil opts", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Error("New(nil) should fail")
		}
	})
}

func TestDefaultWidth(t *testing.T) {
	dev, err := New(testOpts())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	want := image.Rect(0, 0, 32, 16)
	if got := dev.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestDevString(t *testing.T) {
	opts := testOpts()
	opts.Rows = 16
	opts.Width = 64
	dev, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got, want := dev.String(), "rgbmatrix.Dev{64x32}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDevColorModel(t *testing.T) {
	dev, err := New(testOpts())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if dev.ColorModel() != imagebcm.RGB444Model {
		t.Error("ColorModel() did not return RGB444Model")
	}
}

func TestBeginHalt(t *testing.T) {
	dev, h := newTestDev(t, 8, false)

	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if h.timer.fn == nil {
		t.Fatal("Begin() did not start the timer")
	}
	if h.timer.initial != initialPeriod {
		t.Errorf("timer started at %v, want %v", h.timer.initial, initialPeriod)
	}
	if !h.oe.L {
		t.Error("output not disabled before first refresh")
	}

	if err := dev.Begin(); err == nil {
		t.Error("second Begin() should fail")
	}

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	if !h.timer.stopped {
		t.Error("Halt() did not stop the timer")
	}
	if !h.oe.L {
		t.Error("Halt() did not disable output")
	}
	if err := dev.Halt(); err != nil {
		t.Errorf("second Halt() = %v, want nil", err)
	}
}

func TestBeginConcurrent(t *testing.T) {
	dev, h := newTestDev(t, 8, false)

	// Racing Begin calls: exactly one may win and the timer must start once.
	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- dev.Begin()
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("%d Begin() calls succeeded, want 1", ok)
	}
	if h.timer.starts != 1 {
		t.Errorf("timer started %d times, want 1", h.timer.starts)
	}
}

func TestDrawPixelAndBackBuffer(t *testing.T) {
	dev, _ := newTestDev(t, 8, false)

	dev.DrawPixel(0, 0, 0xF800)
	pix := dev.BackBuffer()
	if pix[0] != 0x04 || pix[32] != 0x04 || pix[64] != 0x05 {
		t.Errorf("red pixel bytes = %#02x %#02x %#02x, want 0x04 0x04 0x05",
			pix[0], pix[32], pix[64])
	}

	// Out-of-range coordinates are a no-op.
	dev.DrawPixel(-1, 0, 0xFFFF)
	dev.DrawPixel(0, 16, 0xFFFF)
	if pix[0] != 0x04 || pix[32] != 0x04 || pix[64] != 0x05 {
		t.Error("out-of-range DrawPixel modified the buffer")
	}
}

func TestFillScreen(t *testing.T) {
	dev, _ := newTestDev(t, 8, false)
	dev.FillScreen(0xFFFF)
	for _, b := range dev.BackBuffer() {
		if b != 0xFF {
			t.Fatalf("FillScreen(white) left byte %#02x", b)
		}
	}
	dev.FillScreen(0x0000)
	for _, b := range dev.BackBuffer() {
		if b != 0x00 {
			t.Fatalf("FillScreen(black) left byte %#02x", b)
		}
	}
}

func TestDevIsDrawImage(t *testing.T) {
	dev, _ := newTestDev(t, 8, false)
	var _ draw.Image = dev

	draw.Draw(dev, image.Rect(0, 0, 4, 4), image.NewUniform(color.RGBA{G: 255, A: 255}), image.Point{}, draw.Src)
	want := imagebcm.RGB444{G: 15}
	if got := dev.At(2, 2); got != want {
		t.Errorf("At(2, 2) = %v, want %v", got, want)
	}
	if got := dev.At(10, 10); got != (imagebcm.RGB444{}) {
		t.Errorf("At(10, 10) = %v, want black", got)
	}
}

func TestSwapSingleBufferNoOp(t *testing.T) {
	dev, _ := newTestDev(t, 8, false)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	// Must return immediately without any timer activity.
	dev.SwapBuffers(true)
	dev.SwapBuffers(false)
	if got := dev.backIndex.Load(); got != 0 {
		t.Errorf("backIndex = %d, want 0", got)
	}
	if &dev.buf[0].Pix[0] != &dev.buf[1].Pix[0] {
		t.Error("single-buffer mode should alias one allocation")
	}
}

func TestSwapAppliedOnlyAtSweepBoundary(t *testing.T) {
	dev, h := newTestDev(t, 8, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	h.timer.fire(1) // roll into (0, 0): sweep freshly started

	done := make(chan struct{})
	go func() {
		dev.SwapBuffers(false)
		close(done)
	}()
	waitPending(t, dev)

	// A full sweep minus one: the request must stay pending.
	h.timer.fire(8*planeCount - 1)
	if got := dev.backIndex.Load(); got != 0 {
		t.Fatalf("swap applied mid-sweep: backIndex = %d", got)
	}
	select {
	case <-done:
		t.Fatal("SwapBuffers returned before the sweep boundary")
	default:
	}

	// The rollover expiration applies it.
	h.timer.fire(1)
	if got := dev.backIndex.Load(); got != 1 {
		t.Fatalf("swap not applied at sweep boundary: backIndex = %d", got)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SwapBuffers did not return after the swap was applied")
	}
}

func TestSwapAppliedAtMostOncePerSweep(t *testing.T) {
	dev, h := newTestDev(t, 8, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	h.timer.fire(1)

	// However often the flag is raised between sweeps, one boundary applies
	// exactly one swap and later boundaries none.
	dev.mu.Lock()
	dev.swapPending = true
	dev.swapPending = true
	dev.mu.Unlock()

	h.timer.fire(8 * planeCount)
	if got := dev.backIndex.Load(); got != 1 {
		t.Fatalf("backIndex after one sweep = %d, want 1", got)
	}
	dev.mu.Lock()
	pending := dev.swapPending
	dev.mu.Unlock()
	if pending {
		t.Fatal("pending flag not cleared by the applied swap")
	}

	h.timer.fire(3 * 8 * planeCount)
	if got := dev.backIndex.Load(); got != 1 {
		t.Fatalf("backIndex changed without a request: %d", got)
	}
}

func TestSwapCopyForward(t *testing.T) {
	dev, h := newTestDev(t, 8, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	dev.DrawPixel(3, 3, 0x07E0)
	drawn := make([]byte, len(dev.BackBuffer()))
	copy(drawn, dev.BackBuffer())

	done := make(chan struct{})
	go func() {
		dev.SwapBuffers(true)
		close(done)
	}()
	waitPending(t, dev)
	h.timer.fire(2 * 8 * planeCount)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SwapBuffers(true) did not return")
	}

	// The new back buffer starts from the just-displayed frame.
	if !bytes.Equal(dev.BackBuffer(), drawn) {
		t.Error("copyForward did not copy the front frame into the new back buffer")
	}
}

func TestSwapEndToEndRedPixel(t *testing.T) {
	// 8 scan rows, 32 columns, double buffered. One red pixel at (0,0),
	// swap without copy; the front buffer must hold the exact plane
	// encoding for full red and nothing else.
	dev, h := newTestDev(t, 8, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	dev.DrawPixel(0, 0, Color888(255, 0, 0))

	done := make(chan struct{})
	go func() {
		dev.SwapBuffers(false)
		close(done)
	}()
	waitPending(t, dev)
	h.timer.fire(2 * 8 * planeCount)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SwapBuffers did not return")
	}

	front := dev.buf[1-dev.backIndex.Load()]
	for i, b := range front.Pix {
		var want byte
		switch i {
		case 0, 32:
			want = 0x04
		case 64:
			want = 0x05
		}
		if b != want {
			t.Errorf("front.Pix[%d] = %#02x, want %#02x", i, b, want)
		}
	}
}

func TestHaltReleasesPendingSwap(t *testing.T) {
	dev, _ := newTestDev(t, 8, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		dev.SwapBuffers(false)
		close(done)
	}()
	waitPending(t, dev)

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Halt() did not release the blocked SwapBuffers")
	}
	if got := dev.backIndex.Load(); got != 0 {
		t.Errorf("Halt() applied a swap: backIndex = %d", got)
	}
}

func TestHaltSkipsCopyForward(t *testing.T) {
	// When Halt releases a blocked SwapBuffers(true), no swap happened, so
	// the back buffer keeps the caller's frame instead of being overwritten
	// with the stale front.
	dev, _ := newTestDev(t, 8, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	dev.DrawPixel(3, 3, 0x07E0)
	drawn := make([]byte, len(dev.BackBuffer()))
	copy(drawn, dev.BackBuffer())

	done := make(chan struct{})
	go func() {
		dev.SwapBuffers(true)
		close(done)
	}()
	waitPending(t, dev)

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Halt() did not release the blocked SwapBuffers")
	}
	if got := dev.backIndex.Load(); got != 0 {
		t.Fatalf("Halt() applied a swap: backIndex = %d", got)
	}
	if !bytes.Equal(dev.BackBuffer(), drawn) {
		t.Error("released SwapBuffers(true) overwrote the back buffer")
	}
}

func waitPending(t *testing.T, d *Dev) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		pending := d.swapPending
		d.mu.Unlock()
		if pending {
			return
		}
		time.Sleep(100 * time.Microsecond)
	}
	t.Fatal("swap request never became pending")
}

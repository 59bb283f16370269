package rgbmatrix

import (
	"github.com/flavioheleno/rgbmatrix/imagebcm"
	"periph.io/x/conn/v3/gpio"
)

// refresh runs once per timer period on the timer's context. It advances the
// (row, plane) cursor, reprograms the timer with the BCM interval of the
// plane just latched, and shifts out the next plane's data.
//
// The flow can be awkward to grasp: data is shifted for the *next* plane and
// row while the *current* one is displayed, so the cursor changes tense in
// mid-function. The address lines are updated one step later than the data
// they belong to, at the plane 1 transition, because plane 0 was shifted
// during the prior invocation and only latches now.
//
// Pin errors are ignored here: a failed edge costs brightness on one column
// of one plane but never corrupts the cursor or the buffers.
func (d *Dev) refresh() {
	d.oe.Out(gpio.High)  // Disable LED output during row/plane switchover
	d.lat.Out(gpio.High) // Latch data loaded during prior invocation
	d.clk.Out(gpio.Low)  // Start the clock low

	// On-time for the plane that just latched.
	duration := d.durations[d.plane]

	// All four planes of a scanline are cycled before advancing to the next
	// line; interleaving planes across lines causes green ghosting on black
	// pixels with these panels.
	d.plane++
	if d.plane >= planeCount {
		d.plane = 0
		d.row++
		if d.row >= d.rows {
			// Sweep complete. This is the only place the front/back roles
			// may flip, so the front buffer is never mutated mid-scan.
			d.row = 0
			d.mu.Lock()
			if d.swapPending {
				d.backIndex.Store(1 - d.backIndex.Load())
				d.swapPending = false
				d.swapDone.Broadcast()
			}
			d.mu.Unlock()
			d.front = d.buf[1-d.backIndex.Load()]
		}
	} else if d.plane == 1 {
		// Plane 0 of the upcoming row was shifted on the prior invocation
		// and is about to latch; select that row before it does.
		d.addrA.Out(gpio.Level(d.row&0x1 != 0))
		d.addrB.Out(gpio.Level(d.row&0x2 != 0))
		d.addrC.Out(gpio.Level(d.row&0x4 != 0))
		if d.rows > 8 {
			d.addrD.Out(gpio.Level(d.row&0x8 != 0))
		}
	}

	d.timer.Reprogram(duration)

	d.oe.Out(gpio.Low)  // Re-enable output
	d.lat.Out(gpio.Low) // Latch down

	if d.plane > 0 {
		d.shiftRow(d.front.PlaneRow(d.row, d.plane))
	} else {
		// Plane 0 needs its bits recombined first. The extra work is done
		// while plane 3 is displayed; with binary coded modulation that
		// plane has the longest interval, so the unpacking fits.
		d.front.Plane0Row(d.row, d.scratch)
		d.shiftRow(d.scratch)
	}
}

// shiftRow bit-bangs one row of already-packed plane data: for every column
// the six data lines are set from bits 2-7, then the clock is pulsed.
func (d *Dev) shiftRow(line []byte) {
	for _, b := range line {
		d.r1.Out(gpio.Level(b&imagebcm.BitR1 != 0))
		d.g1.Out(gpio.Level(b&imagebcm.BitG1 != 0))
		d.b1.Out(gpio.Level(b&imagebcm.BitB1 != 0))
		d.r2.Out(gpio.Level(b&imagebcm.BitR2 != 0))
		d.g2.Out(gpio.Level(b&imagebcm.BitG2 != 0))
		d.b2.Out(gpio.Level(b&imagebcm.BitB2 != 0))
		d.clk.Out(gpio.High)
		d.clk.Out(gpio.Low)
	}
}

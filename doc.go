// Package rgbmatrix drives scanned HUB75-style RGB LED matrix panels over
// GPIO, producing 4-bit color per channel with Binary Code Modulation.
//
// Supported panels are row-multiplexed 1:8 (16 pixels high) or 1:16 (32
// pixels high), with a width that is a multiple of 32. The driver implements
// image/draw's Image interface so standard Go image code can target the
// panel directly.
//
// # How it works
//
// Brightness control does not use PWM. Each of the 4 bit-planes of the frame
// is displayed for a period proportional to its binary weight (base, 2x, 4x,
// 8x), so a channel's perceived brightness is proportional to its 4-bit
// value. This is Binary Code Modulation; it needs far fewer refresh cycles
// than software PWM at the same depth. See
// http://www.batsocks.co.uk/readme/art_bcm_1.htm for a good explanation.
//
// A periodic timer drives the refresh handler, which walks all planes of a
// scan row before advancing to the next row, shifting packed frame data out
// over six color data lines shared by the two half-panels. Drawing happens
// in a back buffer; with double buffering enabled, SwapBuffers exchanges the
// buffer roles at the end of a full sweep so the scanned-out frame is never
// torn.
//
// # Hardware Connection
//
// Connect the panel's HUB75 input to GPIO:
//
//	Panel Pin   → System Pin
//	R1,G1,B1    → GPIO (upper half color data)
//	R2,G2,B2    → GPIO (lower half color data)
//	A,B,C(,D)   → GPIO (row address; D only on 1:16 panels)
//	CLK         → GPIO (shift clock)
//	LAT/STB     → GPIO (latch)
//	OE          → GPIO (output enable, active low)
//	GND         → GND
//
// Panel power (5V, several amps at full white) must come from a dedicated
// supply, not the GPIO header.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"github.com/flavioheleno/rgbmatrix"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Create the device for a 32x16 panel
//		dev, _ := rgbmatrix.New(&rgbmatrix.Opts{
//			Width: 32, Rows: 8, DoubleBuffered: true,
//			A: gpioreg.ByName("GPIO22"), B: gpioreg.ByName("GPIO26"), C: gpioreg.ByName("GPIO27"),
//			CLK: gpioreg.ByName("GPIO17"), LAT: gpioreg.ByName("GPIO21"), OE: gpioreg.ByName("GPIO4"),
//			R1: gpioreg.ByName("GPIO5"), G1: gpioreg.ByName("GPIO13"), B1: gpioreg.ByName("GPIO6"),
//			R2: gpioreg.ByName("GPIO12"), G2: gpioreg.ByName("GPIO16"), B2: gpioreg.ByName("GPIO23"),
//		})
//
//		// Start the refresh engine
//		dev.Begin()
//		defer dev.Halt()
//
//		// Draw into the back buffer, then present it
//		dev.DrawPixel(0, 0, rgbmatrix.Color888(255, 0, 0))
//		dev.SwapBuffers(false)
//	}
//
// # Color
//
// All drawing entry points take 5/6/5 color; the panel stores the top 4 bits
// of each channel. Color333, Color444 and Color888 promote other linear RGB
// widths, Color888Gamma applies gamma correction, and ColorHSV converts from
// hue/saturation/value with optional gamma.
package rgbmatrix

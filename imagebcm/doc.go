// Package imagebcm provides the packed bit-plane frame format for scanned RGB
// LED matrix panels driven with Binary Code Modulation.
//
// The panel shows 4-bit color per channel (16 levels) by displaying each of 4
// bit-planes for a time proportional to its binary weight. A row block is 3
// bytes per column; one byte carries data for both physical half-panels since
// they share the same shift path.
//
// Memory layout for the row block at row*W*3 (column x, W columns):
//
//	Byte x      (plane 1): bits 2-4 = upper R,G,B   bits 5-7 = lower R,G,B
//	Byte x+W    (plane 2): bits 2-4 = upper R,G,B   bits 5-7 = lower R,G,B
//	Byte x+2W   (plane 3): bits 2-4 = upper R,G,B   bits 5-7 = lower R,G,B
//
// Plane 0 has no byte of its own. Its six bits hide in the low bits of the
// same three bytes:
//
//	Byte x      bit 0 = lower G,  bit 1 = lower B
//	Byte x+W    bit 0 = upper B,  bit 1 = lower R
//	Byte x+2W   bit 0 = upper R,  bit 1 = upper G
//
// Plane0Row recombines these into the bit 2-7 positions used by planes 1-3,
// so the scan-out path emits every plane through one code path. The
// asymmetric placement between the two halves follows the panel wiring and is
// part of the format.
//
// This package provides:
//
// - RGB444: A color type representing the panel's 4-bit-per-channel color
// - RGB444Model: A color model for converting standard Go colors to RGB444
// - PlaneBuffer: A draw.Image implementation over the packed planes
//
// Example usage:
//
//	// Create a buffer for a 32x16 panel (8 multiplexed scan rows)
//	buf := imagebcm.NewPlaneBuffer(32, 8)
//
//	// Set a pixel from a 5/6/5 color
//	buf.SetRGB565(10, 3, 0xF800)
//
//	// Read it back at the panel's 4-bit depth
//	c := buf.RGB444At(10, 3)
//	println(c.R) // Output: 15
//
//	// Use with standard Go image operations
//	draw.Draw(buf, buf.Bounds(), image.NewUniform(imagebcm.RGB444{R: 15}), image.Point{}, draw.Src)
package imagebcm

// Package imagebcm provides the packed bit-plane frame format used by scanned
// RGB LED matrix panels driven with Binary Code Modulation.
//
// A PlaneBuffer holds 4 bit-planes per color channel for a width×(2·rows)
// panel in width×rows×3 bytes, laid out so planes 1-3 can be bit-banged onto
// the panel's six data lines without unpacking.
package imagebcm

import (
	"image"
	"image/color"
)

// planeCount is the number of bit-planes per color channel.
const planeCount = 4

// Bit positions of the six panel data lines within an emitted byte. Planes
// 1-3 store these directly; Plane0Row rebuilds plane 0 into the same layout.
const (
	BitR1 = 1 << 2 // upper half red
	BitG1 = 1 << 3 // upper half green
	BitB1 = 1 << 4 // upper half blue
	BitR2 = 1 << 5 // lower half red
	BitG2 = 1 << 6 // lower half green
	BitB2 = 1 << 7 // lower half blue
)

// RGB444 represents the panel's internal 4-bit-per-channel color.
// Only the lower 4 bits of each channel are used.
type RGB444 struct {
	R, G, B uint8
}

// RGBA converts the RGB444 color to standard RGBA.
// Each 4-bit value (0-15) is scaled to 16-bit (0-65535).
func (c RGB444) RGBA() (r, g, b, a uint32) {
	// 0xF * 0x1111 = 0xFFFF, 0x5 * 0x1111 = 0x5555, etc.
	return uint32(c.R&0x0F) * 0x1111,
		uint32(c.G&0x0F) * 0x1111,
		uint32(c.B&0x0F) * 0x1111,
		0xFFFF
}

// toRGB444 converts any color.Color to RGB444.
func toRGB444(c color.Color) color.Color {
	if v, ok := c.(RGB444); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns 16-bit values, keep the top 4 bits of each channel.
	return RGB444{R: uint8(r >> 12), G: uint8(g >> 12), B: uint8(b >> 12)}
}

// RGB444Model converts colors to RGB444.
var RGB444Model = color.ModelFunc(toRGB444)

// FromRGB565 extracts the top 4 bits of each 5/6/5 channel.
func FromRGB565(c uint16) RGB444 {
	// RRRRrggggggbbbbb / rrrrrGGGGggbbbbb / rrrrrggggggBBBBb
	return RGB444{
		R: uint8(c >> 12),
		G: uint8(c>>7) & 0x0F,
		B: uint8(c>>1) & 0x0F,
	}
}

// PlaneBuffer is a packed bit-plane image for a W×(2·Rows) panel.
//
// The byte layout is a hardware contract shared with the panel's shift
// registers; the asymmetry between the upper- and lower-half plane 0
// encodings is preserved exactly as the wire format requires.
type PlaneBuffer struct {
	Pix  []byte // Packed pixel data, W*Rows*3 bytes
	W    int    // Columns
	Rows int    // Multiplexed scan rows; panel height is 2*Rows
}

// NewPlaneBuffer creates a zeroed PlaneBuffer for a w column, rows scan-row
// panel. The buffer is allocated once and never resized.
func NewPlaneBuffer(w, rows int) *PlaneBuffer {
	return &PlaneBuffer{
		Pix:  make([]byte, w*rows*3),
		W:    w,
		Rows: rows,
	}
}

// ColorModel returns the color model of the image.
func (p *PlaneBuffer) ColorModel() color.Model {
	return RGB444Model
}

// Bounds returns the image bounds: the full physical panel, twice as tall as
// the scan-row count.
func (p *PlaneBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.W, 2*p.Rows)
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *PlaneBuffer) At(x, y int) color.Color {
	return p.RGB444At(x, y)
}

// RGB444At decodes the pixel at (x, y) back out of the packed planes.
// Out-of-range coordinates return black.
func (p *PlaneBuffer) RGB444At(x, y int) RGB444 {
	if x < 0 || x >= p.W || y < 0 || y >= 2*p.Rows {
		return RGB444{}
	}
	var c RGB444
	if y < p.Rows {
		base := y*p.W*3 + x
		c.R = p.Pix[base+2*p.W] & 0x01
		c.G = (p.Pix[base+2*p.W] >> 1) & 0x01
		c.B = p.Pix[base+p.W] & 0x01
		for plane := 1; plane < planeCount; plane++ {
			b := p.Pix[base+(plane-1)*p.W]
			if b&BitR1 != 0 {
				c.R |= 1 << plane
			}
			if b&BitG1 != 0 {
				c.G |= 1 << plane
			}
			if b&BitB1 != 0 {
				c.B |= 1 << plane
			}
		}
	} else {
		base := (y-p.Rows)*p.W*3 + x
		c.G = p.Pix[base] & 0x01
		c.B = (p.Pix[base] >> 1) & 0x01
		c.R = (p.Pix[base+p.W] >> 1) & 0x01
		for plane := 1; plane < planeCount; plane++ {
			b := p.Pix[base+(plane-1)*p.W]
			if b&BitR2 != 0 {
				c.R |= 1 << plane
			}
			if b&BitG2 != 0 {
				c.G |= 1 << plane
			}
			if b&BitB2 != 0 {
				c.B |= 1 << plane
			}
		}
	}
	return c
}

// Set sets the color of the pixel at (x, y).
// It implements the draw.Image interface.
func (p *PlaneBuffer) Set(x, y int, c color.Color) {
	v := RGB444Model.Convert(c).(RGB444)
	p.setRGB444(x, y, v.R&0x0F, v.G&0x0F, v.B&0x0F)
}

// SetRGB565 sets the pixel at (x, y) from a 5/6/5 color, keeping the top 4
// bits of each channel. Out-of-range coordinates are silently ignored:
// drawing outside the canvas is a no-op, not a fault.
func (p *PlaneBuffer) SetRGB565(x, y int, c uint16) {
	v := FromRGB565(c)
	p.setRGB444(x, y, v.R, v.G, v.B)
}

func (p *PlaneBuffer) setRGB444(x, y int, r, g, b uint8) {
	if x < 0 || x >= p.W || y < 0 || y >= 2*p.Rows {
		return
	}
	pix := p.Pix
	if y < p.Rows {
		// Upper half-panel: planes 1-3 in bits 2-4, plane 0 spread over the
		// low bits of the two following plane bytes.
		base := y*p.W*3 + x
		pix[base+2*p.W] &^= 0x03 // plane 0 R,G mask out in one op
		if r&1 != 0 {
			pix[base+2*p.W] |= 0x01
		}
		if g&1 != 0 {
			pix[base+2*p.W] |= 0x02
		}
		if b&1 != 0 {
			pix[base+p.W] |= 0x01
		} else {
			pix[base+p.W] &^= 0x01
		}
		for bit, off := uint8(2), base; bit < 1<<planeCount; bit, off = bit<<1, off+p.W {
			pix[off] &^= BitR1 | BitG1 | BitB1
			if r&bit != 0 {
				pix[off] |= BitR1
			}
			if g&bit != 0 {
				pix[off] |= BitG1
			}
			if b&bit != 0 {
				pix[off] |= BitB1
			}
		}
	} else {
		// Lower half-panel: planes 1-3 in bits 5-7. Plane 0 uses a different
		// low-bit arrangement than the upper half; the asymmetry matches the
		// shift-register wiring and must not be "simplified".
		base := (y-p.Rows)*p.W*3 + x
		pix[base] &^= 0x03 // plane 0 G,B mask out in one op
		if g&1 != 0 {
			pix[base] |= 0x01
		}
		if b&1 != 0 {
			pix[base] |= 0x02
		}
		if r&1 != 0 {
			pix[base+p.W] |= 0x02
		} else {
			pix[base+p.W] &^= 0x02
		}
		for bit, off := uint8(2), base; bit < 1<<planeCount; bit, off = bit<<1, off+p.W {
			pix[off] &^= BitR2 | BitG2 | BitB2
			if r&bit != 0 {
				pix[off] |= BitR2
			}
			if g&bit != 0 {
				pix[off] |= BitG2
			}
			if b&bit != 0 {
				pix[off] |= BitB2
			}
		}
	}
}

// Fill sets every pixel to the 5/6/5 color c.
//
// For pure black and pure white every bit in the buffer ends up identically
// unset or set regardless of the packing, so a plain byte fill suffices; any
// other color goes the long way through SetRGB565.
func (p *PlaneBuffer) Fill(c uint16) {
	switch c {
	case 0x0000, 0xFFFF:
		v := byte(0x00)
		if c == 0xFFFF {
			v = 0xFF
		}
		for i := range p.Pix {
			p.Pix[i] = v
		}
	default:
		for y := 0; y < 2*p.Rows; y++ {
			for x := 0; x < p.W; x++ {
				p.SetRGB565(x, y, c)
			}
		}
	}
}

// PlaneRow returns the W bytes holding plane 1, 2 or 3 of a scan row, ready
// to be shifted out as-is. The slice aliases the buffer.
func (p *PlaneBuffer) PlaneRow(row, plane int) []byte {
	base := row*p.W*3 + (plane-1)*p.W
	return p.Pix[base : base+p.W]
}

// Plane0Row rebuilds plane 0 of a scan row into dst, which must be at least W
// bytes. The three packed source bytes per column are recombined so their low
// bits land in the same bit 2-7 positions PlaneRow rows use, letting plane 0
// share the six data lines without a dedicated fourth byte per row.
func (p *PlaneBuffer) Plane0Row(row int, dst []byte) {
	base := row * p.W * 3
	w := p.W
	for i := 0; i < w; i++ {
		dst[i] = p.Pix[base+i]<<6 |
			(p.Pix[base+w+i]<<4)&0x30 |
			(p.Pix[base+2*w+i]<<2)&0x0C
	}
}

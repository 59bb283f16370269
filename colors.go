package rgbmatrix

// The panel operates internally on 4/4/4 color while the drawing entry points
// take 5/6/5, the format shared by most 16-bit graphics code. The conversion
// helpers below promote narrower formats into 5/6/5 by replicating each
// channel's most significant bits into the vacated low bits, which
// approximates linear scaling without a divide.

// Color333 promotes 3/3/3 RGB to 5/6/5.
func Color333(r, g, b uint8) uint16 {
	// RRRrrGGGgggBBBbb
	return uint16(r&0x7)<<13 | uint16(r&0x6)<<10 |
		uint16(g&0x7)<<8 | uint16(g&0x7)<<5 |
		uint16(b&0x7)<<2 | uint16(b&0x6)>>1
}

// Color444 promotes 4/4/4 RGB to 5/6/5.
func Color444(r, g, b uint8) uint16 {
	// RRRRrGGGGggBBBBb
	return uint16(r&0xF)<<12 | uint16(r&0x8)<<8 |
		uint16(g&0xF)<<7 | uint16(g&0xC)<<3 |
		uint16(b&0xF)<<1 | uint16(b&0x8)>>3
}

// Color888 demotes 8/8/8 RGB to 5/6/5, assuming linear color.
func Color888(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3
}

// Color888Gamma demotes 8/8/8 RGB to 5/6/5 through the gamma correction
// table, which maps each 8-bit channel to 4 bits before packing.
func Color888Gamma(r, g, b uint8) uint16 {
	return color444To565(gammaTable[r], gammaTable[g], gammaTable[b])
}

// color444To565 packs three 4-bit channels into 5/6/5 with the same
// bit-replication convention as Color444.
func color444To565(r, g, b uint8) uint16 {
	return uint16(r)<<12 | uint16(r&0x8)<<8 |
		uint16(g)<<7 | uint16(g&0xC)<<3 |
		uint16(b)<<1 | uint16(b)>>3
}

// ColorHSV converts a hue/saturation/value color to 5/6/5.
//
// hue is expressed in 1/256ths of a sextant of the color wheel, so a full
// revolution is 1536; any value is wrapped into range, negatives included.
// sat runs from 0 (pure white) to 255 (fully saturated) and val from 0
// (black) to 255 (full brightness). With gflag set, channels pass through the
// gamma table before packing.
func ColorHSV(hue int, sat, val uint8, gflag bool) uint16 {
	var r, g, b uint8

	// Hue: high byte selects the sextant of the color wheel, low byte the
	// mix between its two bounding primaries.
	hue %= 1536
	if hue < 0 {
		hue += 1536
	}
	lo := uint8(hue & 255)
	switch hue >> 8 {
	case 0: // R to Y
		r, g, b = 255, lo, 0
	case 1: // Y to G
		r, g, b = 255-lo, 255, 0
	case 2: // G to C
		r, g, b = 0, 255, lo
	case 3: // C to B
		r, g, b = 0, 255-lo, 255
	case 4: // B to M
		r, g, b = lo, 0, 255
	default: // M to R
		r, g, b = 255, 0, 255-lo
	}

	// Saturation: widen to 1-256 so a shift substitutes for a divide while
	// full saturation still maps to full scale.
	s1 := uint16(sat) + 1
	r = 255 - uint8((uint16(255-r)*s1)>>8)
	g = 255 - uint8((uint16(255-g)*s1)>>8)
	b = 255 - uint8((uint16(255-b)*s1)>>8)

	// Value: same widening trick. The linear path shifts by 12 to land
	// directly on 4-bit channels.
	v1 := uint16(val) + 1
	if gflag {
		r = gammaTable[(uint16(r)*v1)>>8]
		g = gammaTable[(uint16(g)*v1)>>8]
		b = gammaTable[(uint16(b)*v1)>>8]
	} else {
		r = uint8((uint16(r) * v1) >> 12)
		g = uint8((uint16(g) * v1) >> 12)
		b = uint8((uint16(b) * v1) >> 12)
	}
	return color444To565(r, g, b)
}

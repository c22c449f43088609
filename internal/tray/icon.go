package tray

import (
	"bytes"
	"encoding/binary"
	"math"
)

const iconSize = 16

// icon renders a 16x16 32-bit ICO: a ring with a centre dot
func icon() []byte {
	const (
		headerLen = 6 + 16
		dibLen    = 40
		pixelLen  = iconSize * iconSize * 4
		maskLen   = iconSize * 4 // 16 bits per row, padded to 32
	)

	var buf bytes.Buffer
	le := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	// ICONDIR
	le(uint16(0))
	le(uint16(1)) // type: icon
	le(uint16(1)) // count

	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	le(uint16(1))  // planes
	le(uint16(32)) // bpp
	le(uint32(dibLen + pixelLen + maskLen))
	le(uint32(headerLen))

	// BITMAPINFOHEADER; height covers XOR and AND masks
	le(uint32(dibLen))
	le(int32(iconSize))
	le(int32(iconSize * 2))
	le(uint16(1))
	le(uint16(32))
	le(uint32(0))
	le(uint32(pixelLen + maskLen))
	le([4]uint32{})

	// Pixels are BGRA, bottom row first
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			buf.Write(pixel(x, y))
		}
	}

	// Alpha carries transparency, so the AND mask stays clear
	buf.Write(make([]byte, maskLen))

	return buf.Bytes()
}

func pixel(x, y int) []byte {
	const c = (iconSize - 1) / 2.0
	r := math.Hypot(float64(x)-c, float64(y)-c)

	switch {
	case r <= 2.5:
		return []byte{0xff, 0xff, 0xff, 0xff}
	case r >= 5.5 && r <= 7.5:
		return []byte{0xe0, 0x90, 0x30, 0xff}
	default:
		return []byte{0, 0, 0, 0}
	}
}

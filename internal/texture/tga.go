// Package texture decodes palette atlas images.
package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// TGA decoding errors.
var (
	ErrTGATruncated   = errors.New("TGA data truncated")
	ErrTGAUnsupported = errors.New("unsupported TGA variant")
)

type tgaHeader struct {
	IDLength     uint8
	ColorMapType uint8
	ImageType    uint8
	ColorMapSpec [5]byte
	XOrigin      uint16
	YOrigin      uint16
	Width        uint16
	Height       uint16
	BitsPerPixel uint8
	Descriptor   uint8
}

const tgaHeaderSize = 18

// DecodeTGA decodes an uncompressed (type 2) or RLE (type 10) true-color TGA
// image with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, ErrTGATruncated
	}

	var h tgaHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("reading TGA header: %w", err)
	}

	if h.ColorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrTGAUnsupported)
	}
	if h.ImageType != TGATypeUncompressed && h.ImageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: image type %d", ErrTGAUnsupported, h.ImageType)
	}
	if h.BitsPerPixel != 24 && h.BitsPerPixel != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrTGAUnsupported, h.BitsPerPixel)
	}

	offset := tgaHeaderSize + int(h.IDLength)
	if offset > len(data) {
		return nil, ErrTGATruncated
	}

	d := &tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, int(h.Width), int(h.Height))),
		src:         data[offset:],
		width:       int(h.Width),
		height:      int(h.Height),
		bpp:         int(h.BitsPerPixel) / 8,
		topToBottom: h.Descriptor&0x20 != 0,
	}

	var err error
	if h.ImageType == TGATypeUncompressed {
		err = d.uncompressed()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img           *image.NRGBA
	src           []byte
	pos           int
	width, height int
	bpp           int
	topToBottom   bool
}

// pixel reads one BGR(A) pixel from the source.
func (d *tgaDecoder) pixel() (color.NRGBA, bool) {
	if d.pos+d.bpp > len(d.src) {
		return color.NRGBA{}, false
	}
	p := d.src[d.pos : d.pos+d.bpp]
	d.pos += d.bpp
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	return c, true
}

// set stores pixel number i in file order.
func (d *tgaDecoder) set(i int, c color.NRGBA) {
	x, y := i%d.width, i/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
}

func (d *tgaDecoder) uncompressed() error {
	n := d.width * d.height
	for i := 0; i < n; i++ {
		c, ok := d.pixel()
		if !ok {
			return ErrTGATruncated
		}
		d.set(i, c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	n := d.width * d.height
	for i := 0; i < n; {
		if d.pos >= len(d.src) {
			return ErrTGATruncated
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run: one pixel repeated.
			c, ok := d.pixel()
			if !ok {
				return ErrTGATruncated
			}
			for j := 0; j < count && i < n; j++ {
				d.set(i, c)
				i++
			}
			continue
		}

		for j := 0; j < count && i < n; j++ {
			c, ok := d.pixel()
			if !ok {
				return ErrTGATruncated
			}
			d.set(i, c)
			i++
		}
	}
	return nil
}

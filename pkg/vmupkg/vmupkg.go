package vmupkg

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Header layout constants.
const (
	// HeaderSize is the fixed package header size in bytes.
	HeaderSize = 128

	// DescShortLen and DescLongLen are the description field sizes.
	DescShortLen = 16
	DescLongLen  = 32

	// AppIDLen is the application ID field size.
	AppIDLen = 16

	// IconSize is the size of one 16-color icon frame in bytes.
	IconSize = 512

	// PaletteEntries is the number of icon palette entries.
	PaletteEntries = 16
)

// Package errors.
var (
	// ErrFieldTooLong indicates a description or app ID over its
	// fixed field size.
	ErrFieldTooLong = errors.New("package field too long")

	// ErrBadEyecatch indicates an unknown eyecatch type.
	ErrBadEyecatch = errors.New("bad eyecatch type")

	// ErrIconDataSize indicates icon data not matching the icon count.
	ErrIconDataSize = errors.New("icon data size mismatch")

	// ErrEyecatchSize indicates eyecatch data not matching its type.
	ErrEyecatchSize = errors.New("eyecatch data size mismatch")

	// ErrTruncated indicates a package image shorter than its header
	// claims.
	ErrTruncated = errors.New("package truncated")

	// ErrCRCMismatch indicates a failed checksum.
	ErrCRCMismatch = errors.New("package CRC mismatch")
)

// EyecatchType selects the pixel format of the eyecatch image.
type EyecatchType uint16

const (
	// EyecatchNone means no eyecatch image.
	EyecatchNone EyecatchType = 0
	// Eyecatch16Bit is a direct-color 72x56 image.
	Eyecatch16Bit EyecatchType = 1
	// Eyecatch256Color is a paletted 72x56 image with a 256-entry
	// palette.
	Eyecatch256Color EyecatchType = 2
	// Eyecatch16Color is a paletted 72x56 image with a 16-entry
	// palette.
	Eyecatch16Color EyecatchType = 3
)

// dataSize returns the eyecatch payload size for the type.
func (t EyecatchType) dataSize() (int, error) {
	switch t {
	case EyecatchNone:
		return 0, nil
	case Eyecatch16Bit:
		return 72 * 56 * 2, nil
	case Eyecatch256Color:
		return 512 + 72*56, nil
	case Eyecatch16Color:
		return 32 + 72*56/2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrBadEyecatch, t)
	}
}

// Package is a decoded VMU file package.
type Package struct {
	// DescShort is the description shown in the file manager
	// (up to 16 characters).
	DescShort string

	// DescLong is the long description (up to 32 characters).
	DescLong string

	// AppID identifies the application that wrote the file
	// (up to 16 characters).
	AppID string

	// IconCount is the number of animated icon frames.
	IconCount int

	// IconAnimSpeed is the icon animation speed.
	IconAnimSpeed int

	// EyecatchType selects the eyecatch image format.
	EyecatchType EyecatchType

	// IconPalette is the 16-entry palette shared by the icon frames.
	IconPalette [PaletteEntries]uint16

	// IconData holds IconCount frames of 512 bytes each.
	IconData []byte

	// EyecatchData holds the eyecatch image in the format selected by
	// EyecatchType.
	EyecatchData []byte

	// Data is the file payload.
	Data []byte
}

// crc16 computes the package checksum (CCITT polynomial 0x1021) over
// the whole image with the CRC field zeroed.
func crc16(buf []byte) uint16 {
	var n uint32
	for _, b := range buf {
		n ^= uint32(b) << 8
		for c := 0; c < 8; c++ {
			if n&0x8000 != 0 {
				n = (n << 1) ^ 4129
			} else {
				n <<= 1
			}
		}
	}
	return uint16(n)
}

// Build serializes the package into a byte image suitable for writing
// to a memory card file.
func (p *Package) Build() ([]byte, error) {
	if len(p.DescShort) > DescShortLen {
		return nil, fmt.Errorf("%w: short description %d > %d", ErrFieldTooLong, len(p.DescShort), DescShortLen)
	}
	if len(p.DescLong) > DescLongLen {
		return nil, fmt.Errorf("%w: long description %d > %d", ErrFieldTooLong, len(p.DescLong), DescLongLen)
	}
	if len(p.AppID) > AppIDLen {
		return nil, fmt.Errorf("%w: app ID %d > %d", ErrFieldTooLong, len(p.AppID), AppIDLen)
	}
	if len(p.IconData) != p.IconCount*IconSize {
		return nil, fmt.Errorf("%w: %d bytes for %d icons", ErrIconDataSize, len(p.IconData), p.IconCount)
	}
	ecSize, err := p.EyecatchType.dataSize()
	if err != nil {
		return nil, err
	}
	if len(p.EyecatchData) != ecSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrEyecatchSize, len(p.EyecatchData), ecSize)
	}

	out := make([]byte, HeaderSize+len(p.IconData)+ecSize+len(p.Data))

	// Descriptions are space-padded, the app ID zero-padded.
	for i := 0; i < DescShortLen; i++ {
		out[i] = ' '
	}
	for i := 0; i < DescLongLen; i++ {
		out[DescShortLen+i] = ' '
	}
	copy(out[0:], p.DescShort)
	copy(out[DescShortLen:], p.DescLong)
	copy(out[DescShortLen+DescLongLen:], p.AppID)

	binary.LittleEndian.PutUint16(out[64:], uint16(p.IconCount))
	binary.LittleEndian.PutUint16(out[66:], uint16(p.IconAnimSpeed))
	binary.LittleEndian.PutUint16(out[68:], uint16(p.EyecatchType))
	// out[70:72] is the CRC, filled in last.
	binary.LittleEndian.PutUint32(out[72:], uint32(len(p.Data)))
	// out[76:96] is reserved.
	for i, entry := range p.IconPalette {
		binary.LittleEndian.PutUint16(out[96+2*i:], entry)
	}

	copy(out[HeaderSize:], p.IconData)
	copy(out[HeaderSize+len(p.IconData):], p.EyecatchData)
	copy(out[HeaderSize+len(p.IconData)+ecSize:], p.Data)

	binary.LittleEndian.PutUint16(out[70:], crc16(out))
	return out, nil
}

// Parse decodes a package image, verifying its checksum. The returned
// package's slices alias sections of a private copy of data.
func Parse(data []byte) (*Package, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	// Work on a copy so the caller's buffer survives the CRC-field
	// zeroing intact.
	img := make([]byte, len(data))
	copy(img, data)

	p := &Package{
		IconCount:     int(binary.LittleEndian.Uint16(img[64:])),
		IconAnimSpeed: int(binary.LittleEndian.Uint16(img[66:])),
		EyecatchType:  EyecatchType(binary.LittleEndian.Uint16(img[68:])),
	}

	ecSize, err := p.EyecatchType.dataSize()
	if err != nil {
		return nil, err
	}
	iconSize := p.IconCount * IconSize
	dataLen := int(binary.LittleEndian.Uint32(img[72:]))
	total := HeaderSize + iconSize + ecSize + dataLen
	if len(img) < total {
		return nil, fmt.Errorf("%w: header claims %d bytes, have %d", ErrTruncated, total, len(img))
	}

	crcStored := binary.LittleEndian.Uint16(img[70:])
	binary.LittleEndian.PutUint16(img[70:], 0)
	if crc := crc16(img[:total]); crc != crcStored {
		return nil, fmt.Errorf("%w: expected %04x, got %04x", ErrCRCMismatch, crcStored, crc)
	}
	binary.LittleEndian.PutUint16(img[70:], crcStored)

	p.DescShort = trimPadding(img[0:DescShortLen], ' ')
	p.DescLong = trimPadding(img[DescShortLen:DescShortLen+DescLongLen], ' ')
	p.AppID = trimPadding(img[DescShortLen+DescLongLen:DescShortLen+DescLongLen+AppIDLen], 0)
	for i := range p.IconPalette {
		p.IconPalette[i] = binary.LittleEndian.Uint16(img[96+2*i:])
	}
	p.IconData = img[HeaderSize : HeaderSize+iconSize]
	p.EyecatchData = img[HeaderSize+iconSize : HeaderSize+iconSize+ecSize]
	p.Data = img[HeaderSize+iconSize+ecSize : total]
	return p, nil
}

// trimPadding strips trailing padding bytes from a fixed field.
func trimPadding(field []byte, pad byte) string {
	end := len(field)
	for end > 0 && field[end-1] == pad {
		end--
	}
	return string(field[:end])
}

package junocam

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	fitsCardSize   = 80
	fitsBlockCards = 36
)

// FitsHeader holds the keyword values of a FITS primary header.
type FitsHeader struct {
	Cards map[string]string
}

func (h *FitsHeader) Value(key string) string {
	return h.Cards[strings.ToUpper(key)]
}

func (h *FitsHeader) Float(key string) (float64, bool) {
	v, ok := h.Cards[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (h *FitsHeader) Int(key string) (int, bool) {
	v, ok := h.Cards[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (h *FitsHeader) Instrument() string { return h.Value("INSTRUME") }
func (h *FitsHeader) Filter() string     { return h.Value("FILTER") }
func (h *FitsHeader) DateObs() string    { return h.Value("DATE-OBS") }

// FitsImageData is the first image plane of a FITS file, clamped to
// unsigned samples.
type FitsImageData struct {
	Pixels   []uint16
	Width    int
	Height   int
	BitDepth int
	Header   *FitsHeader
}

// Mat wraps the pixels in a single-channel Mat of the file's depth.
func (d *FitsImageData) Mat() (Mat, error) {
	depth := Depth16U
	if d.BitDepth == 8 {
		depth = Depth8U
	}
	return NewMatFromSamples(d.Height, d.Width, 1, depth, d.Pixels)
}

// ReadFits reads the primary header and first image plane of a FITS file.
func ReadFits(path string) (*FitsImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFits(f)
}

// ReadFitsFromBytes is ReadFits for in-memory data.
func ReadFitsFromBytes(data []byte) (*FitsImageData, error) {
	return readFits(bytes.NewReader(data))
}

func readFits(r io.Reader) (*FitsImageData, error) {
	var bitpix, naxis, width, height int
	bzero, bscale := 0.0, 1.0
	header := &FitsHeader{Cards: make(map[string]string)}

	card := make([]byte, fitsCardSize)
	for done := false; !done; {
		for i := 0; i < fitsBlockCards; i++ {
			if _, err := io.ReadFull(r, card); err != nil {
				return nil, fmt.Errorf("reading FITS header: %w", err)
			}
			keyword := strings.TrimSpace(string(card[:8]))
			if keyword == "END" {
				// Skip the rest of the block to reach the data unit.
				rest := int64((fitsBlockCards - 1 - i) * fitsCardSize)
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return nil, fmt.Errorf("skipping FITS header padding: %w", err)
				}
				done = true
				break
			}
			if card[8] != '=' || card[9] != ' ' {
				continue
			}

			raw := strings.TrimSpace(strings.SplitN(string(card[10:]), "/", 2)[0])
			if v := fitsValue(raw); keyword != "" && v != "" {
				header.Cards[strings.ToUpper(keyword)] = v
			}
			switch keyword {
			case "BITPIX":
				bitpix, _ = strconv.Atoi(raw)
			case "NAXIS":
				naxis, _ = strconv.Atoi(raw)
			case "NAXIS1":
				width, _ = strconv.Atoi(raw)
			case "NAXIS2":
				height, _ = strconv.Atoi(raw)
			case "BZERO":
				bzero, _ = strconv.ParseFloat(raw, 64)
			case "BSCALE":
				bscale, _ = strconv.ParseFloat(raw, 64)
			}
		}
	}

	if naxis < 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", naxis, width, height)
	}

	n := width * height
	var bytesPer int
	var sample func(b []byte) float64
	switch bitpix {
	case 8:
		bytesPer = 1
		sample = func(b []byte) float64 { return float64(b[0]) }
	case 16:
		bytesPer = 2
		sample = func(b []byte) float64 { return float64(int16(binary.BigEndian.Uint16(b))) }
	case 32:
		bytesPer = 4
		sample = func(b []byte) float64 { return float64(int32(binary.BigEndian.Uint32(b))) }
	case -32:
		bytesPer = 4
		sample = func(b []byte) float64 { return float64(math.Float32frombits(binary.BigEndian.Uint32(b))) }
	default:
		return nil, fmt.Errorf("unsupported BITPIX: %d", bitpix)
	}

	buf := make([]byte, n*bytesPer)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading BITPIX %d pixel data: %w", bitpix, err)
	}

	top := 65535.0
	depth := 16
	if bitpix == 8 {
		top = 255
		depth = 8
	}
	pixels := make([]uint16, n)
	for i := range pixels {
		physical := sample(buf[i*bytesPer:])*bscale + bzero
		pixels[i] = uint16(math.Max(0, math.Min(top, physical)))
	}

	return &FitsImageData{
		Pixels:   pixels,
		Width:    width,
		Height:   height,
		BitDepth: depth,
		Header:   header,
	}, nil
}

func fitsValue(raw string) string {
	switch {
	case raw == "":
		return ""
	case raw == "T":
		return "True"
	case raw == "F":
		return "False"
	case strings.HasPrefix(raw, "'"):
		if end := strings.LastIndex(raw, "'"); end > 0 {
			return strings.TrimRight(raw[1:end], " ")
		}
		return strings.Trim(raw, "' ")
	}
	return raw
}

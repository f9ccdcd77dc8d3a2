package junocam

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// JunoCam product names look like JNCE_2022056_40C00036_V01-raw.png.
var productPattern = regexp.MustCompile(`^JNCE_(\d{4})(\d{3})_([0-9A-Fa-f]+)_V(\d+)(?:-([A-Za-z]+))?(?:\.[A-Za-z0-9]+)?$`)

// Product is the metadata encoded in a JunoCam product file name.
type Product struct {
	Year      int
	DayOfYear int
	Date      time.Time
	ImageID   string
	// SCLK is the spacecraft clock count the image ID encodes in hex.
	SCLK    uint64
	Version int
	Kind    string
}

// ClockString is the SPICE spacecraft clock string for the Juno spacecraft.
func (p Product) ClockString() string {
	return fmt.Sprintf("-61/%d", p.SCLK)
}

// ParseProduct extracts Product metadata from a file name or path.
func ParseProduct(name string) (Product, error) {
	base := filepath.Base(name)
	m := productPattern.FindStringSubmatch(base)
	if m == nil {
		return Product{}, fmt.Errorf("%q is not a JunoCam product name", base)
	}

	year, _ := strconv.Atoi(m[1])
	doy, _ := strconv.Atoi(m[2])
	daysInYear := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
	if doy < 1 || doy > daysInYear {
		return Product{}, fmt.Errorf("%q: day of year %d outside [1, %d]", base, doy, daysInYear)
	}

	sclk, err := strconv.ParseUint(m[3], 16, 64)
	if err != nil {
		return Product{}, fmt.Errorf("%q: image id: %w", base, err)
	}
	version, _ := strconv.Atoi(m[4])

	return Product{
		Year:      year,
		DayOfYear: doy,
		Date:      time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1),
		ImageID:   m[3],
		SCLK:      sclk,
		Version:   version,
		Kind:      m[5],
	}, nil
}

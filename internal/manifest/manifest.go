// Package manifest records what a demux run read and wrote.
package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"junocam/pkg/junocam"
)

// Manifest is serialized next to the mosaics.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Input     string    `yaml:"input"`
	Raw       Raw       `yaml:"raw"`
	Geometry  Geometry  `yaml:"geometry"`
	Product   *Product  `yaml:"product,omitempty"`
	Mosaics   []Mosaic  `yaml:"mosaics"`
	Composite *Output   `yaml:"composite,omitempty"`
	FrameMap  string    `yaml:"frame_map,omitempty"`
}

type Raw struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Depth    string `yaml:"depth"`
	Channels int    `yaml:"channels"`
}

type Geometry struct {
	BandHeight   int `yaml:"band_height"`
	Bands        int `yaml:"bands"`
	Frames       int `yaml:"frames"`
	FirstFrame   int `yaml:"first_frame"`
	LastFrame    int `yaml:"last_frame"`
	MosaicHeight int `yaml:"mosaic_height"`
}

type Product struct {
	ImageID   string `yaml:"image_id"`
	Date      string `yaml:"date"`
	DayOfYear int    `yaml:"day_of_year"`
	SCLK      string `yaml:"sclk"`
	Version   int    `yaml:"version"`
}

type Mosaic struct {
	Channel string  `yaml:"channel"`
	Path    string  `yaml:"path"`
	Rows    [2]int  `yaml:"written_rows,flow"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

type Output struct {
	Path  string `yaml:"path"`
	Order string `yaml:"plane_order"`
}

// New starts a manifest for one raw image and its validated layout.
func New(input string, raw junocam.Mat, layout junocam.Layout) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Input:     input,
		Raw: Raw{
			Width:    raw.Cols(),
			Height:   raw.Rows(),
			Depth:    raw.Depth().String(),
			Channels: raw.Channels(),
		},
		Geometry: Geometry{
			BandHeight:   layout.Params.BandHeight,
			Bands:        layout.Params.Bands,
			Frames:       layout.Frames,
			FirstFrame:   layout.FirstFrame(),
			LastFrame:    layout.LastFrame(),
			MosaicHeight: layout.MosaicHeight(),
		},
	}
}

// SetProduct records metadata parsed from the input name.
func (m *Manifest) SetProduct(p junocam.Product) {
	m.Product = &Product{
		ImageID:   p.ImageID,
		Date:      p.Date.Format(time.DateOnly),
		DayOfYear: p.DayOfYear,
		SCLK:      p.ClockString(),
		Version:   p.Version,
	}
}

// AddMosaic records a written channel mosaic.
func (m *Manifest) AddMosaic(c junocam.Channel, path string, written junocam.RowRange, mat junocam.Mat) {
	lo, hi := junocam.Stats(mat)
	m.Mosaics = append(m.Mosaics, Mosaic{
		Channel: c.String(),
		Path:    path,
		Rows:    [2]int{written.Start, written.End},
		Min:     lo,
		Max:     hi,
	})
}

// SetComposite records the written composite and its plane order.
func (m *Manifest) SetComposite(path string, order [3]junocam.Channel) {
	m.Composite = &Output{
		Path:  path,
		Order: fmt.Sprintf("%s,%s,%s", order[0], order[1], order[2]),
	}
}

// Write serializes the manifest as YAML.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

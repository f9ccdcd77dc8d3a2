package main

import (
	"fmt"
	"log/slog"
	"os"

	"junocam/internal/config"
	"junocam/internal/manifest"
	"junocam/pkg/junocam"
)

// process runs one demux from cfg.Input into cfg.OutputDir. Nothing is
// written until the raw image has loaded and its geometry checks out.
func process(cfg *config.Config, logger *slog.Logger) (*manifest.Manifest, error) {
	raw, err := junocam.ReadRaw(cfg.Input)
	if err != nil {
		logger.Error("Could not open raw image", "path", cfg.Input, "err", err)
		return nil, err
	}
	defer raw.Close()
	logger.Info("Raw loaded", "width", raw.Cols(), "height", raw.Rows(),
		"depth", raw.Depth(), "channels", raw.Channels())

	mosaics, err := junocam.Demux(raw, cfg.DemuxParams())
	if err != nil {
		return nil, fmt.Errorf("demuxing %s: %w", cfg.Input, err)
	}
	defer mosaics.Close()

	layout := mosaics.Layout
	logger.Info("Frames counted", "frames", layout.Frames,
		"first", layout.FirstFrame(), "last", layout.LastFrame(),
		"mosaic_height", layout.MosaicHeight())

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	run := manifest.New(cfg.Input, raw, layout)
	if product, err := junocam.ParseProduct(cfg.Input); err != nil {
		logger.Debug("No product metadata in input name", "err", err)
	} else {
		run.SetProduct(product)
		logger.Info("Product", "image_id", product.ImageID,
			"date", product.Date.Format("2006-01-02"), "sclk", product.ClockString())
	}

	outputs := map[junocam.Channel]string{
		junocam.Red:   cfg.OutputPath(cfg.Outputs.Red),
		junocam.Green: cfg.OutputPath(cfg.Outputs.Green),
		junocam.Blue:  cfg.OutputPath(cfg.Outputs.Blue),
	}
	for _, c := range []junocam.Channel{junocam.Red, junocam.Green, junocam.Blue} {
		mosaic := mosaics.Channel(c)
		if err := junocam.WriteMat(outputs[c], mosaic); err != nil {
			return nil, err
		}
		run.AddMosaic(c, outputs[c], layout.Written(c), mosaic)
		logger.Debug("Mosaic written", "channel", c, "path", outputs[c])
	}
	logger.Info("Single-channel mosaics written")

	composite, err := junocam.Composite(mosaics)
	if err != nil {
		return nil, err
	}
	defer composite.Close()

	compositePath := cfg.OutputPath(cfg.Outputs.Composite)
	if err := junocam.WriteMat(compositePath, composite); err != nil {
		return nil, err
	}
	run.SetComposite(compositePath, junocam.CompositeOrder())
	logger.Info("Combined RGB image written", "path", compositePath)

	if path := cfg.OutputPath(cfg.Outputs.FrameMap); path != "" {
		if err := junocam.RenderFrameMap(layout, path); err != nil {
			return nil, fmt.Errorf("rendering frame map: %w", err)
		}
		run.FrameMap = path
		logger.Info("Frame map written", "path", path)
	}

	if path := cfg.OutputPath(cfg.Outputs.Manifest); path != "" {
		if err := run.Write(path); err != nil {
			return nil, err
		}
		logger.Debug("Manifest written", "path", path, "run_id", run.RunID)
	}

	return run, nil
}

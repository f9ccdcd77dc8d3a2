package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"junocam/internal/config"
	"junocam/pkg/junocam"
)

const (
	exitLoadFailure = 1
	exitGeometry    = 2
	exitOther       = 3
)

var rootCmd = &cobra.Command{
	Use:           "junocam",
	Short:         "Split a JunoCam pushframe raw image into channel mosaics and a color composite",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDemux,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.Flags().StringP("input", "i", "", "Raw image (overrides config)")
	rootCmd.Flags().StringP("output-dir", "o", "", "Output directory (overrides config)")
	rootCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.Flags().String("frame-map", "", "Also write a band placement diagram with this .jpg name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, junocam.ErrImageLoad):
		return exitLoadFailure
	case errors.Is(err, junocam.ErrGeometryMismatch):
		return exitGeometry
	default:
		return exitOther
	}
}

func runDemux(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if wd, err := os.Getwd(); err == nil {
		logger.Info("Working directory", "path", wd)
	}

	_, err = process(cfg, logger)
	return err
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("input") {
		cfg.Input, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("frame-map") {
		cfg.Outputs.FrameMap, _ = cmd.Flags().GetString("frame-map")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Package main turns the frames of a video into controller input masks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
	"go.viam.com/framemask/rimage/videosource"
	"go.viam.com/framemask/vision/regions"
)

const (
	flagOffset  = "offset"
	flagLimit   = "limit"
	flagConfig  = "config"
	flagSchema  = "config-schema"
	flagOutput  = "output"
	flagFormat  = "format"
	flagBackend = "backend"
	flagWorkers = "workers"
	flagQueue   = "queue"
	flagOverlay = "overlay"
	flagPlot    = "plot"
	flagHist    = "histogram"
	flagLogFile = "log-file"
	flagLogSize = "log-file-size"
	flagDebug   = "debug"
)

type options struct {
	source     string
	offset     int
	limit      int
	configPath string
	output     string
	format     string
	backend    string
	workers    int
	queue      int
	overlay    bool
	plotPath   string
}

func main() {
	logger := logging.NewLogger("detectinputs")
	var fileAppender *logging.FileAppender

	app := &cli.App{
		Name:      "detectinputs",
		Usage:     "classify the pixels of a video into controller input masks",
		ArgsUsage: "VIDEO",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: flagOffset, Usage: "number of leading frames to skip"},
			&cli.IntFlag{Name: flagLimit, Value: videosource.Unbounded, Usage: "most frames to read, -1 for all"},
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load classifier configuration from `FILE`",
			},
			&cli.BoolFlag{Name: flagSchema, Usage: "print the JSON schema of the configuration file and exit"},
			&cli.StringFlag{Name: flagOutput, Value: "ctrlr_inputs", Usage: "directory masks are written to"},
			&cli.StringFlag{Name: flagFormat, Value: "png", Usage: "mask file format: png, ppm or qoi"},
			&cli.StringFlag{Name: flagBackend, Value: videosource.DefaultBackend, Usage: "video decoder backend"},
			&cli.IntFlag{Name: flagWorkers, Value: 1, Usage: "number of classifying workers"},
			&cli.IntFlag{Name: flagQueue, Value: 2, Usage: "decoded frames waiting for a worker"},
			&cli.BoolFlag{Name: flagOverlay, Usage: "also write each frame with its mask and regions drawn on it"},
			&cli.StringFlag{Name: flagPlot, Usage: "save a coverage plot to `FILE`"},
			&cli.BoolFlag{Name: flagHist, Usage: "print a histogram of mask coverage after the summary"},
			&cli.StringFlag{Name: flagLogFile, Usage: "also log to `FILE`"},
			&cli.StringFlag{Name: flagLogSize, Value: "10MiB", Usage: "rotate the log file once it reaches `SIZE`"},
			&cli.BoolFlag{Name: flagDebug, Aliases: []string{"vvv"}, Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			if path := c.String(flagLogFile); path != "" {
				var err error
				fileAppender, err = openLogFile(logger, path, c.String(flagLogSize))
				if err != nil {
					return err
				}
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.Bool(flagSchema) {
				out, err := json.MarshalIndent(regions.ConfigSchema(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, string(out))
				return nil
			}
			if c.NArg() != 1 {
				return errors.New("expected exactly one video source argument")
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := run(ctx, options{
				source:     c.Args().First(),
				offset:     c.Int(flagOffset),
				limit:      c.Int(flagLimit),
				configPath: c.String(flagConfig),
				output:     c.String(flagOutput),
				format:     c.String(flagFormat),
				backend:    c.String(flagBackend),
				workers:    c.Int(flagWorkers),
				queue:      c.Int(flagQueue),
				overlay:    c.Bool(flagOverlay),
				plotPath:   c.String(flagPlot),
			}, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, summary)
			if c.Bool(flagHist) {
				return regions.FprintCoverageHistogram(c.App.Writer, summary.Coverages, 10)
			}
			return nil
		},
	}

	err := app.Run(os.Args)
	if fileAppender != nil {
		err = multierr.Combine(err, fileAppender.Close())
	}
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// openLogFile adds a rotating file appender to logger. The caller closes it.
func openLogFile(logger logging.Logger, path, size string) (*logging.FileAppender, error) {
	sizeMB, err := logFileSizeMB(size)
	if err != nil {
		return nil, err
	}
	appender := logging.NewFileAppender(path, sizeMB, 3)
	logger.AddAppender(appender)
	return appender, nil
}

// logFileSizeMB parses a human readable size such as "512KiB" or "20MB" into the whole megabytes
// lumberjack rotates at, rounding up.
func logFileSizeMB(size string) (int, error) {
	bytes, err := units.RAMInBytes(size)
	if err != nil {
		return 0, errors.Wrap(err, "invalid log file size")
	}
	if bytes <= 0 {
		return 0, errors.Errorf("log file size must be positive, got %q", size)
	}
	const mb = 1 << 20
	return int((bytes + mb - 1) / mb), nil
}

func loadConfig(path string) (regions.Config, error) {
	if path == "" {
		return regions.DefaultConfig(), nil
	}
	return regions.ReadConfig(path)
}

// run classifies every selected frame of opts.source and writes one mask file per frame.
func run(ctx context.Context, opts options, logger logging.Logger) (summary regions.CoverageSummary, err error) {
	if !rimage.IsImageFile("mask." + opts.format) {
		return summary, errors.Errorf("unknown mask format %q", opts.format)
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return summary, err
	}
	classifier, err := regions.NewClassifier(cfg, logger.Sublogger("classifier"))
	if err != nil {
		return summary, err
	}
	if err := os.MkdirAll(opts.output, 0o750); err != nil {
		return summary, err
	}

	stream, err := videosource.Open(ctx, opts.source, logger.Sublogger("source"),
		videosource.WithOffset(opts.offset),
		videosource.WithLimit(opts.limit),
		videosource.WithBackend(opts.backend),
	)
	if err != nil {
		return summary, err
	}
	defer func() {
		err = multierr.Combine(err, stream.Close())
	}()

	var indexes []int
	var coverages []float64
	sink := func(index int, frame *rimage.Frame, mask *image.Gray) error {
		path := filepath.Join(opts.output, fmt.Sprintf("frame_%06d.%s", index, opts.format))
		if err := rimage.WriteImageToFile(path, mask); err != nil {
			return err
		}
		coverage := rimage.Coverage(mask)
		indexes = append(indexes, index)
		coverages = append(coverages, coverage)

		found := regions.FindRegions(mask, 1)
		if len(found) == 0 {
			logger.Debugw("no regions", "frame", index)
		} else {
			dominant := found[0]
			logger.Infow("dominant region", "frame", index, "area", dominant.Area,
				"x", dominant.Centroid.X, "y", dominant.Centroid.Y, "orientation", dominant.Orientation,
				"regions", len(found), "coverage", coverage)
		}
		if opts.overlay {
			overlayPath := filepath.Join(opts.output, fmt.Sprintf("overlay_%06d.png", index))
			return rimage.WriteImageToFile(overlayPath, regions.Overlay(frame, mask, found))
		}
		return nil
	}

	stats, err := regions.RunPipeline(ctx, stream, classifier,
		regions.PipelineConfig{Workers: opts.workers, QueueSize: opts.queue}, sink, logger.Sublogger("pipeline"))
	if err != nil {
		return summary, err
	}
	if stats.Skipped > 0 {
		logger.Warnw("some frames could not be classified", "skipped", stats.Skipped)
	}
	if len(coverages) == 0 {
		return summary, errors.Errorf("no frames selected from %q", opts.source)
	}

	summary, err = regions.SummarizeCoverage(coverages)
	if err != nil {
		return summary, err
	}
	if opts.plotPath != "" {
		if err := regions.PlotCoverage(indexes, coverages, opts.plotPath); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

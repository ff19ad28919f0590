package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-detect/internal/config"
	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
	"github.com/ironsheep/plate-detect/internal/server"
	"github.com/ironsheep/plate-detect/internal/workflow"
)

// errUsage is returned after a usage message has already been printed.
var errUsage = errors.New("usage")

type cmdEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command func(env *cmdEnv, args []string) error

var commands = map[string]command{
	"detect":   runDetect,
	"annotate": runAnnotate,
	"crop":     runCrop,
	"edges":    runEdges,
	"batch":    runBatch,
	"serve":    runServe,
}

// flagSet is a subcommand's flags plus the -config flag every subcommand
// shares.
type flagSet struct {
	*flag.FlagSet
	env        *cmdEnv
	configPath *string
}

func newFlagSet(env *cmdEnv, name, operands string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	f := &flagSet{
		FlagSet:    fs,
		env:        env,
		configPath: fs.String("config", "", "YAML configuration file"),
	}
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "Usage: plate-detect %s [options] %s\n\nOptions:\n", name, operands)
		fs.PrintDefaults()
	}
	return f
}

// parse parses args and checks the number of operands (maxArgs < 0 means
// no upper limit).
func (f *flagSet) parse(args []string, minArgs, maxArgs int) error {
	if err := f.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if n := f.NArg(); n < minArgs || (maxArgs >= 0 && n > maxArgs) {
		return f.usageError("wrong number of operands")
	}
	return nil
}

func (f *flagSet) usageError(msg string) error {
	fmt.Fprintf(f.env.stderr, "plate-detect %s: %s\n", f.Name(), msg)
	f.Usage()
	return errUsage
}

// setup loads the configuration and builds the logger.
func (f *flagSet) setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.NewLogger(f.env.stderr), nil
}

type detectOutput struct {
	Input  string            `json:"input"`
	Found  bool              `json:"found"`
	Count  int               `json:"count"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Plates []detection.Plate `json:"plates"`
}

func runDetect(env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "detect", "<image>")
	if err := fs.parse(args, 1, 1); err != nil {
		return err
	}
	cfg, log, err := fs.setup()
	if err != nil {
		return err
	}
	runner, err := workflow.NewRunner(cfg, log)
	if err != nil {
		return err
	}

	input := fs.Arg(0)
	res, err := runner.Detect(input)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(&detectOutput{
		Input:  input,
		Found:  res.Found(),
		Count:  res.Count(),
		Width:  res.Width,
		Height: res.Height,
		Plates: res.Plates,
	})
}

func runAnnotate(env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "annotate", "<image>")
	out := fs.String("out", "", "base directory for DETECTED_AND_CROPPED_FILES (default from config)")
	if err := fs.parse(args, 1, 1); err != nil {
		return err
	}
	cfg, log, err := fs.setup()
	if err != nil {
		return err
	}
	if *out != "" {
		cfg.Output.BaseDir = *out
	}
	runner, err := workflow.NewRunner(cfg, log)
	if err != nil {
		return err
	}

	ann, err := runner.AnnotateAndSave(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, ann.Output)
	return nil
}

func runCrop(env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "crop", "-o <output> <image>")
	sel := fs.String("select", "", "plate to crop: largest, first or last (default from config)")
	scale := fs.Float64("scale", 0, "scale factor for the crop (default from config)")
	out := fs.String("o", "", "output file; unknown extensions are saved as PNG")
	if err := fs.parse(args, 1, 1); err != nil {
		return err
	}
	if *out == "" {
		return fs.usageError("-o is required")
	}
	cfg, log, err := fs.setup()
	if err != nil {
		return err
	}
	if *sel != "" {
		cfg.Crop.Selection = *sel
	}
	if *scale != 0 {
		cfg.Crop.Scale = *scale
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	runner, err := workflow.NewRunner(cfg, log)
	if err != nil {
		return err
	}

	sess, err := runner.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := runner.Process(sess); err != nil {
		return err
	}
	cropped, err := runner.Crop(sess)
	if err != nil {
		return err
	}
	written, err := runner.SaveCrop(sess, cropped, *out)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, written)
	return nil
}

func runEdges(env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "edges", "-o <output> <image>")
	out := fs.String("o", "", "output file for the edge map")
	if err := fs.parse(args, 1, 1); err != nil {
		return err
	}
	if *out == "" {
		return fs.usageError("-o is required")
	}
	cfg, log, err := fs.setup()
	if err != nil {
		return err
	}

	input := fs.Arg(0)
	img, err := imaging.Decode(input)
	if err != nil {
		return err
	}
	p := cfg.Params()
	edges, err := imaging.EdgeMapOf(img, p.BlurKernel, p.CannyLow, p.CannyHigh)
	if err != nil {
		return err
	}
	written, err := imaging.Save(edges.Image(), *out, cfg.Output.JPEGQuality)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"input":       input,
		"edge_pixels": edges.Count(),
		"output":      written,
	}).Info("edge map saved")
	fmt.Fprintln(env.stdout, written)
	return nil
}

func runBatch(env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "batch", "<image>...")
	out := fs.String("out", "", "base directory for DETECTED_AND_CROPPED_FILES (default from config)")
	workers := fs.Int("workers", 0, "images processed concurrently (default: number of CPUs)")
	if err := fs.parse(args, 1, -1); err != nil {
		return err
	}
	cfg, log, err := fs.setup()
	if err != nil {
		return err
	}
	if *out != "" {
		cfg.Output.BaseDir = *out
	}
	runner, err := workflow.NewRunner(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := runner.AnnotateBatch(ctx, fs.Args(), *workers)
	for _, item := range items {
		if item.Annotated != nil {
			fmt.Fprintln(env.stdout, item.Annotated.Output)
		}
	}
	if err != nil {
		return errors.Wrap(err, "batch interrupted")
	}
	return batchError(items)
}

// batchError summarizes failed items. When every failure is a missing plate
// the summary wraps detection.ErrNoPlateDetected.
func batchError(items []workflow.BatchItem) error {
	failed, noPlate := 0, 0
	for _, item := range items {
		if item.Err == nil {
			continue
		}
		failed++
		if errors.Is(item.Err, detection.ErrNoPlateDetected) {
			noPlate++
		}
	}
	switch {
	case failed == 0:
		return nil
	case failed == noPlate:
		return errors.Wrapf(detection.ErrNoPlateDetected, "%d of %d images", failed, len(items))
	default:
		return errors.Errorf("%d of %d images failed", failed, len(items))
	}
}

func runServe(env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "serve", "")
	if err := fs.parse(args, 0, 0); err != nil {
		return err
	}
	cfg, log, err := fs.setup()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"version": Version, "commit": GitCommit}).Debug("plate-detect server starting")
	return srv.Serve(env.stdin, env.stdout)
}

// Command image-transform runs a single image operation from the command
// line using the same engine and configuration as the MCP server.
//
//	image-transform thumb photo.jpg --max-width 320 --max-height 240
//	image-transform cut photo.jpg --x 10 --y 10 --width 100 --height 50
//	image-transform zoom photo.jpg --width 128 --height 128 --cut 0
//	image-transform watermark photo.jpg logo.png --opacity 60 --anchor 3
//	image-transform info photo.jpg
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ironsheep/image-transform-mcp/internal/config"
	img "github.com/ironsheep/image-transform-mcp/internal/imaging"
	"github.com/ironsheep/image-transform-mcp/internal/logging"
	"github.com/ironsheep/image-transform-mcp/internal/storage"
	"github.com/ironsheep/image-transform-mcp/internal/transform"
)

const usage = `Usage: image-transform <command> [options] <path> [mark]

Commands:
  thumb      Scale to fit within --max-width x --max-height
  cut        Copy the rectangle --x, --y, --width, --height
  zoom       Crop to the --width x --height aspect ratio, then scale
  watermark  Blend a mark image onto the source
  info       Print image metadata as JSON

Run "image-transform <command> --help" for command options.
`

// errUsage is returned for a missing or unknown command.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, storage.NewOSStorage())
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "image-transform: %v\n", err)
		os.Exit(1)
	}
}

// execFunc runs an operation once flags are parsed.
type execFunc func(ctx context.Context, e *transform.Engine, args []string, out outputFlags) (interface{}, error)

// command registers its flags in bind and returns the operation to run.
type command struct {
	args  int
	bind  func(fs *pflag.FlagSet) execFunc
	usage string
}

type outputFlags struct {
	prefix  string
	destDir string
}

var commands = map[string]command{
	"thumb": {
		args:  1,
		usage: "thumb <path>",
		bind: func(fs *pflag.FlagSet) execFunc {
			w := fs.Int("max-width", transform.DefaultThumbWidth, "maximum width")
			h := fs.Int("max-height", transform.DefaultThumbHeight, "maximum height")
			return func(ctx context.Context, e *transform.Engine, args []string, out outputFlags) (interface{}, error) {
				return e.Thumbnail(ctx, transform.ThumbnailRequest{
					Source: args[0], MaxWidth: *w, MaxHeight: *h,
					Prefix: out.prefix, DestDir: out.destDir,
				})
			}
		},
	},
	"cut": {
		args:  1,
		usage: "cut <path>",
		bind: func(fs *pflag.FlagSet) execFunc {
			x := fs.Int("x", 0, "left edge")
			y := fs.Int("y", 0, "top edge")
			w := fs.Int("width", 0, "width")
			h := fs.Int("height", 0, "height")
			return func(ctx context.Context, e *transform.Engine, args []string, out outputFlags) (interface{}, error) {
				return e.Crop(ctx, transform.CropRequest{
					Source: args[0], X: *x, Y: *y, Width: *w, Height: *h,
					Prefix: out.prefix, DestDir: out.destDir,
				})
			}
		},
	},
	"zoom": {
		args:  1,
		usage: "zoom <path>",
		bind: func(fs *pflag.FlagSet) execFunc {
			w := fs.Int("width", transform.DefaultThumbWidth, "output width")
			h := fs.Int("height", transform.DefaultThumbHeight, "output height")
			cut := fs.Int("cut", int(transform.DefaultCut), "kept part: 0 leading, 1 center, 2 trailing")
			return func(ctx context.Context, e *transform.Engine, args []string, out outputFlags) (interface{}, error) {
				return e.ZoomCrop(ctx, transform.ZoomCropRequest{
					Source: args[0], Width: *w, Height: *h, Cut: img.CutType(*cut),
					Prefix: out.prefix, DestDir: out.destDir,
				})
			}
		},
	},
	"watermark": {
		args:  2,
		usage: "watermark <path> <mark>",
		bind: func(fs *pflag.FlagSet) execFunc {
			opacity := fs.Int("opacity", transform.DefaultOpacity, "mark opacity, 0-100")
			anchor := fs.Int("anchor", img.DefaultAnchor, "position 1-9, row by row from top-left")
			wr := fs.Float64("width-ratio", img.DefaultMarkWidthRatio, "maximum mark width relative to the source")
			hr := fs.Float64("height-ratio", img.DefaultMarkHeightRatio, "maximum mark height relative to the source")
			return func(ctx context.Context, e *transform.Engine, args []string, out outputFlags) (interface{}, error) {
				return e.Watermark(ctx, transform.WatermarkRequest{
					Source: args[0], Mark: args[1], Opacity: *opacity, Anchor: *anchor,
					WidthRatio: *wr, HeightRatio: *hr,
					Prefix: out.prefix, DestDir: out.destDir,
				})
			}
		},
	},
	"info": {
		args:  1,
		usage: "info <path>",
		bind: func(_ *pflag.FlagSet) execFunc {
			return func(ctx context.Context, e *transform.Engine, args []string, _ outputFlags) (interface{}, error) {
				return e.Inspect(ctx, args[0])
			}
		},
	},
}

// run executes one command against store and prints its result to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, store storage.Storage) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: image-transform %s [options]\n\n", cmd.usage)
		fs.PrintDefaults()
	}
	configFile := fs.String("config", "", "path to a YAML config file")
	var out outputFlags
	fs.StringVar(&out.prefix, "prefix", "", "output filename prefix")
	fs.StringVar(&out.destDir, "dest-dir", "", "output directory, defaults to the source directory")
	config.RegisterFlags(fs)
	exec := cmd.bind(fs)

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NArg() != cmd.args {
		fs.Usage()
		return fmt.Errorf("%s: expected %d argument(s), got %d", args[0], cmd.args, fs.NArg())
	}

	cfg, err := config.Load(*configFile, fs)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine, err := cfg.NewEngine(store, logger)
	if err != nil {
		return err
	}

	result, err := exec(ctx, engine, fs.Args(), out)
	if err != nil {
		logger.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		return err
	}

	if r, ok := result.(*transform.Result); ok {
		_, err = fmt.Fprintf(stdout, "%s %dx%d\n", r.Path, r.Width, r.Height)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

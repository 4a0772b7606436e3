package config

import (
	"go.uber.org/zap"

	"github.com/ironsheep/image-transform-mcp/internal/imaging"
	"github.com/ironsheep/image-transform-mcp/internal/storage"
	"github.com/ironsheep/image-transform-mcp/internal/transform"
)

// NewEngine builds a transformation engine over store from the configuration.
func (c *Config) NewEngine(store storage.Storage, logger *zap.Logger) (*transform.Engine, error) {
	format, err := imaging.ParseOutputFormat(c.Output.Format)
	if err != nil {
		return nil, err
	}
	bg, err := imaging.ParseBackground(c.Output.Background)
	if err != nil {
		return nil, err
	}
	filter, err := imaging.ParseFilter(c.Resample.Filter)
	if err != nil {
		return nil, err
	}

	srcOpts := []imaging.SourceOption{
		imaging.WithBaseDir(c.BaseDir),
		imaging.WithAutoOrient(c.Decode.AutoOrient),
	}
	if c.Cache.Marks {
		srcOpts = append(srcOpts, imaging.WithMarkCache(imaging.NewHandleCache()))
	}

	source := imaging.NewSource(store, srcOpts...)
	writer := imaging.NewWriter(store,
		imaging.WithOutputFormat(format, c.Output.Quality),
		imaging.WithBackground(bg),
		imaging.WithCreateDirs(c.Output.CreateDirs),
	)

	logger.Debug("engine configured",
		zap.String("base_dir", c.BaseDir),
		zap.String("output_format", string(format)),
		zap.Int("quality", c.Output.Quality),
		zap.String("background", imaging.HexColor(bg)),
		zap.String("filter", c.Resample.Filter),
		zap.Bool("mark_cache", c.Cache.Marks))

	return transform.New(source, writer,
		transform.WithLogger(logger),
		transform.WithFilter(filter),
	), nil
}

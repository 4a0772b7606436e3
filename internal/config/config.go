// Package config loads runtime settings from defaults, an optional YAML file,
// an optional .env file, IMAGE_MCP_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/image-transform-mcp/internal/imaging"
)

// EnvPrefix is prepended to every environment variable, so log.level is read
// from IMAGE_MCP_LOG_LEVEL.
const EnvPrefix = "IMAGE_MCP"

type Config struct {
	BaseDir  string         `mapstructure:"base_dir"`
	Output   OutputConfig   `mapstructure:"output"`
	Resample ResampleConfig `mapstructure:"resample"`
	Decode   DecodeConfig   `mapstructure:"decode"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

type OutputConfig struct {
	Format     string `mapstructure:"format"`
	Quality    int    `mapstructure:"quality"`
	Background string `mapstructure:"background"`
	CreateDirs bool   `mapstructure:"create_dirs"`
}

type ResampleConfig struct {
	Filter string `mapstructure:"filter"`
}

type DecodeConfig struct {
	AutoOrient bool `mapstructure:"auto_orient"`
}

type CacheConfig struct {
	Marks bool `mapstructure:"marks"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"base-dir":    "base_dir",
	"format":      "output.format",
	"quality":     "output.quality",
	"background":  "output.background",
	"create-dirs": "output.create_dirs",
	"filter":      "resample.filter",
	"auto-orient": "decode.auto_orient",
	"cache-marks": "cache.marks",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// RegisterFlags adds the flags named in flagKeys to fs. Their defaults are
// only shown in help output; Load ignores flags that were not set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("base-dir", "", "directory relative image paths are resolved against")
	fs.String("format", string(imaging.OutputJPEG), "output format: jpeg, png or bmp")
	fs.Int("quality", imaging.DefaultQuality, "JPEG quality, 1-100")
	fs.String("background", "#000000", "color transparency is flattened onto for jpeg and bmp")
	fs.Bool("create-dirs", false, "create a missing destination directory")
	fs.String("filter", imaging.FilterLinear, "resample filter: linear, box, catmullrom, lanczos or nearest")
	fs.Bool("auto-orient", false, "apply the EXIF orientation of JPEG sources")
	fs.Bool("cache-marks", true, "keep decoded watermark images in memory")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "console", "log format: console or json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", "")
	v.SetDefault("output.format", string(imaging.OutputJPEG))
	v.SetDefault("output.quality", imaging.DefaultQuality)
	v.SetDefault("output.background", "#000000")
	v.SetDefault("output.create_dirs", false)
	v.SetDefault("resample.filter", imaging.FilterLinear)
	v.SetDefault("decode.auto_orient", false)
	v.SetDefault("cache.marks", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration. configFile may name an explicit YAML file;
// when empty, image-mcp.yaml is looked up in the working directory,
// $HOME/.config/image-mcp and /etc/image-mcp, and a missing file is not an
// error. flags may be nil; only flags that were set override other sources.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("image-mcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "image-mcp"))
		}
		v.AddConfigPath("/etc/image-mcp")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects values the engine cannot use.
func (c *Config) Validate() error {
	if _, err := imaging.ParseOutputFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}
	if _, err := imaging.ParseBackground(c.Output.Background); err != nil {
		return fmt.Errorf("output.background: %w", err)
	}
	if _, err := imaging.ParseFilter(c.Resample.Filter); err != nil {
		return fmt.Errorf("resample.filter: %w", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json")
	}
	return nil
}

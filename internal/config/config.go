// Package config layers imgopt settings: built-in defaults, then an optional
// imgopt.yaml, then IMGOPT_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"imgopt/internal/processor"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	EngineNative = "native"
	EngineVips   = "vips"
)

// minAutoWorkers is the floor for the automatic worker count.
const minAutoWorkers = 4

type Config struct {
	Quality     int       `mapstructure:"quality"`
	WebP        bool      `mapstructure:"webp"`
	Dest        string    `mapstructure:"dest"`
	Workers     int       `mapstructure:"workers"`
	Engine      string    `mapstructure:"engine"`
	Compressor  string    `mapstructure:"compressor"`
	Ledger      string    `mapstructure:"ledger"`
	MetricsFile string    `mapstructure:"metrics_file"`
	Plain       bool      `mapstructure:"plain"`
	Log         LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func Default() *Config {
	return &Config{
		Quality:    processor.DefaultQuality,
		Workers:    1,
		Engine:     EngineNative,
		Compressor: processor.DefaultOxipng,
		Log:        LogConfig{Level: "warn"},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"quality":      "quality",
	"webp":         "webp",
	"dest":         "dest",
	"workers":      "workers",
	"engine":       "engine",
	"compressor":   "compressor",
	"ledger":       "ledger",
	"metrics-file": "metrics_file",
	"plain":        "plain",
	"log-level":    "log.level",
	"log-file":     "log.file",
}

// RegisterFlags adds the optimize flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.IntP("quality", "q", d.Quality, fmt.Sprintf("JPEG/WebP quality (%d-%d)", processor.MinQuality, processor.MaxQuality))
	fs.Bool("webp", d.WebP, "convert PNG sources to WebP")
	fs.StringP("dest", "d", d.Dest, "write outputs to this directory instead of next to each source")
	fs.IntP("workers", "w", d.Workers, "files processed in parallel (0 = auto)")
	fs.String("engine", d.Engine, "codec engine: native or vips")
	fs.String("compressor", d.Compressor, "oxipng binary used for PNG output")
	fs.String("ledger", d.Ledger, "bolt file remembering processed images across runs")
	fs.String("metrics-file", d.MetricsFile, "write Prometheus textfile metrics here after the run")
	fs.Bool("plain", d.Plain, "print plain log lines instead of the interactive view")
	fs.String("log-level", d.Log.Level, "diagnostic log level: debug, info, warn or error")
	fs.String("log-file", d.Log.File, "append JSON diagnostics to this file")
}

// Load resolves the configuration. An explicit file must exist; otherwise
// imgopt.yaml is looked up in the user config directory and the working
// directory. flags may be nil.
func Load(flags *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("quality", d.Quality)
	v.SetDefault("webp", d.WebP)
	v.SetDefault("dest", d.Dest)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("compressor", d.Compressor)
	v.SetDefault("ledger", d.Ledger)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("plain", d.Plain)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetEnvPrefix("IMGOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("imgopt")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	return cfg, nil
}

func searchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "imgopt"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "imgopt"))
	}
	return append(dirs, ".")
}

// Validate checks the engine name; quality and worker ranges are the
// processor's own rules, applied to the raw values before auto-sizing.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineNative, EngineVips:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalid, c.Engine)
	}
	raw := processor.Config{Quality: c.Quality, Workers: c.Workers}
	if err := raw.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// EffectiveWorkers resolves Workers, mapping 0 to the automatic count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return AutoWorkers()
}

// AutoWorkers is max(4, physical cores).
func AutoWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	return max(minAutoWorkers, n)
}

// Processor converts the settings that shape a run.
func (c *Config) Processor() processor.Config {
	return processor.Config{
		Quality:          c.Quality,
		ConvertPNGToWebP: c.WebP,
		DestDir:          c.Dest,
		Workers:          c.EffectiveWorkers(),
	}
}

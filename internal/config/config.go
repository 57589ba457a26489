// Package config loads hexctl settings from defaults, an optional config
// file, HEXKIT_* environment variables and command-line flags, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/joshuapare/hexkit/content"
	"github.com/joshuapare/hexkit/find"
	"github.com/joshuapare/hexkit/internal/logger"
	"github.com/joshuapare/hexkit/session"
	"github.com/joshuapare/hexkit/transfer"
)

// EnvPrefix is prepended to every environment override, e.g.
// HEXKIT_FIND_CHARSET.
const EnvPrefix = "HEXKIT"

// Config mirrors the config file layout.
type Config struct {
	Log struct {
		Enabled bool   `mapstructure:"enabled"`
		Dir     string `mapstructure:"dir"`
		Level   string `mapstructure:"level"`
	} `mapstructure:"log"`

	Buffer struct {
		Mmap          bool  `mapstructure:"mmap"`
		HistoryDepth  int   `mapstructure:"history_depth"`
		HistoryBytes  int64 `mapstructure:"history_bytes"`
		CoalesceLimit int64 `mapstructure:"coalesce_limit"`
		SaveChunk     int   `mapstructure:"save_chunk"`
		TypingMerge   bool  `mapstructure:"typing_merge"`
	} `mapstructure:"buffer"`

	Find struct {
		Window  int    `mapstructure:"window"`
		Charset string `mapstructure:"charset"`
	} `mapstructure:"find"`

	Transfer struct {
		Chunk     int    `mapstructure:"chunk"`
		TextLimit int    `mapstructure:"text_limit"`
		TextMode  string `mapstructure:"text_mode"`
		SpoolDir  string `mapstructure:"spool_dir"`
	} `mapstructure:"transfer"`

	Session struct {
		Workers   int  `mapstructure:"workers"`
		Overwrite bool `mapstructure:"overwrite"`
	} `mapstructure:"session"`
}

// New returns a viper instance with every key defaulted and environment
// overrides enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.enabled", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("buffer.mmap", true)
	v.SetDefault("buffer.history_depth", content.DefaultHistoryDepth)
	v.SetDefault("buffer.history_bytes", content.DefaultHistoryBytes)
	v.SetDefault("buffer.coalesce_limit", content.DefaultCoalesceLimit)
	v.SetDefault("buffer.save_chunk", content.DefaultSaveChunk)
	v.SetDefault("buffer.typing_merge", true)

	v.SetDefault("find.window", find.DefaultWindow)
	v.SetDefault("find.charset", find.DefaultCharset)

	v.SetDefault("transfer.chunk", transfer.DefaultChunk)
	v.SetDefault("transfer.text_limit", transfer.DefaultTextLimit)
	v.SetDefault("transfer.text_mode", "hex")
	v.SetDefault("transfer.spool_dir", "")

	v.SetDefault("session.workers", 4)
	v.SetDefault("session.overwrite", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file into v, or searches for hexkit.{yaml,toml,json} in the
// working directory and ~/.hexkit when file is empty. A missing searched
// file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hexkit")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".hexkit"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := cfg.textMode(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) textMode() (transfer.TextMode, error) {
	switch strings.ToLower(c.Transfer.TextMode) {
	case "", "hex":
		return transfer.TextHex, nil
	case "text", "charset":
		return transfer.TextCharset, nil
	}
	return 0, fmt.Errorf("transfer.text_mode: unknown mode %q", c.Transfer.TextMode)
}

// LoggerOptions converts the log section.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Enabled: c.Log.Enabled,
		LogDir:  c.Log.Dir,
		Level:   logger.ParseLevel(c.Log.Level),
	}
}

// ContentOptions converts the buffer section for files on fs.
func (c *Config) ContentOptions(fs afero.Fs) content.Options {
	return content.Options{
		FS:            fs,
		Mmap:          c.Buffer.Mmap,
		HistoryDepth:  c.Buffer.HistoryDepth,
		HistoryBytes:  c.Buffer.HistoryBytes,
		CoalesceLimit: c.Buffer.CoalesceLimit,
		SaveChunk:     c.Buffer.SaveChunk,
		NoTypingMerge: !c.Buffer.TypingMerge,
	}
}

// FindOptions converts the find section.
func (c *Config) FindOptions() find.Options {
	return find.Options{Window: c.Find.Window, Charset: c.Find.Charset}
}

// TransferOptions converts the transfer section; text rendering uses the
// find charset.
func (c *Config) TransferOptions(fs afero.Fs) transfer.Options {
	mode, _ := c.textMode()
	return transfer.Options{
		FS:        fs,
		Dir:       c.Transfer.SpoolDir,
		Chunk:     c.Transfer.Chunk,
		TextLimit: c.Transfer.TextLimit,
		Text:      mode,
		Charset:   c.Find.Charset,
	}
}

// SessionOptions assembles the options of a session over fs.
func (c *Config) SessionOptions(fs afero.Fs) session.Options {
	return session.Options{
		Content:   c.ContentOptions(fs),
		Find:      c.FindOptions(),
		Transfer:  c.TransferOptions(fs),
		Overwrite: c.Session.Overwrite,
		Workers:   c.Session.Workers,
	}
}

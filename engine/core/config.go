package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LogConfig struct {
	Level string `toml:"level"`
}

type ReaderConfig struct {
	// Delimiter separating lines in model files.
	Delimiter string `toml:"delimiter"`
	// ChunkSize is the largest single read issued against a model file.
	ChunkSize int `toml:"chunk_size"`
}

type ImportConfig struct {
	// StrictPositions rejects `v` lines carrying non-numeric tokens instead of skipping them.
	StrictPositions bool `toml:"strict_positions"`
}

type AssetsConfig struct {
	Dir     string   `toml:"dir"`
	Models  []string `toml:"models"`
	Watch   bool     `toml:"watch"`
	Workers int      `toml:"workers"`
}

type Config struct {
	Name   string       `toml:"name"`
	Log    LogConfig    `toml:"log"`
	Reader ReaderConfig `toml:"reader"`
	Import ImportConfig `toml:"import"`
	Assets AssetsConfig `toml:"assets"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "Anima Playground",
		Log:  LogConfig{Level: "info"},
		Reader: ReaderConfig{
			Delimiter: "\n",
			ChunkSize: 4096,
		},
		Assets: AssetsConfig{
			Dir:     "assets",
			Models:  []string{"case", "glass", "camera", "logo"},
			Workers: 2,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys missing from
// the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config %d:%d: %w", row, col, err)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Reader.Delimiter == "" {
		return fmt.Errorf("reader.delimiter: %w", ErrInvalidReaderOption)
	}
	if c.Reader.ChunkSize <= 0 {
		return fmt.Errorf("reader.chunk_size must be positive, got %d: %w", c.Reader.ChunkSize, ErrInvalidReaderOption)
	}
	if c.Assets.Dir == "" {
		return fmt.Errorf("assets.dir is required")
	}
	if c.Assets.Workers <= 0 {
		return fmt.Errorf("assets.workers must be positive, got %d", c.Assets.Workers)
	}
	return nil
}

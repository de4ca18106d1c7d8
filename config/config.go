// Package config loads the YAML configuration shared by catsnap tools: catalog
// cache settings, snapshot codec settings and logging.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/catsnap"
	"github.com/arloliu/catsnap/catalog"
	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/format"
)

// CacheConfig holds catalog cache node settings.
type CacheConfig struct {
	// Hostname of this node. Peers with the same host are ignored.
	Hostname string `yaml:"hostname"`
	// Peers lists catalog cache node URLs, possibly including this node.
	Peers                  []string      `yaml:"peers"`
	PeerConnectTimeout     time.Duration `yaml:"peer_connect_timeout"`
	PeerGetRequestTimeout  time.Duration `yaml:"peer_get_request_timeout"`
	PeerPutRequestTimeout  time.Duration `yaml:"peer_put_request_timeout"`
	PeerListRequestTimeout time.Duration `yaml:"peer_list_request_timeout"`
	// WarmupDelay delays the warm-up from peers so quorum writes arrive first.
	WarmupDelay time.Duration `yaml:"warmup_delay"`
	// GCInterval evicts entries not used since the previous run.
	GCInterval time.Duration `yaml:"gc_interval"`
	// OOMBackoff is the pause between two out-of-memory reactions.
	OOMBackoff        time.Duration `yaml:"oom_backoff"`
	SizeLimitBytes    int64         `yaml:"size_limit_bytes"`
	QuorumFanout      int           `yaml:"quorum_fanout"`
	GRPCServerTimeout time.Duration `yaml:"grpc_server_timeout"`
}

// CodecConfig holds snapshot encoding settings.
type CodecConfig struct {
	// HashSeed is 32 hex characters. Empty means a random seed per snapshot.
	HashSeed string `yaml:"hash_seed"`
	// Compression is one of none, zstd, s2 or lz4.
	Compression      string `yaml:"compression"`
	MaxSnapshotBytes int    `yaml:"max_snapshot_bytes"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Output string `yaml:"output"` // stdout, stderr, file or none
	File   string `yaml:"file"`   // used if output is "file"
}

// Config is the top-level configuration struct.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Codec   CodecConfig   `yaml:"codec"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			PeerConnectTimeout:     2 * time.Second,
			PeerGetRequestTimeout:  1 * time.Second,
			PeerPutRequestTimeout:  1 * time.Second,
			PeerListRequestTimeout: 20 * time.Second,
			WarmupDelay:            5 * time.Minute,
			GCInterval:             15 * time.Minute,
			OOMBackoff:             60 * time.Second,
			SizeLimitBytes:         1 << 30, // 1 GiB
			QuorumFanout:           10,
			GRPCServerTimeout:      20 * time.Second,
		},
		Codec: CodecConfig{
			Compression:      "none",
			MaxSnapshotBytes: catsnap.DefaultMaxPayloadSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "catsnap.log",
		},
	}
}

// Load reads configuration from an io.Reader. Values missing from the input
// keep their defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}

		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks the codec settings. Peers are checked by CacheConfig.PeerURLs
// since only cache nodes need them.
func (c *Config) Validate() error {
	if _, err := c.Codec.Seed(); err != nil {
		return err
	}
	if _, err := c.Codec.CompressionType(); err != nil {
		return err
	}
	if c.Codec.MaxSnapshotBytes <= 0 {
		return fmt.Errorf("codec.max_snapshot_bytes must be positive, got %d", c.Codec.MaxSnapshotBytes)
	}

	return nil
}

// PeerURLs returns the two other catalog cache nodes.
//
// Peers whose host equals Hostname are dropped first; exactly two must
// remain, otherwise ErrInvalidPeers is returned.
func (c CacheConfig) PeerURLs() ([2]*url.URL, error) {
	var others []*url.URL
	for _, raw := range c.Peers {
		u, err := url.Parse(raw)
		if err != nil {
			return [2]*url.URL{}, fmt.Errorf("invalid peer url %q: %w", raw, err)
		}
		if u.Hostname() == "" {
			return [2]*url.URL{}, fmt.Errorf("invalid peer url %q: missing host", raw)
		}
		if c.Hostname != "" && strings.EqualFold(u.Hostname(), c.Hostname) {
			continue
		}
		others = append(others, u)
	}

	if len(others) != 2 {
		return [2]*url.URL{}, fmt.Errorf("%w: got %d", errs.ErrInvalidPeers, len(others))
	}

	return [2]*url.URL{others[0], others[1]}, nil
}

// Seed parses HashSeed. It returns nil when no seed is configured.
func (c CodecConfig) Seed() (*encoding.HashSeed, error) {
	if c.HashSeed == "" {
		return nil, nil
	}

	seed, err := encoding.ParseHashSeed(c.HashSeed)
	if err != nil {
		return nil, err
	}

	return &seed, nil
}

// CompressionType parses Compression.
func (c CodecConfig) CompressionType() (format.CompressionType, error) {
	typ, ok := format.ParseCompressionType(c.Compression)
	if !ok {
		return 0, fmt.Errorf("unknown codec.compression %q", c.Compression)
	}

	return typ, nil
}

// EncoderOptions returns the catalog encoder options for this configuration.
func (c CodecConfig) EncoderOptions() ([]catalog.EncoderOption, error) {
	seed, err := c.Seed()
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, nil
	}

	return []catalog.EncoderOption{catalog.WithHashSeed(*seed)}, nil
}

// EnvelopeOptions returns the Seal and Open options for this configuration.
func (c CodecConfig) EnvelopeOptions() ([]catsnap.Option, error) {
	compression, err := c.CompressionType()
	if err != nil {
		return nil, err
	}

	return []catsnap.Option{
		catsnap.WithCompression(compression),
		catsnap.WithMaxPayloadSize(c.MaxSnapshotBytes),
	}, nil
}

// NewLogger builds a JSON slog logger from cfg. The returned closer is non-nil
// only when logging to a file.
func NewLogger(cfg LoggingConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var output io.Writer
	var closer io.Closer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		output = file
		closer = file
	case "none":
		output = io.Discard
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	logger := slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))

	return logger, closer, nil
}

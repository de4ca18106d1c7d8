package catalog

import (
	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/internal/options"
)

// EncoderConfig holds the settings shared by all entity encoders.
type EncoderConfig struct {
	seed    encoding.HashSeed
	seedSet bool
}

// EncoderOption configures an entity encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithHashSeed sets the SipHash seed of the snapshot's hash indexes.
//
// Without it every snapshot draws a fresh random seed. A fixed seed makes
// encoding deterministic, which tests and reproducible builds rely on.
func WithHashSeed(seed encoding.HashSeed) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.seed = seed
		c.seedSet = true
	})
}

func newEncoderConfig(opts ...EncoderOption) (*EncoderConfig, error) {
	c := &EncoderConfig{}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	if !c.seedSet {
		c.seed = encoding.NewRandomHashSeed()
	}

	return c, nil
}

package kmerhash

// HashOption is a functional option for configuring the sliding hashers.
type HashOption func(*hashConfig)

type hashConfig struct {
	family  HashFamily
	seed    uint32
	seedSet bool // false means the family default seed
	fn      HashFunc
}

func defaultHashConfig() *hashConfig {
	return &hashConfig{
		family: FamilyMurmur3,
	}
}

// WithFamily selects the hash primitive. Default is FamilyMurmur3.
func WithFamily(f HashFamily) HashOption {
	return func(c *hashConfig) {
		c.family = f
	}
}

// WithSeed sets the seed passed to the hash primitive.
// Without it the family default seed is used (see HashFamily.DefaultSeed).
func WithSeed(seed uint32) HashOption {
	return func(c *hashConfig) {
		c.seed = seed
		c.seedSet = true
	}
}

// WithHashFunc replaces the family primitive with fn.
// The seed still defaults to the configured family's default seed.
func WithHashFunc(fn HashFunc) HashOption {
	return func(c *hashConfig) {
		c.fn = fn
	}
}

func (c *hashConfig) effectiveSeed() uint32 {
	if c.seedSet {
		return c.seed
	}
	return c.family.DefaultSeed()
}

// SketchOption is a functional option for configuring sketches.
type SketchOption func(*sketchConfig)

const defaultSketchBufferSize = 300

type sketchConfig struct {
	mode       SketchMode
	family     HashFamily
	seed       uint32
	seedSet    bool
	canonical  bool
	counts     bool
	bufferSize int
}

func defaultSketchConfig() *sketchConfig {
	return &sketchConfig{
		mode:       MinHash,
		family:     FamilyMurmur3,
		bufferSize: defaultSketchBufferSize,
	}
}

// WithMode selects which extreme hashes a sketch retains. Default is MinHash.
func WithMode(m SketchMode) SketchOption {
	return func(c *sketchConfig) {
		c.mode = m
	}
}

// WithSketchFamily selects the hash primitive used by a sketch.
func WithSketchFamily(f HashFamily) SketchOption {
	return func(c *sketchConfig) {
		c.family = f
	}
}

// WithSketchSeed sets the seed used by a sketch.
func WithSketchSeed(seed uint32) SketchOption {
	return func(c *sketchConfig) {
		c.seed = seed
		c.seedSet = true
	}
}

// WithCanonical makes the sketch strand-independent: sequences are masked to
// ACGT/N, reverse-complemented, and hashed with SlidingCanonical.
func WithCanonical() SketchOption {
	return func(c *sketchConfig) {
		c.canonical = true
	}
}

// WithCounts records how many times each retained hash was seen.
func WithCounts() SketchOption {
	return func(c *sketchConfig) {
		c.counts = true
	}
}

// WithBufferSize sets the output array capacity used per sliding call.
// Values <= 0 keep the default (300).
func WithBufferSize(n int) SketchOption {
	return func(c *sketchConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

func (c *sketchConfig) effectiveSeed() uint32 {
	if c.seedSet {
		return c.seed
	}
	return c.family.DefaultSeed()
}

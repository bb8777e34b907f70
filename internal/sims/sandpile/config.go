package sandpile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BoundaryMode selects what happens to grains delivered to the border ring.
type BoundaryMode string

const (
	// BoundaryOpen discards every grain that reaches the border: the ring is
	// reset to zero after each sweep.
	BoundaryOpen BoundaryMode = "open"
	// BoundaryClosed keeps grains on the border. Border cells never topple,
	// so total mass is conserved. Statistics from the two modes are not
	// comparable.
	BoundaryClosed BoundaryMode = "closed"
)

// Valid reports whether m names a known boundary mode.
func (m BoundaryMode) Valid() bool {
	return m == BoundaryOpen || m == BoundaryClosed
}

// Placement strategy names.
const (
	PlacementUniform = "uniform_random"
	PlacementCenter  = "fixed_center"
	PlacementBand    = "border_band"
)

// Configuration errors.
var (
	ErrGridTooSmall      = errors.New("grid size must be at least 3")
	ErrNegativeThreshold = errors.New("threshold must be non-negative")
	ErrNegativeFill      = errors.New("fill value must be non-negative")
	ErrUnknownBoundary   = errors.New("unknown boundary mode")
	ErrUnknownPlacement  = errors.New("unknown placement strategy")
	ErrBadBandWidth      = errors.New("band width must be positive")
	ErrDimensionMismatch = errors.New("grid dimensions do not match configuration")
	ErrUnknownKey        = errors.New("unknown parameter")
)

// Config holds the immutable parameters of one sandpile experiment.
type Config struct {
	// Size is the side length N of the square grid, border ring included.
	Size int `yaml:"size"`
	// Threshold is the critical height K; cells above it topple.
	Threshold int `yaml:"threshold"`
	// Fill seeds every interior cell on Reset. Zero starts from an empty grid.
	Fill int `yaml:"fill"`

	Boundary BoundaryMode `yaml:"boundary"`

	// Placement names the grain placement strategy.
	Placement string `yaml:"placement"`
	// BandWidth is the depth of the edge band used by border_band.
	BandWidth int `yaml:"band_width"`

	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Size:      50,
		Threshold: 3,
		Fill:      7,
		Boundary:  BoundaryOpen,
		Placement: PlacementUniform,
		BandWidth: 10,
		Seed:      42,
	}
}

// Validate reports the first configuration error found in c.
func (c Config) Validate() error {
	if c.Size < 3 {
		return fmt.Errorf("%w: got %d", ErrGridTooSmall, c.Size)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeThreshold, c.Threshold)
	}
	if c.Fill < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeFill, c.Fill)
	}
	if !c.Boundary.Valid() {
		return fmt.Errorf("%w: %q (valid: open, closed)", ErrUnknownBoundary, c.Boundary)
	}
	if _, ok := placements[c.Placement]; !ok {
		return fmt.Errorf("%w: %q (valid: %s)", ErrUnknownPlacement, c.Placement, strings.Join(PlacementNames(), ", "))
	}
	if c.BandWidth <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadBandWidth, c.BandWidth)
	}
	return nil
}

// FromMap builds a config from the defaults plus flag-style key/value pairs.
func FromMap(kv map[string]string) (Config, error) {
	return DefaultConfig().Apply(kv)
}

// Apply returns a copy of c with the key/value overrides applied. Unknown
// keys and unparseable values are errors; range checks are left to Validate.
func (c Config) Apply(kv map[string]string) (Config, error) {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := strings.TrimSpace(kv[key])
		switch key {
		case "n", "size":
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("parse %s: %w", key, err)
			}
			c.Size = parsed
		case "k", "threshold":
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("parse %s: %w", key, err)
			}
			c.Threshold = parsed
		case "v", "fill":
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("parse %s: %w", key, err)
			}
			c.Fill = parsed
		case "boundary":
			c.Boundary = BoundaryMode(strings.ToLower(v))
		case "placement":
			c.Placement = strings.ToLower(v)
		case "band_width":
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("parse %s: %w", key, err)
			}
			c.BandWidth = parsed
		case "seed":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return c, fmt.Errorf("parse %s: %w", key, err)
			}
			c.Seed = parsed
		default:
			return c, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
	}
	return c, nil
}

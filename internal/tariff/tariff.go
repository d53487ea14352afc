package tariff

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

var maxFare = decimal.NewFromInt(math.MaxInt64)

// Band prices the distance between the previous band's bound and UpTo.
// UpTo is zero on the last band, which is unbounded.
type Band struct {
	UpTo int64  `yaml:"up_to"`
	Rate string `yaml:"rate"`
}

type Config struct {
	Currency      string `yaml:"currency"`
	MinimumCharge int64  `yaml:"minimum_charge"`
	Bands         []Band `yaml:"bands"`
}

type band struct {
	upTo int64
	rate decimal.Decimal
}

// Tariff turns a rental distance into a fare in minor currency units.
type Tariff struct {
	currency string
	minimum  decimal.Decimal
	bands    []band
}

// DefaultConfig is used when no tariff file is configured.
func DefaultConfig() Config {
	return Config{
		Currency:      "EUR",
		MinimumCharge: 100,
		Bands: []Band{
			{UpTo: 5, Rate: "50"},
			{UpTo: 0, Rate: "30"},
		},
	}
}

func Default() *Tariff {
	t, err := New(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default tariff is invalid: %v", err))
	}
	return t
}

// New validates cfg. Rates must be non-negative and band bounds strictly
// increasing, which keeps Fare non-decreasing in distance.
func New(cfg Config) (*Tariff, error) {
	if cfg.MinimumCharge < 0 {
		return nil, fmt.Errorf("minimum charge cannot be negative, got %d", cfg.MinimumCharge)
	}
	if len(cfg.Bands) == 0 {
		return nil, fmt.Errorf("tariff needs at least one band")
	}

	bands := make([]band, len(cfg.Bands))
	var previous int64
	for i, b := range cfg.Bands {
		rate, err := decimal.NewFromString(b.Rate)
		if err != nil {
			return nil, fmt.Errorf("band at index %d has invalid rate %q: %w", i, b.Rate, err)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("band at index %d has negative rate %s", i, rate)
		}

		last := i == len(cfg.Bands)-1
		switch {
		case last && b.UpTo != 0:
			return nil, fmt.Errorf("last band must be unbounded (up_to: 0), got %d", b.UpTo)
		case !last && b.UpTo <= previous:
			return nil, fmt.Errorf("band at index %d must end above %d, got %d", i, previous, b.UpTo)
		}
		if !last {
			previous = b.UpTo
		}

		bands[i] = band{upTo: b.UpTo, rate: rate}
	}

	return &Tariff{
		currency: cfg.Currency,
		minimum:  decimal.NewFromInt(cfg.MinimumCharge),
		bands:    bands,
	}, nil
}

// Load reads a YAML tariff file. Relative paths resolve against the working directory.
func Load(tariffFile string) (*Tariff, error) {
	var tariffPath string
	if filepath.IsAbs(tariffFile) {
		tariffPath = tariffFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		tariffPath = filepath.Join(wd, tariffFile)
	}

	data, err := os.ReadFile(tariffPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", tariffFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", tariffFile, err)
	}

	t, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid tariff in %s: %w", tariffFile, err)
	}
	return t, nil
}

// LoadOrDefault loads tariffFile, or returns the built-in table when it is empty.
func LoadOrDefault(tariffFile string) (*Tariff, error) {
	if tariffFile == "" {
		return Default(), nil
	}
	return Load(tariffFile)
}

func (t *Tariff) Currency() string {
	return t.currency
}

func (t *Tariff) MinimumCharge() int64 {
	return t.minimum.IntPart()
}

// Fare prices a completed rental of the given distance, rounding up to the
// next minor unit. Any completed rental costs at least the minimum charge.
// A fare beyond the int64 range saturates at math.MaxInt64.
func (t *Tariff) Fare(distance int64) int64 {
	if distance < 0 {
		distance = 0
	}

	total := decimal.Zero
	var lower int64
	for _, b := range t.bands {
		if distance <= lower {
			break
		}
		upper := distance
		if b.upTo != 0 && b.upTo < distance {
			upper = b.upTo
		}
		total = total.Add(b.rate.Mul(decimal.NewFromInt(upper - lower)))
		lower = b.upTo
		if b.upTo == 0 {
			break
		}
	}

	fare := decimal.Max(t.minimum, total.Ceil())
	if fare.GreaterThan(maxFare) {
		return math.MaxInt64
	}
	return fare.IntPart()
}

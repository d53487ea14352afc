package tariff

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFare(t *testing.T) {
	tariff := Default()

	tests := []struct {
		distance int64
		want     int64
	}{
		{0, 100},
		{1, 100},
		{2, 100},
		{3, 150},
		{5, 250},
		{6, 280},
		{12, 460},
		{-4, 100},
	}

	for _, tt := range tests {
		if got := tariff.Fare(tt.distance); got != tt.want {
			t.Errorf("Fare(%d): expected %d, got %d", tt.distance, tt.want, got)
		}
	}
}

func TestFare_ZeroIsMinimumCharge(t *testing.T) {
	tariff, err := New(Config{MinimumCharge: 250, Bands: []Band{{UpTo: 0, Rate: "10"}}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := tariff.Fare(0); got != tariff.MinimumCharge() {
		t.Errorf("Expected fare(0) = %d, got %d", tariff.MinimumCharge(), got)
	}
}

func TestFare_Monotonic(t *testing.T) {
	tariffs := []Config{
		DefaultConfig(),
		{MinimumCharge: 0, Bands: []Band{{UpTo: 2, Rate: "0.4"}, {UpTo: 10, Rate: "0"}, {UpTo: 0, Rate: "12.5"}}},
		{MinimumCharge: 1000, Bands: []Band{{UpTo: 0, Rate: "1"}}},
	}

	for i, cfg := range tariffs {
		tariff, err := New(cfg)
		if err != nil {
			t.Fatalf("tariff %d: New failed: %v", i, err)
		}
		previous := tariff.Fare(0)
		for d := int64(1); d <= 200; d++ {
			fare := tariff.Fare(d)
			if fare < previous {
				t.Fatalf("tariff %d: fare(%d)=%d is below fare(%d)=%d", i, d, fare, d-1, previous)
			}
			previous = fare
		}
	}
}

func TestFare_SaturatesAtInt64Limit(t *testing.T) {
	tariff := Default()

	if got := tariff.Fare(1_000_000); got != 30_000_100 {
		t.Errorf("Expected fare 30000100, got %d", got)
	}

	huge := tariff.Fare(math.MaxInt64)
	if huge != math.MaxInt64 {
		t.Errorf("Expected fare to saturate at %d, got %d", int64(math.MaxInt64), huge)
	}
	large := tariff.Fare(math.MaxInt64 / 40)
	if large < tariff.MinimumCharge() || huge < large {
		t.Errorf("Expected fare(max)=%d >= fare(max/40)=%d >= minimum", huge, large)
	}
}

func TestFare_RoundsUp(t *testing.T) {
	tariff, err := New(Config{Bands: []Band{{UpTo: 0, Rate: "0.4"}}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// 3 * 0.4 = 1.2
	if got := tariff.Fare(3); got != 2 {
		t.Errorf("Expected fare 2, got %d", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no bands", Config{MinimumCharge: 100}},
		{"negative minimum", Config{MinimumCharge: -1, Bands: []Band{{Rate: "1"}}}},
		{"negative rate", Config{Bands: []Band{{Rate: "-1"}}}},
		{"bad rate", Config{Bands: []Band{{Rate: "abc"}}}},
		{"bounded last band", Config{Bands: []Band{{UpTo: 5, Rate: "1"}}}},
		{"decreasing bounds", Config{Bands: []Band{{UpTo: 5, Rate: "1"}, {UpTo: 3, Rate: "1"}, {Rate: "1"}}}},
		{"unbounded middle band", Config{Bands: []Band{{UpTo: 0, Rate: "1"}, {UpTo: 0, Rate: "1"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff.yaml")
	content := `
currency: CHF
minimum_charge: 200
bands:
  - up_to: 10
    rate: "25"
  - up_to: 0
    rate: "15"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write tariff file: %v", err)
	}

	tariff, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tariff.Currency() != "CHF" {
		t.Errorf("Expected currency CHF, got %s", tariff.Currency())
	}
	if got := tariff.Fare(12); got != 280 {
		t.Errorf("Expected fare 280, got %d", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("bands:\n  - up_to: 3\n    rate: \"1\"\n"), 0o600); err != nil {
		t.Fatalf("Failed to write tariff file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for bounded last band, got nil")
	}
}

func TestLoadOrDefault(t *testing.T) {
	tariff, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if tariff.MinimumCharge() != 100 {
		t.Errorf("Expected default minimum 100, got %d", tariff.MinimumCharge())
	}
}

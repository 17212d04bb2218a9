// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("ADMIN_KEY_SALT", "test-salt")
	os.Setenv("IP_HASH_SALT", "test-ip")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.ExperimentName != "button_label_kudos_vs_thanks" {
		t.Errorf("expected default experiment, got %q", cfg.ExperimentName)
	}
	if cfg.VariantA != "kudos" || cfg.VariantB != "thanks" {
		t.Errorf("expected default variants, got %q/%q", cfg.VariantA, cfg.VariantB)
	}
	if cfg.ExposurePolicy != PolicyOnView {
		t.Errorf("expected on-view default, got %q", cfg.ExposurePolicy)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-t", "sqlite", "-admin-salt", "s1", "-ip-salt", "s2"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DriverName() != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.DriverName())
	}
}

func TestParseFlags_Validation(t *testing.T) {
	defer os.Clearenv()
	os.Clearenv()

	tests := []struct {
		name string
		args []string
	}{
		{"missing database url", []string{"-admin-salt", "s1", "-ip-salt", "s2"}},
		{"missing admin salt", []string{"-d", "postgres://test", "-ip-salt", "s2"}},
		{"missing ip salt", []string{"-d", "postgres://test", "-admin-salt", "s1"}},
		{"bad database type", []string{"-d", "postgres://test", "-t", "oracle", "-admin-salt", "s1", "-ip-salt", "s2"}},
		{"bad exposure policy", []string{"-d", "postgres://test", "-admin-salt", "s1", "-ip-salt", "s2", "-exposure-policy", "sometimes"}},
		{"identical variants", []string{"-d", "postgres://test", "-admin-salt", "s1", "-ip-salt", "s2", "-variant-a", "same", "-variant-b", "same"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string
	IPHashSalt   string

	ExperimentName string
	VariantA       string
	VariantB       string
	// "on-view": eligible page views log exposure; "on-click": exposure is
	// only ever backfilled by the first conversion.
	ExposurePolicy string
	SessionCookie  string
}

const (
	PolicyOnView  = "on-view"
	PolicyOnClick = "on-click"
)

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("guidepost", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")

	// Experiment settings
	fs.StringVar(&cfg.ExperimentName, "experiment", "", "Experiment name")
	fs.StringVar(&cfg.VariantA, "variant-a", "", "Control variant label")
	fs.StringVar(&cfg.VariantB, "variant-b", "", "Treatment variant label")
	fs.StringVar(&cfg.ExposurePolicy, "exposure-policy", "", "Exposure policy (on-view or on-click)")
	fs.StringVar(&cfg.SessionCookie, "session-cookie", "", "Session cookie name")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3419 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "postgres"
		}
	}
	if cfg.DatabaseType != "postgres" && cfg.DatabaseType != "sqlite" {
		return Config{}, errors.New("database type must be postgres or sqlite")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	// Experiment settings fall back to env, then defaults
	if cfg.ExperimentName == "" {
		cfg.ExperimentName = os.Getenv("EXPERIMENT_NAME")
		if cfg.ExperimentName == "" {
			cfg.ExperimentName = "button_label_kudos_vs_thanks"
		}
	}
	if cfg.VariantA == "" {
		cfg.VariantA = os.Getenv("VARIANT_A")
		if cfg.VariantA == "" {
			cfg.VariantA = "kudos"
		}
	}
	if cfg.VariantB == "" {
		cfg.VariantB = os.Getenv("VARIANT_B")
		if cfg.VariantB == "" {
			cfg.VariantB = "thanks"
		}
	}
	if cfg.VariantA == cfg.VariantB {
		return Config{}, errors.New("variant labels must differ")
	}

	if cfg.ExposurePolicy == "" {
		cfg.ExposurePolicy = os.Getenv("EXPOSURE_POLICY")
		if cfg.ExposurePolicy == "" {
			cfg.ExposurePolicy = PolicyOnView
		}
	}
	if cfg.ExposurePolicy != PolicyOnView && cfg.ExposurePolicy != PolicyOnClick {
		return Config{}, errors.New("exposure policy must be on-view or on-click")
	}

	if cfg.SessionCookie == "" {
		cfg.SessionCookie = os.Getenv("SESSION_COOKIE")
		if cfg.SessionCookie == "" {
			cfg.SessionCookie = "gp_session"
		}
	}

	return cfg, nil
}

// DriverName maps the configured database type to its database/sql driver.
func (c Config) DriverName() string {
	if c.DatabaseType == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}

// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3419)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "postgres" (default) or "sqlite"
  - AdminKeySalt: Secret for admin key HMAC (required)
  - IPHashSalt: Secret for privacy-preserving IP hashing (required)
  - ExperimentName: Active experiment (default: button_label_kudos_vs_thanks)
  - VariantA / VariantB: Variant labels (defaults: kudos / thanks)
  - ExposurePolicy: "on-view" (default) or "on-click"
  - SessionCookie: Session cookie name (default: gp_session)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	--admin-salt     Admin key salt
	--ip-salt        IP hash salt
	--experiment     Experiment name
	--variant-a      Control variant label
	--variant-b      Treatment variant label
	--exposure-policy  on-view or on-click
	--session-cookie Session cookie name

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	ADMIN_KEY_SALT   → --admin-salt
	IP_HASH_SALT     → --ip-salt
	EXPERIMENT_NAME  → --experiment
	VARIANT_A        → --variant-a
	VARIANT_B        → --variant-b
	EXPOSURE_POLICY  → --exposure-policy
	SESSION_COOKIE   → --session-cookie

CLI flags take precedence over environment variables.

# Exposure Policy

The exposure policy decides when an exposure event is written. Under
"on-view", an eligible top-level navigation to the experiment page logs the
session's single exposure; under "on-click", the page view only assigns a
variant and the exposure is backfilled by the first conversion. Both
policies preserve the at-most-one-exposure invariant.
*/
package cliparse

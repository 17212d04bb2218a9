// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command abctl is the operator CLI for the experiment subsystem. It
// talks straight to the database, so it works even when the server is
// down, and mirrors the admin-tools HTTP endpoints plus the offline
// statistical report.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/farstorm/guidepost/abtest"
)

var (
	flagDatabaseURL  string
	flagDatabaseType string
	flagExperiment   string
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "abctl",
		Short:         "Operate the Guidepost A/B experiment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagDatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "database connection string (or DATABASE_URL)")
	root.PersistentFlags().StringVar(&flagDatabaseType, "database-type", envDefault("DATABASE_TYPE", "postgres"), "postgres or sqlite")
	root.PersistentFlags().StringVar(&flagExperiment, "experiment", envDefault("EXPERIMENT_NAME", "button_label_kudos_vs_thanks"), "experiment name")

	root.AddCommand(newReportCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newCheckSplitCmd())
	root.AddCommand(newPurgeBotsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "abctl:", err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openDB() (*sql.DB, error) {
	if flagDatabaseURL == "" {
		return nil, fmt.Errorf("database URL required (--database-url or DATABASE_URL)")
	}
	driver := "postgres"
	if flagDatabaseType == "sqlite" {
		driver = "sqlite"
	}
	conn, err := sql.Open(driver, flagDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return conn, nil
}

func newReportCmd() *cobra.Command {
	var excludeForced bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Per-variant exposure and conversion counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			log := &abtest.Log{DB: conn}
			counts, err := log.CountByVariantKind(cmd.Context(), flagExperiment, excludeForced)
			if err != nil {
				return err
			}

			split := abtest.CheckTrafficSplit(counts)

			fmt.Fprintf(cmd.OutOrStdout(), "Experiment: %s (%d events)\n\n", flagExperiment, counts.Total())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VARIANT\tEXPOSURES\tCONVERSIONS\tRATE\tSHARE")
			for _, share := range split.Shares {
				vc := counts[share.Variant]
				rate := 0.0
				if vc.Exposures > 0 {
					rate = float64(vc.Conversions) / float64(vc.Exposures)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%.1f%%\n",
					share.Variant, vc.Exposures, vc.Conversions, rate*100, share.Share*100)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&excludeForced, "exclude-forced", false, "exclude forced (QA) assignments")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		excludeForced   bool
		confidenceLevel float64
		control         string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Two-proportion z-test over the experiment's counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			log := &abtest.Log{DB: conn}
			counts, err := log.CountByVariantKind(cmd.Context(), flagExperiment, excludeForced)
			if err != nil {
				return err
			}

			report, err := abtest.Analyze(counts, abtest.Options{
				ConfidenceLevel: confidenceLevel,
				Control:         control,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Experiment: %s\n\n", flagExperiment)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VARIANT\tEXPOSURES\tCONVERSIONS\tRATE")
			for _, v := range []abtest.VariantStats{report.A, report.B} {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", v.Variant, v.Exposures, v.Conversions, v.Rate*100)
			}
			tw.Flush()

			fmt.Fprintf(out, "\nDifference (%s - %s): %+.2f pp (%+.1f%% relative)\n",
				report.B.Variant, report.A.Variant, report.Difference*100, report.RelativeChange*100)
			fmt.Fprintf(out, "z-score: %.4f\n", report.ZScore)
			fmt.Fprintf(out, "p-value: %.5f (two-tailed)\n", report.PValue)
			fmt.Fprintf(out, "%.0f%% CI for the difference: [%+.2f pp, %+.2f pp]\n",
				report.ConfidenceLevel*100, report.CILower*100, report.CIUpper*100)
			fmt.Fprintf(out, "Effect size (Cohen's h): %.4f\n", report.EffectSize)
			if report.Significant {
				fmt.Fprintf(out, "Result: significant at the %.0f%% confidence level\n", report.ConfidenceLevel*100)
			} else {
				fmt.Fprintf(out, "Result: not significant at the %.0f%% confidence level; keep collecting\n", report.ConfidenceLevel*100)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&excludeForced, "exclude-forced", false, "exclude forced (QA) assignments")
	cmd.Flags().Float64Var(&confidenceLevel, "confidence-level", 0.95, "confidence level for the interval")
	cmd.Flags().StringVar(&control, "control", "", "variant to treat as control (default: lexicographic)")
	return cmd
}

func newCheckSplitCmd() *cobra.Command {
	var excludeForced bool

	cmd := &cobra.Command{
		Use:   "check-split",
		Short: "Flag sample-ratio mismatch in the exposure split",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			log := &abtest.Log{DB: conn}
			counts, err := log.CountByVariantKind(cmd.Context(), flagExperiment, excludeForced)
			if err != nil {
				return err
			}

			split := abtest.CheckTrafficSplit(counts)

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VARIANT\tEXPOSURES\tSHARE\tSTATUS")
			for _, share := range split.Shares {
				status := "ok"
				if share.Flagged {
					status = "FLAGGED"
				}
				fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%s\n", share.Variant, share.Exposures, share.Share*100, status)
			}
			tw.Flush()

			if split.Balanced {
				fmt.Fprintln(out, "\nSplit looks balanced (all shares within [40%, 60%]).")
				return nil
			}
			fmt.Fprintln(out, "\nSample ratio mismatch: investigate before trusting any analysis.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&excludeForced, "exclude-forced", false, "exclude forced (QA) assignments")
	return cmd
}

func newPurgeBotsCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "purge-bots",
		Short: "Delete events from suspected bot sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			log := &abtest.Log{DB: conn}
			result, err := log.PurgeSuspectedBots(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "deleted"
			if dryRun {
				verb = "would delete"
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HEURISTIC\tEVENTS")
			fmt.Fprintf(tw, "probe session prefix\t%d\n", result.ProbePrefix)
			fmt.Fprintf(tw, "short session id\t%d\n", result.ShortSession)
			fmt.Fprintf(tw, "burst minutes\t%d\n", result.BurstMinutes)
			tw.Flush()
			fmt.Fprintf(out, "\nTotal %s: %d events\n", verb, result.Total())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count matches without deleting")
	return cmd
}

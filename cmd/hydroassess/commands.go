package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hydro-assess-service/internal/adapter/groundwater"
	"github.com/couchcryptid/hydro-assess-service/internal/assessor"
	"github.com/couchcryptid/hydro-assess-service/internal/config"
	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	"github.com/couchcryptid/hydro-assess-service/internal/observability"
)

// cliLogger keeps diagnostics on stderr so stdout carries only the report.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// stationDSN returns the --dsn flag, or GROUNDWATER_DSN when the flag is
// empty. The environment is read at run time so a .env file loaded by the
// root command is honored.
func stationDSN(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("GROUNDWATER_DSN")
}

type assessFlags struct {
	area      float64
	surface   string
	rainfall  float64
	household int
	city      string
	waterCost float64
	depth     float64
	lat       float64
	lon       float64
	ratesFile string
	dsn       string
	format    string
}

func assessCmd() *cobra.Command {
	var f assessFlags

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess one site and print the recommendation, design and cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := domain.SiteInput{
				AreaM2:           f.area,
				SurfaceType:      f.surface,
				AnnualRainfallMM: f.rainfall,
				HouseholdSize:    f.household,
				CityType:         f.city,
				WaterCostPerM3:   f.waterCost,
			}
			if cmd.Flags().Changed("depth") {
				in.PostMonsoonDepthM = &f.depth
			}
			if cmd.Flags().Changed("lat") {
				in.Latitude = &f.lat
			}
			if cmd.Flags().Changed("lon") {
				in.Longitude = &f.lon
			}
			return runAssess(cmd, in, f)
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.area, "area", 0, "catchment area in m²")
	fl.StringVar(&f.surface, "surface", string(domain.SurfaceConcreteRoof), "surface type")
	fl.Float64Var(&f.rainfall, "rainfall", 0, "annual rainfall in mm")
	fl.IntVar(&f.household, "household", 4, "number of residents")
	fl.StringVar(&f.city, "city", "tier2", "city type (tier1, tier2 or the full label)")
	fl.Float64Var(&f.waterCost, "water-cost", 0, "water cost per m³")
	fl.Float64Var(&f.depth, "depth", 0, "post-monsoon groundwater depth in m")
	fl.Float64Var(&f.lat, "lat", 0, "site latitude, used when --depth is not given")
	fl.Float64Var(&f.lon, "lon", 0, "site longitude, used when --depth is not given")
	fl.StringVar(&f.ratesFile, "rates", "", "YAML rate table overriding the defaults")
	fl.StringVar(&f.dsn, "dsn", "", "groundwater station database DSN (default $GROUNDWATER_DSN)")
	fl.StringVarP(&f.format, "format", "o", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("area")
	_ = cmd.MarkFlagRequired("rainfall")

	return cmd
}

func runAssess(cmd *cobra.Command, in domain.SiteInput, f assessFlags) error {
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q: want text or json", f.format)
	}

	rates, err := config.LoadRates(f.ratesFile)
	if err != nil {
		return err
	}

	logger := cliLogger()
	metrics := observability.NewUnregisteredMetrics()

	var provider domain.GroundwaterProvider
	if dsn := stationDSN(f.dsn); dsn != "" && in.PostMonsoonDepthM == nil {
		store, err := groundwater.Open(cmd.Context(), dsn, 0, metrics, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		provider = store
	}

	a, err := assessor.New(rates, provider, metrics, logger).Assess(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	writeReport(out, a)
	return nil
}

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates [FILE]",
		Short: "Validate a rate table and print the effective rates as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			rates, err := config.LoadRates(path)
			if err != nil {
				return err
			}
			return config.EncodeRates(cmd.OutOrStdout(), rates)
		},
	}
}

func stationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Manage the groundwater station table",
	}
	cmd.AddCommand(stationsImportCmd())
	return cmd
}

func stationsImportCmd() *cobra.Command {
	var dsnFlag, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create the station table if needed and bulk-load stations from CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := stationDSN(dsnFlag)
			if dsn == "" {
				return fmt.Errorf("--dsn or GROUNDWATER_DSN is required")
			}
			fh, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open station file: %w", err)
			}
			defer fh.Close()

			stations, err := groundwater.ReadStationsCSV(fh)
			if err != nil {
				return err
			}

			store, err := groundwater.Open(cmd.Context(), dsn, 0, observability.NewUnregisteredMetrics(), cliLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			n, err := store.ImportStations(cmd.Context(), stations)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d stations from %s\n", n, file)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsnFlag, "dsn", "", "groundwater station database DSN (default $GROUNDWATER_DSN)")
	cmd.Flags().StringVar(&file, "file", "", "station CSV (id, latitude, longitude, post/pre-monsoon depth, aquifer type, yield)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

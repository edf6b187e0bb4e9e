// Package cli implements the skycast command-line front end.
package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/session"
	"github.com/skycast/skycast/internal/weather"
)

// WeatherService is the repository surface the commands use.
type WeatherService interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
	RefreshWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
	Stream(ctx context.Context, lat, lon float64) (*weather.Subscription, error)
	ClearCache(ctx context.Context) error
	Sweep(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Locations resolves place names and names bare coordinates.
type Locations interface {
	Resolve(ctx context.Context, query string) ([]location.Location, error)
	ByCoordinates(lat, lon float64) (location.Location, error)
}

// Dependencies are the collaborators of the commands.
type Dependencies struct {
	Weather   WeatherService
	Locations Locations
	Analyzer  *weather.Analyzer
	Logger    zerolog.Logger
}

type place struct {
	lat, lon float64
}

// New builds the root command.
func New(deps Dependencies) (*cobra.Command, error) {
	if deps.Weather == nil || deps.Locations == nil {
		return nil, errors.New("cli: weather and location services are required")
	}

	root := &cobra.Command{
		Use:          "skycast",
		Short:        "Current weather and forecasts from the command line",
		SilenceUsage: true,
	}

	var p place
	root.PersistentFlags().Float64Var(&p.lat, "lat", 0, "latitude, used with --lon instead of a place name")
	root.PersistentFlags().Float64Var(&p.lon, "lon", 0, "longitude, used with --lat instead of a place name")
	root.MarkFlagsRequiredTogether("lat", "lon")

	root.AddCommand(
		newSearchCmd(deps),
		newShowCmd(deps, &p, false),
		newShowCmd(deps, &p, true),
		newWatchCmd(deps, &p),
		newClearCacheCmd(deps),
		newSweepCmd(deps),
	)

	return root, nil
}

func newSearchCmd(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find places by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := deps.Locations.Resolve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return displayError(err)
			}

			for _, loc := range found {
				cmd.Printf("%s\t%s\t%.4f, %.4f\n", loc.Name, region(loc), loc.Latitude, loc.Longitude)
			}
			return nil
		},
	}
}

// newShowCmd builds "show", or "refresh" when force is set.
func newShowCmd(deps Dependencies, p *place, force bool) *cobra.Command {
	use, short := "show [place]", "Show weather for a place, from cache while fresh"
	if force {
		use, short = "refresh [place]", "Fetch fresh weather for a place, bypassing the cache"
	}

	var hours, days int
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd, deps, p, args, force)
			if err != nil {
				return displayError(err)
			}

			printState(cmd, s.State(), hours, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 8, "number of forecast samples to print")
	cmd.Flags().IntVar(&days, "days", 5, "number of daily summaries to print")
	return cmd
}

func newWatchCmd(deps Dependencies, p *place) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "watch [place]",
		Short: "Print weather updates for a place until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := target(cmd, deps.Locations, p, args)
			if err != nil {
				return displayError(err)
			}

			sub, err := deps.Weather.Stream(cmd.Context(), loc.Latitude, loc.Longitude)
			if err != nil {
				return displayError(err)
			}
			defer sub.Close()

			cmd.Printf("watching %s\n", loc.Name)

			seen := 0
			for ev := range sub.Events() {
				switch ev.Kind {
				case weather.EventLoading:
					cmd.Println("loading...")
				case weather.EventError:
					cmd.PrintErrln(weather.DisplayMessage(ev.Err))
				case weather.EventWeather:
					printUpdate(cmd, ev.Weather)
					seen++
					if limit > 0 && seen >= limit {
						return nil
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "count", 0, "stop after this many weather updates (0 watches until interrupted)")
	return cmd
}

func newClearCacheCmd(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Delete every cached weather record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deps.Weather.ClearCache(cmd.Context()); err != nil {
				return displayError(err)
			}
			cmd.Println("weather cache cleared")
			return nil
		},
	}
}

func newSweepCmd(deps Dependencies) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete cached weather records older than a retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}

			deleted, err := deps.Weather.Sweep(cmd.Context(), olderThan)
			if err != nil {
				return displayError(err)
			}
			cmd.Printf("deleted %d records older than %s\n", deleted, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "retention window")
	return cmd
}

// loadSession loads weather for the place named by args, by --lat/--lon,
// or the default location. Named places go through the session's search
// unless a refresh is forced.
func loadSession(cmd *cobra.Command, deps Dependencies, p *place, args []string, force bool) (*session.Session, error) {
	cfg := session.Config{
		Weather:   deps.Weather,
		Locations: deps.Locations,
		Analyzer:  deps.Analyzer,
		Logger:    deps.Logger,
	}

	if len(args) > 0 && !force {
		s := session.New(cfg)
		return s, s.Search(cmd.Context(), strings.Join(args, " "))
	}

	loc, err := target(cmd, deps.Locations, p, args)
	if err != nil {
		return nil, err
	}
	cfg.Initial = &loc
	s := session.New(cfg)

	load := s.Load
	if force {
		load = s.Refresh
	}
	return s, load(cmd.Context())
}

// target picks the location named by args, by --lat/--lon, or the default.
func target(cmd *cobra.Command, locations Locations, p *place, args []string) (location.Location, error) {
	if len(args) > 0 {
		found, err := locations.Resolve(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return location.Location{}, err
		}
		return found[0], nil
	}

	if cmd.Flags().Changed("lat") {
		return locations.ByCoordinates(p.lat, p.lon)
	}

	return session.DefaultLocation, nil
}

func displayError(err error) error {
	return errors.New(weather.DisplayMessage(err))
}

func region(loc location.Location) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{loc.State, loc.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func printState(cmd *cobra.Command, st session.State, hours, days int) {
	w := st.Weather
	cmd.Printf("LOCATION\t %s (%.4f, %.4f)\n", st.Location.Name, w.Latitude, w.Longitude)
	cmd.Printf("UPDATED\t\t %s\n", w.LastUpdated.UTC().Format(time.RFC3339))
	printCurrent(cmd, w)

	if a := st.Analysis; a != nil {
		cmd.Printf("ANALYSIS\t %s, %s, %s\n", a.TemperatureCategory, a.Condition, a.ComfortLevel)
		cmd.Printf("ADVICE\t\t %s\n", a.Recommendation)
	}

	if n := min(hours, len(w.Hourly)); n > 0 {
		cmd.Printf("\nTIME (UTC)\t")
		for _, h := range w.Hourly[:n] {
			cmd.Printf("%4s  ", time.Unix(h.Timestamp, 0).UTC().Format("15"))
		}
		cmd.Printf("\nTEMP\t\t")
		for _, h := range w.Hourly[:n] {
			cmd.Printf("%4.0f  ", h.Temperature)
		}
		cmd.Printf("\nRAIN %%\t\t")
		for _, h := range w.Hourly[:n] {
			cmd.Printf("%4.0f  ", h.PrecipitationProbability*100)
		}
		cmd.Printf("\n")
	}

	if n := min(days, len(w.Daily)); n > 0 {
		cmd.Printf("\n")
		for _, d := range w.Daily[:n] {
			cmd.Printf("%s\t %3.0f / %3.0f\t %s\n",
				time.Unix(d.Timestamp, 0).UTC().Format("Mon 01-02"),
				d.Temperature.Min, d.Temperature.Max, describe(d.Conditions))
		}
	}
}

func printCurrent(cmd *cobra.Command, w *weather.Weather) {
	cmd.Printf("TEMP\t\t %.1f (feels like %.1f)\n", w.Current.Temperature, w.Current.FeelsLike)
	cmd.Printf("CONDITION\t %s\n", describe(w.Current.Conditions))
	cmd.Printf("HUMIDITY\t %d%%\n", w.Current.Humidity)
	cmd.Printf("WIND\t\t %.1f\n", w.Current.WindSpeed)
}

func printUpdate(cmd *cobra.Command, w *weather.Weather) {
	cmd.Printf("[%s] %.1f, %s, humidity %d%%\n",
		w.LastUpdated.UTC().Format(time.TimeOnly),
		w.Current.Temperature, describe(w.Current.Conditions), w.Current.Humidity)
}

func describe(conditions []weather.Condition) string {
	if len(conditions) == 0 {
		return "-"
	}
	if conditions[0].Description != "" {
		return conditions[0].Description
	}
	return conditions[0].Main
}

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/internal/config"
	"github.com/username/holiday-api/internal/daemon"
	"github.com/username/holiday-api/internal/server"
	"github.com/username/holiday-api/pkg/dateutil"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with daily holiday data refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := cfg.Holiday.Location()
			if err != nil {
				return err
			}

			store := buildStore(&cfg.Holiday, logger)
			resolver := newResolver(store)

			var watcher *calendar.Watcher
			if cfg.Holiday.Watch {
				watcher = calendar.NewWatcher(cfg.Holiday.DataDir, store, 0, logger)
			}

			hour, minute := cfg.Daemon.GetDailyTime()
			d := daemon.New(daemon.Options{
				Addr:            cfg.Server.Addr(),
				Handler:         server.New(store, resolver, loc, logger).Handler(),
				Store:           store,
				Resolver:        resolver,
				Watcher:         watcher,
				Location:        loc,
				DailyHour:       hour,
				DailyMinute:     minute,
				ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
				SystemTray:      cfg.Daemon.SystemTray,
			}, logger)

			logger.Info("Starting holiday API",
				zap.String("addr", cfg.Server.Addr()),
				zap.String("source", store.SourceName()),
				zap.String("timezone", loc.String()),
				zap.Bool("watch", cfg.Holiday.Watch))

			return d.Start()
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [date]",
		Short: "Print how a date is classified (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := cfg.Holiday.Location()
			if err != nil {
				return err
			}

			date := dateutil.Today(loc)
			if len(args) == 1 {
				date, err = dateutil.ParseDate(args[0], loc)
				if err != nil {
					return err
				}
			}

			day := newResolver(buildStore(&cfg.Holiday, logger)).Resolve(date)
			return printJSON(day)
		},
	}
}

func yearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List years with holiday data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			years := buildStore(&cfg.Holiday, logger).AvailableYears()
			if len(years) == 0 {
				fmt.Fprintln(out, "No holiday data available")
				return nil
			}
			for _, year := range years {
				fmt.Fprintln(out, year)
			}
			return nil
		},
	}
}

func holidaysCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "holidays <year>",
		Short: "Print the holiday and adjusted workday entries of a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[0], err)
			}

			days := newResolver(buildStore(&cfg.Holiday, logger)).YearHolidays(year)
			if asJSON {
				return printJSON(days)
			}
			return printHolidayTable(year, days)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

// buildStore wires the configured holiday source into a Store
func buildStore(hc *config.HolidayConfig, logger *zap.Logger) *calendar.Store {
	var source calendar.YearSource

	switch hc.Source {
	case config.SourceDir:
		source = calendar.NewDirSource(hc.DataDir)
	case config.SourceRemote:
		source = newRemoteSource(hc, logger)
	case config.SourceComposite:
		source = calendar.NewCompositeSource(
			calendar.NewDirSource(hc.DataDir),
			newRemoteSource(hc, logger),
			logger,
		)
	default:
		source = calendar.NewEmbeddedSource()
	}

	return calendar.NewStore(source, logger, calendar.WithMissTTL(hc.GetMissTTL()))
}

func newRemoteSource(hc *config.HolidayConfig, logger *zap.Logger) *calendar.RemoteSource {
	remote := calendar.NewRemoteSource(hc.RemoteURL, hc.GetRemoteTimeout(), logger)
	remote.SetFirstYear(hc.RemoteFirst)
	return remote
}

func newResolver(store *calendar.Store) *calendar.Resolver {
	return calendar.NewResolver(store, calendar.WithSkipHook(func(year int, date string, err error) {
		logger.Warn("Skipping holiday entry with invalid date",
			zap.Int("year", year),
			zap.String("date", date),
			zap.Error(err))
	}))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func printHolidayTable(year int, days []calendar.ResolvedDay) error {
	if len(days) == 0 {
		fmt.Fprintf(out, "No holiday data for %d\n", year)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tWEEKDAY\tTYPE\tNAME")
	offDays := 0
	for _, day := range days {
		kind := "workday"
		if day.IsHoliday {
			kind = "off"
			offDays++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", day.Date, time.Weekday((day.Weekday.Number+1)%7), kind, day.HolidayName)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d entries: %d days off, %d adjusted workdays\n", len(days), offDays, len(days)-offDays)
	return nil
}

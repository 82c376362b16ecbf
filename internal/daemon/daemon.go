package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/pkg/dateutil"
	"go.uber.org/zap"
)

// Options configures a Daemon
type Options struct {
	Addr            string
	Handler         http.Handler
	Store           *calendar.Store
	Resolver        *calendar.Resolver
	Watcher         *calendar.Watcher // optional
	Location        *time.Location
	DailyHour       int // Hour of the daily refresh (0-23)
	DailyMinute     int // Minute of the daily refresh (0-59)
	ShutdownTimeout time.Duration
	SystemTray      bool // Show system tray icon
}

// Daemon serves the HTTP API and refreshes holiday data once a day
type Daemon struct {
	server          *http.Server
	store           *calendar.Store
	resolver        *calendar.Resolver
	watcher         *calendar.Watcher
	location        *time.Location
	dailyHour       int
	dailyMinute     int
	shutdownTimeout time.Duration
	systemTray      bool
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	trayApp         *TrayApp
	now             func() time.Time
	ready           chan struct{}
	listenAddr      net.Addr

	mu          sync.Mutex // Protects refresh state
	lastRunDate string     // Date of the last scheduled refresh
	lastRunTime time.Time
}

// New creates a new daemon instance
func New(opts Options, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Daemon{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           opts.Handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:           opts.Store,
		resolver:        opts.Resolver,
		watcher:         opts.Watcher,
		location:        loc,
		dailyHour:       opts.DailyHour,
		dailyMinute:     opts.DailyMinute,
		shutdownTimeout: shutdownTimeout,
		systemTray:      opts.SystemTray,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		now:             time.Now,
		ready:           make(chan struct{}),
	}
}

// Start runs the daemon until Stop is called or a termination signal arrives
func (d *Daemon) Start() error {
	// Initialize system tray if enabled (Windows only)
	if d.systemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			return d.run()
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		return d.trayApp.Run()
	}

	d.logger.Info("Running without system tray")
	return d.run()
}

// Ready is closed once the HTTP listener is bound
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// ListenAddr returns the bound address, or nil before Ready
func (d *Daemon) ListenAddr() net.Addr {
	select {
	case <-d.ready:
		return d.listenAddr
	default:
		return nil
	}
}

// run serves HTTP and the refresh schedule (called from tray or standalone)
func (d *Daemon) run() error {
	listener, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.server.Addr, err)
	}
	d.listenAddr = listener.Addr()
	close(d.ready)

	d.logger.Info("HTTP server listening", zap.String("addr", listener.Addr().String()))

	serverErr := make(chan error, 1)
	go func() {
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if d.watcher != nil {
		if err := d.watcher.Start(d.ctx); err != nil {
			d.logger.Warn("Failed to start holiday data watcher", zap.Error(err))
		}
	}

	d.logger.Info("Daily refresh scheduled",
		zap.Int("daily_hour", d.dailyHour),
		zap.Int("daily_minute", d.dailyMinute),
		zap.String("timezone", d.location.String()),
		zap.Time("next_run", d.calculateNextRun()))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Check every minute if it's time to refresh
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			break loop

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
			break loop

		case err, ok := <-serverErr:
			if ok {
				runErr = fmt.Errorf("http server failed: %w", err)
			}
			d.Stop()
			break loop

		case now := <-ticker.C:
			if !d.shouldRunAt(now) {
				continue
			}
			if !d.runRefresh() {
				continue
			}
			d.logger.Info("Next refresh scheduled", zap.Time("next_run", d.calculateNextRun()))
		}
	}

	if d.trayApp != nil {
		d.trayApp.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Error("HTTP server shutdown failed", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("failed to shut down http server: %w", err)
		}
	}

	return runErr
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// calculateNextRun calculates the next scheduled refresh in the daemon's time zone
func (d *Daemon) calculateNextRun() time.Time {
	now := d.now().In(d.location)

	today := time.Date(now.Year(), now.Month(), now.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, d.location)

	// If target time already passed today, schedule for tomorrow
	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}

	return today
}

// shouldRunAt checks if the refresh should run at the given time
func (d *Daemon) shouldRunAt(now time.Time) bool {
	local := now.In(d.location)
	return local.Hour() == d.dailyHour && local.Minute() == d.dailyMinute
}

// runRefresh performs the scheduled refresh at most once per day.
// It reports whether a refresh ran.
func (d *Daemon) runRefresh() bool {
	today := dateutil.FormatISODate(d.now().In(d.location))

	d.mu.Lock()
	if d.lastRunDate == today {
		d.logger.Debug("Already refreshed today, skipping",
			zap.String("last_run_date", d.lastRunDate),
			zap.Time("last_run_time", d.lastRunTime))
		d.mu.Unlock()
		return false
	}
	// claimed before loading so a concurrent tick cannot start a second run
	d.lastRunDate = today
	d.mu.Unlock()

	d.refresh()

	d.mu.Lock()
	d.lastRunTime = d.now()
	d.mu.Unlock()
	return true
}

// RefreshNow drops the cache and reloads the current and next year (called from tray menu)
func (d *Daemon) RefreshNow() {
	d.logger.Info("Manual refresh triggered")

	d.refresh()

	d.mu.Lock()
	d.lastRunTime = d.now()
	d.mu.Unlock()

	if d.trayApp != nil {
		d.trayApp.ShowNotification("Holiday data reloaded", fmt.Sprintf("Cached years: %v", d.store.CachedYears()))
	}
}

func (d *Daemon) refresh() {
	d.store.InvalidateCache()

	year := d.now().In(d.location).Year()
	current := d.store.LoadYear(year)
	next := d.store.LoadYear(year + 1)

	d.logger.Info("Holiday data refreshed",
		zap.Int("year", year),
		zap.Int("entries", current.Len()),
		zap.Int("next_year_entries", next.Len()))
}

// Today resolves the current date in the daemon's time zone
func (d *Daemon) Today() calendar.ResolvedDay {
	return d.resolver.Resolve(dateutil.Today(d.location))
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	lastRunDate, lastRunTime := d.lastRunDate, d.lastRunTime
	d.mu.Unlock()

	status := map[string]interface{}{
		"running":      d.ctx.Err() == nil,
		"daily_time":   fmt.Sprintf("%02d:%02d", d.dailyHour, d.dailyMinute),
		"timezone":     d.location.String(),
		"next_refresh": d.calculateNextRun().Format(time.RFC3339),
		"cached_years": d.store.CachedYears(),
		"today":        d.Today(),
	}

	if addr := d.ListenAddr(); addr != nil {
		status["listen_addr"] = addr.String()
	}
	if lastRunDate != "" {
		status["last_refresh_date"] = lastRunDate
	}
	if !lastRunTime.IsZero() {
		status["last_refresh"] = lastRunTime.Format(time.RFC3339)
	}

	return status
}

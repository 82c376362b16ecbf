package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %s, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Holiday.Source != SourceEmbedded {
		t.Errorf("Holiday.Source = %s, want embedded", cfg.Holiday.Source)
	}
	if cfg.Holiday.Timezone != "Asia/Shanghai" {
		t.Errorf("Holiday.Timezone = %s, want Asia/Shanghai", cfg.Holiday.Timezone)
	}
	if h, m := cfg.Daemon.GetDailyTime(); h != 3 || m != 0 {
		t.Errorf("GetDailyTime() = %d:%d, want 3:0", h, m)
	}
	if cfg.Holiday.RemoteFirst != 2007 {
		t.Errorf("Holiday.RemoteFirst = %d, want 2007", cfg.Holiday.RemoteFirst)
	}
	if got := cfg.Holiday.GetMissTTL(); got != 5*time.Minute {
		t.Errorf("GetMissTTL() = %v, want 5m", got)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  shutdown_timeout: 3s
holiday:
  source: dir
  data_dir: /srv/holiday
  watch: true
  timezone: UTC
daemon:
  daily_time: "04:30"
  log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Server.Addr() = %s", cfg.Server.Addr())
	}
	if cfg.Server.GetShutdownTimeout() != 3*time.Second {
		t.Errorf("GetShutdownTimeout() = %v, want 3s", cfg.Server.GetShutdownTimeout())
	}
	if cfg.Holiday.Source != SourceDir || cfg.Holiday.DataDir != "/srv/holiday" || !cfg.Holiday.Watch {
		t.Errorf("Holiday = %+v", cfg.Holiday)
	}
	if h, m := cfg.Daemon.GetDailyTime(); h != 4 || m != 30 {
		t.Errorf("GetDailyTime() = %d:%d, want 4:30", h, m)
	}
	if cfg.Daemon.LogLevel != "debug" {
		t.Errorf("Daemon.LogLevel = %s, want debug", cfg.Daemon.LogLevel)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOLIDAY_API_SERVER_PORT", "7070")
	t.Setenv("HOLIDAY_API_HOLIDAY_TIMEZONE", "UTC")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 from env", cfg.Server.Port)
	}
	if cfg.Holiday.Timezone != "UTC" {
		t.Errorf("Holiday.Timezone = %s, want UTC from env", cfg.Holiday.Timezone)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [port")); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Address: "0.0.0.0", Port: 8080},
			Holiday: HolidayConfig{
				Source:    SourceEmbedded,
				DataDir:   "holiday",
				RemoteURL: "https://example.com/{year}.json",
				Timezone:  "UTC",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid embedded", func(c *Config) {}, false},
		{"valid dir with watch", func(c *Config) { c.Holiday.Source = SourceDir; c.Holiday.Watch = true }, false},
		{"valid remote", func(c *Config) { c.Holiday.Source = SourceRemote }, false},
		{"valid composite", func(c *Config) { c.Holiday.Source = SourceComposite }, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown source", func(c *Config) { c.Holiday.Source = "ftp" }, true},
		{"dir without data_dir", func(c *Config) { c.Holiday.Source = SourceDir; c.Holiday.DataDir = "" }, true},
		{"remote without placeholder", func(c *Config) {
			c.Holiday.Source = SourceRemote
			c.Holiday.RemoteURL = "https://example.com/2024.json"
		}, true},
		{"watch with embedded source", func(c *Config) { c.Holiday.Watch = true }, true},
		{"unknown timezone", func(c *Config) { c.Holiday.Timezone = "Mars/Olympus_Mons" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpersFallBack(t *testing.T) {
	server := ServerConfig{ShutdownTimeout: "soon"}
	if got := server.GetShutdownTimeout(); got != 10*time.Second {
		t.Errorf("GetShutdownTimeout() = %v, want 10s fallback", got)
	}

	holiday := HolidayConfig{RemoteTimeout: "2s", MissTTL: "later"}
	if got := holiday.GetRemoteTimeout(); got != 2*time.Second {
		t.Errorf("GetRemoteTimeout() = %v, want 2s", got)
	}
	if got := holiday.GetMissTTL(); got != 5*time.Minute {
		t.Errorf("GetMissTTL() = %v, want 5m fallback", got)
	}

	daemon := DaemonConfig{DailyTime: "25:61"}
	if h, m := daemon.GetDailyTime(); h != 3 || m != 0 {
		t.Errorf("GetDailyTime() = %d:%d, want 3:0 fallback", h, m)
	}
}

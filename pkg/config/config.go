package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Request RequestConfig `yaml:"request"`
	Sim     SimConfig     `yaml:"sim"`
	Traffic TrafficConfig `yaml:"traffic"`
	Terrain TerrainConfig `yaml:"terrain"`
	Vatsim  VatsimConfig  `yaml:"vatsim"`
	Mock    MockConfig    `yaml:"mock"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	Trace  LogSettings `yaml:"trace"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// RequestConfig holds HTTP client settings for network feeds.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// SimConfig holds settings for the simulator connection.
type SimConfig struct {
	Provider          string   `yaml:"provider"` // "simconnect", "mock"
	AppName           string   `yaml:"app_name"`
	DLLPath           string   `yaml:"dll_path"`
	DispatchInterval  Duration `yaml:"dispatch_interval"`
	ReconnectInterval Duration `yaml:"reconnect_interval"`
	WatchdogTimeout   Duration `yaml:"watchdog_timeout"`
}

// TrafficConfig holds settings of the AI object manager.
type TrafficConfig struct {
	MaxAircraft       int      `yaml:"max_aircraft"`
	MaxRange          Distance `yaml:"max_range"`
	MaxPendingAdds    int      `yaml:"max_pending_adds"`
	ReconcileInterval Duration `yaml:"reconcile_interval"`
	UpdateInterval    Duration `yaml:"update_interval"`
	VerifyDelay       Duration `yaml:"verify_delay"`
	AddAgainDelay     Duration `yaml:"add_again_delay"`
	OutdatedPending   Duration `yaml:"outdated_pending"`
	TraceSendIDs      bool     `yaml:"trace_send_ids"`
	MaxSendIDTraces   int      `yaml:"max_send_id_traces"`
	DefaultModel      string   `yaml:"default_model"`
	ModelSet          string   `yaml:"model_set"`
	ProbeTitle        string   `yaml:"probe_title"`
	ElevationRefresh  Duration `yaml:"elevation_refresh"`
}

// TerrainConfig holds settings of the elevation cache.
type TerrainConfig struct {
	CacheSize     int      `yaml:"cache_size"`
	H3Resolution  int      `yaml:"h3_resolution"`
	WarmCells     int      `yaml:"warm_cells"`
	RetainSamples Duration `yaml:"retain_samples"`
}

// VatsimConfig holds settings of the network data feed.
type VatsimConfig struct {
	Enabled  bool     `yaml:"enabled"`
	URL      string   `yaml:"url"`
	Interval Duration `yaml:"interval"`
	Range    Distance `yaml:"range"`
	StaleAge Duration `yaml:"stale_age"`
}

// MockConfig holds settings of the mock simulator.
type MockConfig struct {
	StartLat       float64  `yaml:"start_lat"`
	StartLon       float64  `yaml:"start_lon"`
	StartAlt       float64  `yaml:"start_alt"`
	StartHeading   float64  `yaml:"start_heading"`
	DurationParked Duration `yaml:"duration_parked"`
	DurationTaxi   Duration `yaml:"duration_taxi"`
	Latency        Duration `yaml:"latency"`
	MaxObjects     int      `yaml:"max_objects"`
	FailTitles     []string `yaml:"fail_titles"`
	Traffic        int      `yaml:"traffic"` // synthetic aircraft around the start
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:       "./logs/server.log",
				Level:      "INFO",
				MaxSizeMB:  20,
				MaxBackups: 3,
			},
			Trace: LogSettings{
				Path:       "./logs/sendid_trace.log",
				Level:      "DEBUG",
				MaxSizeMB:  10,
				MaxBackups: 2,
			},
		},
		DB: DBConfig{
			Path: "./data/swiftgo.db",
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(2 * time.Second),
				MaxDelay:  Duration(2 * time.Minute),
			},
		},
		Sim: SimConfig{
			Provider:          "simconnect",
			AppName:           "SwiftGo",
			DispatchInterval:  Duration(10 * time.Millisecond),
			ReconnectInterval: Duration(5 * time.Second),
			WatchdogTimeout:   Duration(5 * time.Second),
		},
		Traffic: TrafficConfig{
			MaxAircraft:       50,
			MaxRange:          Distance(100 * 1852),
			MaxPendingAdds:    1,
			ReconcileInterval: Duration(time.Second),
			UpdateInterval:    Duration(50 * time.Millisecond),
			VerifyDelay:       Duration(time.Second),
			AddAgainDelay:     Duration(2500 * time.Millisecond),
			OutdatedPending:   Duration(5 * time.Second),
			MaxSendIDTraces:   10000,
			DefaultModel:      "Airbus A320 Neo Asobo",
			ProbeTitle:        "OrbxLibs_Probe",
			ElevationRefresh:  Duration(30 * time.Second),
		},
		Terrain: TerrainConfig{
			CacheSize:     20000,
			H3Resolution:  9,
			WarmCells:     5000,
			RetainSamples: Duration(4 * Week),
		},
		Vatsim: VatsimConfig{
			Enabled:  true,
			URL:      "https://data.vatsim.net/v3/vatsim-data.json",
			Interval: Duration(15 * time.Second),
			Range:    Distance(150 * 1852),
			StaleAge: Duration(time.Minute),
		},
		Mock: MockConfig{
			StartLat:       50.0379,
			StartLon:       8.5622,
			StartAlt:       364,
			StartHeading:   250,
			DurationParked: Duration(30 * time.Second),
			DurationTaxi:   Duration(60 * time.Second),
			Latency:        Duration(20 * time.Millisecond),
			Traffic:        20,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk, so user formatting and comments survive.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills settings from the environment (not saved back to disk).
func applyEnv(cfg *Config) {
	if cfg.Sim.DLLPath == "" {
		if p := os.Getenv("SIMCONNECT_DLL"); p != "" {
			cfg.Sim.DLLPath = p
		}
	}
	if p := os.Getenv("SWIFTGO_SIM_PROVIDER"); p != "" {
		cfg.Sim.Provider = p
	}
	if addr := os.Getenv("SWIFTGO_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if u := os.Getenv("VATSIM_DATA_URL"); u != "" {
		cfg.Vatsim.URL = u
	}
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Sim.Provider {
	case "simconnect", "mock":
	default:
		return fmt.Errorf("invalid sim.provider %q: must be simconnect or mock", c.Sim.Provider)
	}
	if c.Traffic.MaxAircraft < 0 || c.Traffic.MaxPendingAdds < 0 {
		return fmt.Errorf("traffic limits must not be negative")
	}
	if c.Terrain.H3Resolution < 0 || c.Terrain.H3Resolution > 15 {
		return fmt.Errorf("invalid terrain.h3_resolution %d: must be 0-15", c.Terrain.H3Resolution)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# SwiftGo Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: simconnect, mock\n${1}provider:"))

	reProbe := regexp.MustCompile(`(?m)^(\s+)probe_title:`)
	data = reProbe.ReplaceAll(data, []byte("${1}# Simulated object used to measure terrain, empty disables the probe\n${1}probe_title:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}

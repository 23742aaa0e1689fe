// Package config provides station configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config holds the station configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Server   ServerConfig
	Scale    ScaleConfig
	Printer  PrinterConfig
	Label    LabelConfig
	Workflow WorkflowConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds record store configuration.
type StorageConfig struct {
	DataPath string // Directory holding the database (default: ~/CanLabeler/data)
	Driver   string // sqlite or badger (default: sqlite)
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	StationName   string
	Port          string        // Server port (default: 8080)
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: true)
	CORSOrigins   []string      // Allowed origins for the operator UI (default: *)
}

// ScaleConfig holds serial scale configuration.
type ScaleConfig struct {
	// Port is the serial device path, e.g. /dev/ttyUSB0. Empty disables auto-connect.
	Port string
	// Baud is the line speed (default: 9600)
	Baud int
	// EventRate caps weight events pushed to clients per second (default: 5)
	EventRate int
}

// PrinterConfig holds label printer configuration.
// At most one of Addr and SpoolDir is used; Addr wins when both are set.
type PrinterConfig struct {
	// Addr is a raw TCP endpoint, e.g. 192.168.1.50:9100
	Addr string
	// SpoolDir receives one .zpl file per job for driver pickup
	SpoolDir string
	// Timeout bounds a single job submission (default: 5s)
	Timeout time.Duration
}

// LabelConfig holds label content defaults.
type LabelConfig struct {
	ShelfLifeYears int // Expiry offset from manufacture date (default: 2)
}

// WorkflowConfig holds print workflow tuning.
type WorkflowConfig struct {
	LoadRetries int // Attempts per loading fetch (default: 3)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Directory for the station database")
	storeDriver := flag.String("store-driver", "", "Record store backend (sqlite, badger)")

	// Server flags
	stationName := flag.String("station-name", "", "Name advertised for this station")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	corsOrigins := flag.String("cors-origins", "", "Comma separated allowed origins (default: *)")

	// Device flags
	scalePort := flag.String("scale-port", "", "Serial device of the scale")
	scaleBaud := flag.String("scale-baud", "", "Scale baud rate (default: 9600)")
	scaleEventRate := flag.String("scale-event-rate", "", "Max weight events per second (default: 5)")
	printerAddr := flag.String("printer-addr", "", "Raw TCP address of the label printer")
	printerSpoolDir := flag.String("printer-spool-dir", "", "Directory to spool ZPL jobs into")
	printerTimeout := flag.String("printer-timeout", "", "Label submission timeout (default: 5s)")

	shelfLife := flag.String("shelf-life-years", "", "Default expiry offset in years (default: 2)")
	loadRetries := flag.String("load-retries", "", "Attempts per loading fetch (default: 3)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Driver:   strings.ToLower(getConfigValue(*storeDriver, "STORE_DRIVER", DriverSQLite)),
		},
		Server: ServerConfig{
			StationName:   getConfigValue(*stationName, "STATION_NAME", "Can Labeler"),
			Port:          getConfigValue(*serverPort, "PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
			CORSOrigins:   splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Scale: ScaleConfig{
			Port:      getConfigValue(*scalePort, "SCALE_PORT", ""),
			Baud:      getIntConfigValue(*scaleBaud, "SCALE_BAUD", 9600),
			EventRate: getIntConfigValue(*scaleEventRate, "SCALE_EVENT_RATE", 5),
		},
		Printer: PrinterConfig{
			Addr:     getConfigValue(*printerAddr, "PRINTER_ADDR", ""),
			SpoolDir: getConfigValue(*printerSpoolDir, "PRINTER_SPOOL_DIR", ""),
		},
		Label: LabelConfig{
			ShelfLifeYears: getIntConfigValue(*shelfLife, "SHELF_LIFE_YEARS", 2),
		},
		Workflow: WorkflowConfig{
			LoadRetries: getIntConfigValue(*loadRetries, "LOAD_RETRIES", 3),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Printer.Timeout, err = parseDuration(*printerTimeout, "PRINTER_TIMEOUT", "5s"); err != nil {
		return nil, fmt.Errorf("invalid printer timeout: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Printer.SpoolDir != "" {
		if cfg.Printer.SpoolDir, err = expandPath(cfg.Printer.SpoolDir, ""); err != nil {
			return nil, fmt.Errorf("invalid printer spool dir: %w", err)
		}
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("invalid store driver: %s (must be sqlite or badger)", c.Storage.Driver)
	}

	if c.Scale.Baud <= 0 {
		return fmt.Errorf("invalid scale baud rate: %d", c.Scale.Baud)
	}
	if c.Scale.EventRate <= 0 {
		return fmt.Errorf("invalid scale event rate: %d", c.Scale.EventRate)
	}

	if c.Label.ShelfLifeYears < 1 || c.Label.ShelfLifeYears > 10 {
		return fmt.Errorf("invalid shelf life: %d years (must be 1-10)", c.Label.ShelfLifeYears)
	}

	if c.Workflow.LoadRetries < 1 {
		return fmt.Errorf("invalid load retries: %d (must be at least 1)", c.Workflow.LoadRetries)
	}

	// No printer configured is allowed; jobs fail with a device error.

	return nil
}

// PrinterMode reports which sink the printer settings select.
func (c *Config) PrinterMode() string {
	switch {
	case c.Printer.Addr != "":
		return "tcp"
	case c.Printer.SpoolDir != "":
		return "spool"
	default:
		return "disabled"
	}
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "CanLabeler", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, s, err)
	}
	return d, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const EnvPrefix = "EVENGER"

func DefaultConfig() *Config {

	v := viper.New()

	// Set default values
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	loadEnvFile()

	v := viper.New()

	setupViperConfig(v, configFile)
	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() {
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/evenger")

	if home, err := os.UserHomeDir(); err == nil && len(home) > 0 {
		v.AddConfigPath(filepath.Join(home, ".config", "evenger"))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// bindEnvironmentVariables binds the short names people already export for
// their EVE-NG server, next to the prefixed ones.
func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("eveng.server_url", "EVENGER_EVENG_SERVER_URL", "EVENG_SERVER_URL")
	v.BindEnv("eveng.username", "EVENGER_EVENG_USERNAME", "EVENG_USERNAME")
	v.BindEnv("eveng.password", "EVENGER_EVENG_PASSWORD", "EVENG_PASSWORD")

	v.BindEnv("logging.level", "EVENGER_LOGGING_LEVEL")
	v.BindEnv("logging.format", "EVENGER_LOGGING_FORMAT")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment only
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.file = v.ConfigFileUsed()

	return &config, nil
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)
	config.recorder = NewRunRecorder(DefaultRecorderSize)
	logrus.AddHook(config.recorder)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	// Dump out the config settings if in debug mode
	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			if key == "eveng" {
				continue
			}
			logrus.Debugf("Config '%s': %v", key, value)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {

	// EVE-NG server
	v.SetDefault("eveng.server_url", "")
	v.SetDefault("eveng.username", "")
	v.SetDefault("eveng.password", "")
	v.SetDefault("eveng.lab_path", "")
	v.SetDefault("eveng.insecure", true)
	v.SetDefault("eveng.timeout", "30s")
	v.SetDefault("eveng.login_timeout", "5s")

	// Telnet consoles
	v.SetDefault("telnet.default_timeout", "5s")
	v.SetDefault("telnet.drain_window", "100ms")
	v.SetDefault("telnet.dial_timeout", "10s")

	// Workbook runs
	v.SetDefault("batch.auto_start", false)
	v.SetDefault("batch.boot_time", "180s")
	v.SetDefault("batch.config_folder", "")
	v.SetDefault("batch.jump_node", "")
	v.SetDefault("batch.log_output", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

package config

import (
	"time"

	"github.com/evenger-io/evenger/internal/batch"
	"github.com/evenger-io/evenger/internal/eveng"
	"github.com/evenger-io/evenger/internal/telnet"
)

// Config represents the application configuration structure
type Config struct {
	Eveng   EvengConfig   `mapstructure:"eveng"`
	Telnet  TelnetConfig  `mapstructure:"telnet"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Logging LoggingConfig `mapstructure:"logging"`

	file     string
	recorder *RunRecorder
}

// EvengConfig is the server used by the commands that work on an existing
// lab. Workbook runs take their connection from the workbook instead.
type EvengConfig struct {
	ServerURL    string        `mapstructure:"server_url"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	LabPath      string        `mapstructure:"lab_path"`
	Insecure     bool          `mapstructure:"insecure"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LoginTimeout time.Duration `mapstructure:"login_timeout"`
}

type TelnetConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	DrainWindow    time.Duration `mapstructure:"drain_window"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
}

type BatchConfig struct {
	AutoStart    bool          `mapstructure:"auto_start"`
	BootTime     time.Duration `mapstructure:"boot_time"`
	ConfigFolder string        `mapstructure:"config_folder"`
	JumpNode     string        `mapstructure:"jump_node"`
	LogOutput    bool          `mapstructure:"log_output"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// File is the config file that was read, empty when none was found.
func (c *Config) File() string {
	return c.file
}

// GetRecorder returns the hook installed by Load, nil for DefaultConfig.
func (c *Config) GetRecorder() *RunRecorder {
	return c.recorder
}

func (c *Config) GetConnection() eveng.Connection {
	return eveng.Connection{
		ServerURL: c.Eveng.ServerURL,
		Username:  c.Eveng.Username,
		Password:  c.Eveng.Password,
		LabPath:   c.Eveng.LabPath,
	}
}

func (c *Config) GetClientOptions() eveng.Options {
	return eveng.Options{
		Timeout:      c.Eveng.Timeout,
		LoginTimeout: c.Eveng.LoginTimeout,
		Insecure:     c.Eveng.Insecure,
	}
}

func (c *Config) GetDialerOptions() telnet.DialerOptions {
	return telnet.DialerOptions{
		DialTimeout: c.Telnet.DialTimeout,
		DrainWindow: c.Telnet.DrainWindow,
	}
}

// NewInterpreter builds a telnet interpreter from the telnet section.
func (c *Config) NewInterpreter() *telnet.Interpreter {
	return telnet.NewInterpreter(
		telnet.WithDialer(telnet.NewDialer(c.GetDialerOptions())),
		telnet.WithDefaultTimeout(c.Telnet.DefaultTimeout),
	)
}

func (c *Config) GetBatchOptions() batch.Options {
	return batch.Options{
		AutoStart:    c.Batch.AutoStart,
		ConfigFolder: c.Batch.ConfigFolder,
		BootTime:     c.Batch.BootTime,
		JumpNode:     c.Batch.JumpNode,
		LogOutput:    c.Batch.LogOutput,
		Client:       c.GetClientOptions(),
		Interpreter:  c.NewInterpreter(),
	}
}

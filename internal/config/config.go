// Package config loads daemon settings from defaults, an optional YAML file,
// MICROWAVE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/microwave/internal/gpio"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "MICROWAVE"

// Config holds every daemon setting.
type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	Broker    string        `mapstructure:"broker"`
	ClientID  string        `mapstructure:"client_id"`
	HTTP      string        `mapstructure:"http"`
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	Tick      time.Duration `mapstructure:"tick"`
	Console   bool          `mapstructure:"console"`
	GPIO      GPIO          `mapstructure:"gpio"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

// GPIO holds hardware settings.
type GPIO struct {
	Enabled  bool          `mapstructure:"enabled"`
	Chip     string        `mapstructure:"chip"`
	Debounce time.Duration `mapstructure:"debounce"`
	PinPower int           `mapstructure:"pin_power"`
	PinTime  int           `mapstructure:"pin_time"`
	PinStart int           `mapstructure:"pin_start"`
	PinDoor  int           `mapstructure:"pin_door"`
	PinTube  int           `mapstructure:"pin_tube"`
	PinLight int           `mapstructure:"pin_light"`
}

// Pins converts the pin settings.
func (g GPIO) Pins() gpio.Pins {
	return gpio.Pins{
		Power:       g.PinPower,
		Time:        g.PinTime,
		StartCancel: g.PinStart,
		Door:        g.PinDoor,
		Tube:        g.PinTube,
		Light:       g.PinLight,
	}
}

// flagSpec binds one flag to one key.
type flagSpec struct {
	key, flag string
}

var bindings = []flagSpec{
	{"log_level", "log-level"},
	{"broker", "broker"},
	{"client_id", "client-id"},
	{"http", "http"},
	{"heartbeat", "heartbeat"},
	{"tick", "tick"},
	{"console", "console"},
	{"gpio.enabled", "gpio"},
	{"gpio.chip", "gpio-chip"},
	{"gpio.debounce", "debounce"},
	{"gpio.pin_power", "pin-power"},
	{"gpio.pin_time", "pin-time"},
	{"gpio.pin_start", "pin-start"},
	{"gpio.pin_door", "pin-door"},
	{"gpio.pin_tube", "pin-tube"},
	{"gpio.pin_light", "pin-light"},
}

// Defaults returns the built-in settings.
func Defaults() Config {
	p := gpio.DefaultPins
	return Config{
		LogLevel:  "info",
		ClientID:  "microwave",
		HTTP:      ":8080",
		Heartbeat: 15 * time.Minute,
		Tick:      time.Second,
		Console:   true,
		GPIO: GPIO{
			Chip:     "gpiochip0",
			Debounce: 20 * time.Millisecond,
			PinPower: p.Power,
			PinTime:  p.Time,
			PinStart: p.StartCancel,
			PinDoor:  p.Door,
			PinTube:  p.Tube,
			PinLight: p.Light,
		},
	}
}

// Load parses args (without the program name) and returns the validated
// configuration. "--help" returns pflag.ErrHelp after printing usage.
func Load(args []string) (Config, error) {
	return load(args, os.Stderr)
}

func load(args []string, usage io.Writer) (Config, error) {
	d := Defaults()

	fs := pflag.NewFlagSet("microwave", pflag.ContinueOnError)
	fs.SetOutput(usage)
	configFile := fs.String("config", "", "YAML config file (default: microwave.yaml in . or /etc/microwave)")
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	fs.String("broker", d.Broker, "MQTT broker address, e.g. tcp://host:1883 (empty to disable)")
	fs.String("client-id", d.ClientID, "MQTT client ID")
	fs.String("http", d.HTTP, "HTTP status address (empty to disable)")
	fs.Duration("heartbeat", d.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.Duration("tick", d.Tick, "Cook countdown tick interval")
	fs.Bool("console", d.Console, "Read panel commands from stdin")
	fs.Bool("gpio", d.GPIO.Enabled, "Drive the panel from GPIO hardware")
	fs.String("gpio-chip", d.GPIO.Chip, "GPIO character device")
	fs.Duration("debounce", d.GPIO.Debounce, "Input debounce period")
	fs.Int("pin-power", d.GPIO.PinPower, "BCM pin for the power button")
	fs.Int("pin-time", d.GPIO.PinTime, "BCM pin for the time button")
	fs.Int("pin-start", d.GPIO.PinStart, "BCM pin for the start/cancel button")
	fs.Int("pin-door", d.GPIO.PinDoor, "BCM pin for the door switch")
	fs.Int("pin-tube", d.GPIO.PinTube, "BCM pin for the power tube relay")
	fs.Int("pin-light", d.GPIO.PinLight, "BCM pin for the lamp relay")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, d)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, b := range bindings {
		if err := v.BindPFlag(b.key, fs.Lookup(b.flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", b.flag, err)
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("microwave")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/microwave")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("broker", d.Broker)
	v.SetDefault("client_id", d.ClientID)
	v.SetDefault("http", d.HTTP)
	v.SetDefault("heartbeat", d.Heartbeat)
	v.SetDefault("tick", d.Tick)
	v.SetDefault("console", d.Console)
	v.SetDefault("gpio.enabled", d.GPIO.Enabled)
	v.SetDefault("gpio.chip", d.GPIO.Chip)
	v.SetDefault("gpio.debounce", d.GPIO.Debounce)
	v.SetDefault("gpio.pin_power", d.GPIO.PinPower)
	v.SetDefault("gpio.pin_time", d.GPIO.PinTime)
	v.SetDefault("gpio.pin_start", d.GPIO.PinStart)
	v.SetDefault("gpio.pin_door", d.GPIO.PinDoor)
	v.SetDefault("gpio.pin_tube", d.GPIO.PinTube)
	v.SetDefault("gpio.pin_light", d.GPIO.PinLight)
}

// Validate checks settings that would otherwise fail at runtime.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("config: tick must be positive, got %v", c.Tick)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config: heartbeat must not be negative, got %v", c.Heartbeat)
	}
	if c.Broker != "" && c.ClientID == "" {
		return errors.New("config: client_id is required with a broker")
	}
	if c.GPIO.Enabled {
		if c.GPIO.Debounce < 0 {
			return fmt.Errorf("config: gpio.debounce must not be negative, got %v", c.GPIO.Debounce)
		}
		if err := c.GPIO.Pins().Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

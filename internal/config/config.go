package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/spf13/viper"
)

// ConfigName is the file Load looks for in the config directory.
const ConfigName = "mapview.cfg.json"

// GestureConfig holds gesture timing settings
type GestureConfig struct {
	CompassThrottle     time.Duration `json:"compassThrottle" mapstructure:"throttle"`
	StaleSessionTimeout time.Duration `json:"staleSessionTimeout" mapstructure:"staleSessionTimeout"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// LogConfig holds log output settings
type LogConfig struct {
	Level string `json:"logLevel" mapstructure:"logLevel"`
	Dir   string `json:"logsDir" mapstructure:"logsDir"`
}

// SetDefaults registers the default value of every setting.
func SetDefaults() {
	defaults := core.DefaultMapOptions()

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./mapviewlogs")

	viper.SetDefault("map.rotate", defaults.Rotate)
	viper.SetDefault("map.bearing", defaults.Bearing)
	viper.SetDefault("map.touchZoom", defaults.TouchZoom)
	viper.SetDefault("map.shiftKeyRotate", defaults.ShiftKeyRotate)
	viper.SetDefault("map.scrollWheelZoom", defaults.ScrollWheelZoom)
	viper.SetDefault("map.compassBearing", defaults.CompassBearing)
	viper.SetDefault("map.rotateControl", defaults.RotateControl)
	viper.SetDefault("map.closeOnZeroBearing", defaults.CloseOnZeroBearing)
	viper.SetDefault("map.zoomSnap", defaults.ZoomSnap)
	viper.SetDefault("map.minZoom", defaults.MinZoom)
	viper.SetDefault("map.maxZoom", defaults.MaxZoom)
	viper.SetDefault("map.rendererPadding", defaults.RendererPadding)
	viper.SetDefault("map.keepBuffer", defaults.KeepBuffer)

	viper.SetDefault("compass.throttle", defaults.CompassThrottle.String())
	viper.SetDefault("gesture.staleSessionTimeout", defaults.StaleGestureTimeout.String())

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "mapview")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(ConfigName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetMapOptions returns the map options. touchRotate is only set when the
// config names it, so the platform's touch capability decides otherwise.
func GetMapOptions() core.MapOptions {
	gc := GetGestureConfig()
	opts := core.MapOptions{
		Rotate:              viper.GetBool("map.rotate"),
		Bearing:             viper.GetFloat64("map.bearing"),
		TouchZoom:           viper.GetBool("map.touchZoom"),
		ShiftKeyRotate:      viper.GetBool("map.shiftKeyRotate"),
		ScrollWheelZoom:     viper.GetBool("map.scrollWheelZoom"),
		CompassBearing:      viper.GetBool("map.compassBearing"),
		RotateControl:       viper.GetBool("map.rotateControl"),
		CloseOnZeroBearing:  viper.GetBool("map.closeOnZeroBearing"),
		ZoomSnap:            viper.GetFloat64("map.zoomSnap"),
		MinZoom:             viper.GetFloat64("map.minZoom"),
		MaxZoom:             viper.GetFloat64("map.maxZoom"),
		CompassThrottle:     gc.CompassThrottle,
		StaleGestureTimeout: gc.StaleSessionTimeout,
		RendererPadding:     viper.GetFloat64("map.rendererPadding"),
		KeepBuffer:          viper.GetInt("map.keepBuffer"),
	}
	if viper.IsSet("map.touchRotate") {
		touchRotate := viper.GetBool("map.touchRotate")
		opts.TouchRotate = &touchRotate
	}
	return opts
}

// GetGestureConfig returns the gesture timing settings.
func GetGestureConfig() GestureConfig {
	return GestureConfig{
		CompassThrottle:     viper.GetDuration("compass.throttle"),
		StaleSessionTimeout: viper.GetDuration("gesture.staleSessionTimeout"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetLogConfig returns the log output settings.
func GetLogConfig() LogConfig {
	return LogConfig{
		Level: viper.GetString("logLevel"),
		Dir:   viper.GetString("logsDir"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturonaredo/homebalance-go/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// Password for the dashboard login. Leaving it empty disables
	// authentication, which is only sensible on a trusted LAN.
	Password string
	// Secret for the session cookie store. Generated once and kept
	// out of version control.
	SessionSecret string `mapstructure:"session_secret"`
}

type AppConfigDatabase struct {
	Path string
	// How many days data should be stored in database before it gets purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigHomeAssistant struct {
	BaseUrl string `mapstructure:"base_url"` // e.g. http://supervisor/core
	Token   string // Long-lived access token
}

type AppConfigMqtt struct {
	Host     string
	Port     int16
	Username string
	Password string
	// Topic alerts and reports are published on
	Topic *string
}

func (m AppConfigMqtt) GetTopic() string {
	if m.Topic == nil {
		return "homebalance/notify"
	}
	return *m.Topic
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Host != ""
}

type AppConfigTariff struct {
	// Contracted power per tariff period in watts
	ValleWatts float64 `mapstructure:"valle_watts"`
	LlanoWatts float64 `mapstructure:"llano_watts"`
	PuntaWatts float64 `mapstructure:"punta_watts"`
	// Percent of contracted power kept as safety margin before shedding
	SafetyMarginPercent *float64 `mapstructure:"safety_margin_percent"`
}

func (t AppConfigTariff) GetSafetyMarginPercent() float64 {
	if t.SafetyMarginPercent == nil {
		return 10
	}
	return *t.SafetyMarginPercent
}

type AppConfigTargetSoc struct {
	MinSoc            float64 `mapstructure:"min_soc"`             // Battery floor in percent
	AlwaysChargeBelow float64 `mapstructure:"always_charge_below"` // EUR/kWh
	NeverChargeAbove  float64 `mapstructure:"never_charge_above"`  // EUR/kWh
	KeepFullWeekends  bool    `mapstructure:"keep_full_weekends"`
	// Fallback targets per tariff period when no price is known
	ValleTarget *float64 `mapstructure:"valle_target"`
	LlanoTarget *float64 `mapstructure:"llano_target"`
	PuntaTarget *float64 `mapstructure:"punta_target"`
}

func (t AppConfigTargetSoc) GetValleTarget() float64 {
	if t.ValleTarget == nil {
		return 100
	}
	return *t.ValleTarget
}

func (t AppConfigTargetSoc) GetLlanoTarget() float64 {
	if t.LlanoTarget == nil {
		return 60
	}
	return *t.LlanoTarget
}

func (t AppConfigTargetSoc) GetPuntaTarget() float64 {
	if t.PuntaTarget == nil {
		return 30
	}
	return *t.PuntaTarget
}

type AppConfigBattery struct {
	CapacityKwh      float64 `mapstructure:"capacity_kwh"`
	MaxChargeRateKw  float64 `mapstructure:"max_charge_rate_kw"`
	SocSensor        string  `mapstructure:"soc_sensor"`
	PowerSensor      string  `mapstructure:"power_sensor"`
	TargetSocControl string  `mapstructure:"target_soc_control"`
	GridChargeControl string `mapstructure:"grid_charge_control"`
}

type AppConfigSensors struct {
	GridPower string `mapstructure:"grid_power"`
	LoadPower string `mapstructure:"load_power"`
	PvPower   string `mapstructure:"pv_power"`
}

type AppConfigLoad struct {
	Id            string
	Name          string
	Priority      string  // essential, comfort or accessory
	Switch        string  // HA switch entity, empty means not sheddable
	PowerSensor   string  `mapstructure:"power_sensor"`
	MaxPowerWatts float64 `mapstructure:"max_power_watts"`
}

type AppConfigBalance struct {
	// Seconds between balance evaluations
	Interval *int
}

func (b AppConfigBalance) GetInterval() int {
	if b.Interval == nil {
		return 60
	}
	return *b.Interval
}

type AppConfigRefresh struct {
	// Seconds between state refresh cycles
	Interval *int
}

func (r AppConfigRefresh) GetInterval() int {
	if r.Interval == nil {
		return 30
	}
	return *r.Interval
}

type AppConfigAlerts struct {
	LowSoc    *float64 `mapstructure:"low_soc"`    // percent
	HighPrice *float64 `mapstructure:"high_price"` // EUR/kWh
}

func (a AppConfigAlerts) GetLowSoc() float64 {
	if a.LowSoc == nil {
		return 15
	}
	return *a.LowSoc
}

func (a AppConfigAlerts) GetHighPrice() float64 {
	if a.HighPrice == nil {
		return 0.40
	}
	return *a.HighPrice
}

type AppConfigPriceForecast struct {
	RunAt           string `mapstructure:"run_at"`
	CacheTtlMinutes *int   `mapstructure:"cache_ttl_minutes"`
}

func (p AppConfigPriceForecast) GetCacheTtlMinutes() int {
	if p.CacheTtlMinutes == nil {
		return 30
	}
	return *p.CacheTtlMinutes
}

type AppConfigSolarForecast struct {
	Latitude    float64 // Approx latitude of the plant (WGS84)
	Longitude   float64 // Approx longitude of the plant (WGS84)
	PeakKw      float64 `mapstructure:"peak_kw"`
	Declination *float64
	Azimuth     *float64
	RunAt       string   `mapstructure:"run_at"`
	CacheTtlMinutes *int `mapstructure:"cache_ttl_minutes"`
}

func (s AppConfigSolarForecast) GetDeclination() float64 {
	if s.Declination == nil {
		return 30
	}
	return *s.Declination
}

func (s AppConfigSolarForecast) GetAzimuth() float64 {
	if s.Azimuth == nil {
		return 0 // South
	}
	return *s.Azimuth
}

func (s AppConfigSolarForecast) GetCacheTtlMinutes() int {
	if s.CacheTtlMinutes == nil {
		return 30
	}
	return *s.CacheTtlMinutes
}

type AppConfigGui struct {
	// Timezone for displaying times in the GUI, default: UTC
	Timezone *string `mapstructure:"timezone"`
}

func (g AppConfigGui) GetTimezone() string {
	if g.Timezone == nil {
		return "UTC"
	}
	return *g.Timezone
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return "JSON"
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return "TEXT"
	}
	return "JSON"
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api           AppConfigApi
	Database      AppConfigDatabase
	HomeAssistant AppConfigHomeAssistant `mapstructure:"home_assistant"`
	Mqtt          AppConfigMqtt
	Tariff        AppConfigTariff
	TargetSoc     AppConfigTargetSoc `mapstructure:"target_soc"`
	Battery       AppConfigBattery
	Sensors       AppConfigSensors
	Loads         []AppConfigLoad
	Balance       AppConfigBalance
	Refresh       AppConfigRefresh
	Alerts        AppConfigAlerts
	PriceForecast AppConfigPriceForecast `mapstructure:"price_forecast"`
	SolarForecast AppConfigSolarForecast `mapstructure:"solar_forecast"`
	Gui           AppConfigGui
	Logging       AppConfigLogging
}

// Validate reports non-fatal configuration problems. The engine clamps
// its way around all of them, but they are worth a warning at startup.
func (c *AppConfig) Validate() []string {
	var warnings []string

	if c.TargetSoc.AlwaysChargeBelow >= c.TargetSoc.NeverChargeAbove {
		warnings = append(warnings, fmt.Sprintf(
			"target_soc thresholds are not ordered (always_charge_below=%.3f >= never_charge_above=%.3f), price interpolation degenerates to a step",
			c.TargetSoc.AlwaysChargeBelow, c.TargetSoc.NeverChargeAbove))
	}
	if c.TargetSoc.MinSoc < 0 || c.TargetSoc.MinSoc > 100 {
		warnings = append(warnings, fmt.Sprintf("target_soc.min_soc %.1f outside [0,100]", c.TargetSoc.MinSoc))
	}
	for _, l := range c.Loads {
		switch l.Priority {
		case "essential", "comfort", "accessory":
		default:
			warnings = append(warnings, fmt.Sprintf("load %q has unknown priority %q, treated as essential (never shed)", l.Id, l.Priority))
		}
	}

	return warnings
}

func Load(path string) (*AppConfig, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// Watch re-reads the config file on every write and hands the new config
// to onChange. Errors keep the previous config in effect.
func Watch(logger *slog.Logger, onChange func(*AppConfig)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&fsnotify.Write != fsnotify.Write {
			return
		}
		var c AppConfig
		if err := viper.Unmarshal(&c); err != nil {
			logger.Error("config reload failed, keeping previous config", slog.Any("error", err))
			return
		}
		for _, w := range c.Validate() {
			logger.Warn("config warning", slog.String("warning", w))
		}
		logger.Info("config reloaded", slog.String("file", e.Name))
		onChange(&c)
	})
	viper.WatchConfig()
}

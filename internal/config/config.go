package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"invictus2obc/internal/app/errors"
)

// Config is the root, mutable-on-reload application configuration.
// Everything under Mission is immutable for the duration of a mission once
// the HSM has been handed its *Mission (§3); a reload builds a new Config
// rather than mutating that one.
type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Sampling struct {
		HydraMS int `yaml:"hydra_ms"`
		LiftMS  int `yaml:"lift_ms"`
	} `yaml:"sampling"`

	FieldBus FieldBus `yaml:"field_bus"`
	Radio    Radio    `yaml:"radio"`
	Mission  Mission  `yaml:"mission"`
}

// FieldBus carries the RS-485 transport parameters exposed by spec §6.
// Everything else about the bus is opaque (consumed through BusClient).
type FieldBus struct {
	UnitIDs struct {
		UpperFeedHydra   uint8 `yaml:"upper_feed_hydra"`
		LowerFeedHydra   uint8 `yaml:"lower_feed_hydra"`
		FillStationHydra uint8 `yaml:"fill_station_hydra"`
		RocketLift       uint8 `yaml:"rocket_lift"`
		FillStationLift  uint8 `yaml:"fill_station_lift"`
	} `yaml:"unit_ids"`

	RegisterBase map[string]uint16 `yaml:"register_base"`
	Coils        map[string]uint16 `yaml:"coils"`

	Timeout time.Duration `yaml:"timeout"`
}

// Radio carries ground-link identity; packet framing itself is fixed (§6).
type Radio struct {
	SenderID uint8  `yaml:"sender_id"`
	GroundID uint8  `yaml:"ground_id"`
	Backend  string `yaml:"backend"` // "modem" or "mqtt" (bench link, see internal/radio/mqttlink)
	Broker   string `yaml:"broker"`  // only used when Backend == "mqtt"
}

// Mission is MissionConfig (§3): immutable hysteresis/guard thresholds
// supplied at init and shared read-only by the HSM's three sub-machines.
type Mission struct {
	SafePause struct {
		TargetN2O  uint16 `yaml:"target_n2o"`
		TriggerN2O uint16 `yaml:"trigger_n2o"`
	} `yaml:"safe_pause"`

	FillN2 struct {
		TargetN2  uint16 `yaml:"target_n2"`
		TriggerN2 uint16 `yaml:"trigger_n2"`
	} `yaml:"fill_n2"`

	PrePress struct {
		TargetN2O  uint16 `yaml:"target_n2o"`
		TriggerN2O uint16 `yaml:"trigger_n2o"`
	} `yaml:"pre_press"`

	FillN2O struct {
		TargetWeight       uint32 `yaml:"target_weight"`
		TargetPressure     uint16 `yaml:"target_pressure"`
		TriggerPressure    uint16 `yaml:"trigger_pressure"`
		TriggerTemperature int16  `yaml:"trigger_temperature"`
	} `yaml:"fill_n2o"`

	PostPress struct {
		TargetN2O  uint16 `yaml:"target_n2o"`
		TriggerN2O uint16 `yaml:"trigger_n2o"`
	} `yaml:"post_press"`

	Flight struct {
		MinChamberLaunchTemp    int16 `yaml:"min_chamber_launch_temp"`
		BoostVerticalSpeed      int32 `yaml:"boost_vertical_speed"`
		CoastVerticalSpeed      int32 `yaml:"coast_vertical_speed"`
		MainChuteDeployAltitude int32 `yaml:"main_chute_deploy_altitude"`
		TouchdownAltitude       int32 `yaml:"touchdown_altitude"`
		BoostTimeMs             int64 `yaml:"boost_time_ms"`
	} `yaml:"flight"`

	Abort struct {
		PressurizingDelay time.Duration `yaml:"pressurizing_delay"`
	} `yaml:"abort"`
}

// DefaultConfig returns the configuration used when no obc.yaml is present.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Logging.Level = LogLevel
	cfg.Logging.Format = LogFormat

	cfg.Sampling.HydraMS = HydraSampleMS
	cfg.Sampling.LiftMS = LiftSampleMS

	cfg.FieldBus.UnitIDs.UpperFeedHydra = 1
	cfg.FieldBus.UnitIDs.LowerFeedHydra = 2
	cfg.FieldBus.UnitIDs.FillStationHydra = 3
	cfg.FieldBus.UnitIDs.RocketLift = 4
	cfg.FieldBus.UnitIDs.FillStationLift = 5
	cfg.FieldBus.Timeout = BusTimeout

	cfg.FieldBus.RegisterBase = map[string]uint16{
		"upper_feed_hydra":   0,
		"lower_feed_hydra":   0,
		"fill_station_hydra": 0,
		"rocket_lift":        0,
		"fill_station_lift":  0,
	}

	cfg.FieldBus.Coils = map[string]uint16{
		"pressurizing": 0,
		"vent":         1,
		"abort":        2,
		"main":         3,
		"n2o_fill":     4,
		"n2o_purge":    5,
		"n2_fill":      6,
		"n2_purge":     7,
		"n2o_qd":       8,
		"n2_qd":        9,
		"ignition":     10,
		"drogue":       11,
		"main_chute":   12,
	}

	cfg.Radio.SenderID = 1
	cfg.Radio.GroundID = 0
	cfg.Radio.Backend = "modem"

	cfg.Mission.Abort.PressurizingDelay = AbortPressurizingDelay

	return cfg
}

// Load reads obc.yaml (if present) over the defaults, validates, and
// returns a read-only *Config. A missing file is not an error — the
// defaults are used, mirroring the teacher's tolerant Load().
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, errors.ErrFailedToReadConfig
	}

	return LoadBytes(data, cfg)
}

// LoadBytes unmarshals YAML bytes over the supplied base config and
// validates the result. Exposed separately so the config watcher can
// reload without re-reading defaults from scratch.
func LoadBytes(data []byte, base *Config) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.ErrFailedToReadConfig
	}

	// viper decodes via mapstructure, which reads "mapstructure" tags by
	// default; point it at the yaml tags so snake_case keys reach fields.
	if err := v.Unmarshal(base, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, errors.ErrFailedToParseConfig
	}

	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}

	return base, nil
}

// Validate enforces the boot-time invariants of §7: overlapping or zero
// field-bus unit IDs and non-positive sample periods are fatal.
func (c *Config) Validate() error {
	if err := c.validateUnitIDs(); err != nil {
		return err
	}

	if c.Sampling.HydraMS <= 0 || c.Sampling.LiftMS <= 0 {
		return errors.ErrInvalidSampleRate
	}

	if c.Mission.Abort.PressurizingDelay < 0 {
		return errors.ErrInvalidAbortDelay
	}

	return nil
}

// validateUnitIDs ensures every field-bus slave id is distinct and non-zero.
func (c *Config) validateUnitIDs() error {
	ids := []uint8{
		c.FieldBus.UnitIDs.UpperFeedHydra,
		c.FieldBus.UnitIDs.LowerFeedHydra,
		c.FieldBus.UnitIDs.FillStationHydra,
		c.FieldBus.UnitIDs.RocketLift,
		c.FieldBus.UnitIDs.FillStationLift,
	}

	seen := make(map[uint8]bool, len(ids))

	for _, id := range ids {
		if id == 0 || seen[id] {
			return errors.ErrDuplicateUnitID
		}

		seen[id] = true
	}

	return nil
}

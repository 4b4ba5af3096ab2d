package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"navsense/adns"
	"navsense/core"
	"navsense/host/serial"
	"navsense/host/stream"
	"navsense/unit"
)

const DefaultAppName = "navsense"
const DefaultConfigName = "config"
const DefaultDevice = "/dev/ttyACM0"
const DefaultSPIBus = "/dev/spidev0.0"
const DefaultSPIRate = 2000000
const DefaultSampleInterval = 10 * time.Millisecond

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config/"+DefaultAppName+"/"+DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"

type SPIOpt struct {
	Bus        string `yaml:"bus" mapstructure:"bus"`
	Rate       uint32 `yaml:"rate" mapstructure:"rate"`
	ChipSelect uint32 `yaml:"chip_select" mapstructure:"chip_select"`
	MotionPin  int    `yaml:"motion_pin" mapstructure:"motion_pin"` // -1 polls instead
}

type SensorOpt struct {
	Resolution    uint16 `yaml:"resolution" mapstructure:"resolution"`
	MinSampleRate uint32 `yaml:"min_sample_rate" mapstructure:"min_sample_rate"`
	Burst         bool   `yaml:"burst" mapstructure:"burst"`
	Sleep         string `yaml:"sleep" mapstructure:"sleep"`
	LiftThreshold uint8  `yaml:"lift_threshold" mapstructure:"lift_threshold"`
	Firmware      string `yaml:"firmware" mapstructure:"firmware"`
	FirmwareID    uint8  `yaml:"firmware_id" mapstructure:"firmware_id"`
}

type UnitOpt struct {
	Distance string `yaml:"distance" mapstructure:"distance"`
	Time     string `yaml:"time" mapstructure:"time"`
}

type UnitsOpt struct {
	Position     UnitOpt `yaml:"position" mapstructure:"position"`
	Displacement UnitOpt `yaml:"displacement" mapstructure:"displacement"`
	Velocity     UnitOpt `yaml:"velocity" mapstructure:"velocity"`
}

type NavSenseOpt struct {
	Serial         serial.Config `yaml:"serial" mapstructure:"serial"`
	SPI            SPIOpt        `yaml:"spi" mapstructure:"spi"`
	Sensor         SensorOpt     `yaml:"sensor" mapstructure:"sensor"`
	Units          UnitsOpt      `yaml:"units" mapstructure:"units"`
	SampleInterval time.Duration `yaml:"sample_interval" mapstructure:"sample_interval"`
	Debug          bool          `yaml:"debug" mapstructure:"debug"`
}

type NavSenseDesc struct {
	Opt   NavSenseOpt
	Viper *viper.Viper
}

func NewNavSenseDesc() NavSenseDesc {
	return NavSenseDesc{
		Opt:   NewNavSenseOpt(),
		Viper: nil,
	}
}

func defaultUnit() UnitOpt {
	return UnitOpt{Distance: unit.Default.Distance.String(), Time: unit.Default.Time.String()}
}

func NewNavSenseOpt() NavSenseOpt {
	return NavSenseOpt{
		Serial: serial.DefaultConfig(DefaultDevice),
		SPI: SPIOpt{
			Bus:        DefaultSPIBus,
			Rate:       DefaultSPIRate,
			ChipSelect: 8,
			MotionPin:  25,
		},
		Sensor: SensorOpt{
			Resolution:    adns.DefaultResolution,
			MinSampleRate: adns.DefaultMinSampleRate,
			Burst:         true,
			Sleep:         "disabled",
		},
		Units: UnitsOpt{
			Position:     defaultUnit(),
			Displacement: defaultUnit(),
			Velocity:     defaultUnit(),
		},
		SampleInterval: DefaultSampleInterval,
		Debug:          false,
	}
}

func setDefaults(v *viper.Viper, opt NavSenseOpt) {
	v.SetDefault("serial.device", opt.Serial.Device)
	v.SetDefault("serial.baud", opt.Serial.Baud)
	v.SetDefault("serial.read_timeout", opt.Serial.ReadTimeout)
	v.SetDefault("spi.bus", opt.SPI.Bus)
	v.SetDefault("spi.rate", opt.SPI.Rate)
	v.SetDefault("spi.chip_select", opt.SPI.ChipSelect)
	v.SetDefault("spi.motion_pin", opt.SPI.MotionPin)
	v.SetDefault("sensor.resolution", opt.Sensor.Resolution)
	v.SetDefault("sensor.min_sample_rate", opt.Sensor.MinSampleRate)
	v.SetDefault("sensor.burst", opt.Sensor.Burst)
	v.SetDefault("sensor.sleep", opt.Sensor.Sleep)
	v.SetDefault("sensor.lift_threshold", opt.Sensor.LiftThreshold)
	v.SetDefault("sensor.firmware", opt.Sensor.Firmware)
	v.SetDefault("sensor.firmware_id", opt.Sensor.FirmwareID)
	for q, u := range map[string]UnitOpt{
		"position":     opt.Units.Position,
		"displacement": opt.Units.Displacement,
		"velocity":     opt.Units.Velocity,
	} {
		v.SetDefault("units."+q+".distance", u.Distance)
		v.SetDefault("units."+q+".time", u.Time)
	}
	v.SetDefault("sample_interval", opt.SampleInterval)
	v.SetDefault("debug", opt.Debug)
}

// Parse loads the configuration from, in order of precedence, command line
// flags, NAVSENSE_* environment variables and the config file.
func (o *NavSenseDesc) Parse(cmd *cobra.Command) error {
	vipCfg := viper.New()
	setDefaults(vipCfg, NewNavSenseOpt())

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else {
		configFileEnv := os.Getenv("NAVSENSE_CONFIG")
		if configFileEnv != "" {
			vipCfg.SetConfigFile(configFileEnv)
		} else {
			vipCfg.SetConfigName(DefaultConfigName)
			vipCfg.SetConfigType("yaml")
			vipCfg.AddConfigPath(DefaultConfigSearchPath0)
			vipCfg.AddConfigPath(DefaultConfigSearchPath1)
			vipCfg.AddConfigPath(DefaultConfigSearchPath2)
		}
	}

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	bind := func(key, flag string) {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = vipCfg.BindPFlag(key, f)
		}
	}
	bind("serial.device", "device")
	bind("spi.bus", "spi-bus")
	bind("sensor.resolution", "resolution")
	bind("sample_interval", "interval")
	bind("debug", "debug")

	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
		log.Debugln(err)
	}

	if err := vipCfg.Unmarshal(&o.Opt); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	o.Viper = vipCfg
	return nil
}

// PostParse applies the log level and routes core debug output to logrus
func (o *NavSenseDesc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
		core.SetDebugWriter(func(s string) { log.Debugln(s) })
		core.SetDebugEnabled(true)
	} else {
		log.SetLevel(log.InfoLevel)
		core.SetDebugEnabled(false)
	}
}

// ResolveUnits parses the configured unit names
func (o *NavSenseOpt) ResolveUnits() (stream.Units, error) {
	var u stream.Units
	var err error
	if u.Position, err = o.Units.Position.resolve(); err != nil {
		return u, fmt.Errorf("units.position: %w", err)
	}
	if u.Displacement, err = o.Units.Displacement.resolve(); err != nil {
		return u, fmt.Errorf("units.displacement: %w", err)
	}
	if u.Velocity, err = o.Units.Velocity.resolve(); err != nil {
		return u, fmt.Errorf("units.velocity: %w", err)
	}
	return u, nil
}

func (u UnitOpt) resolve() (unit.Spec, error) {
	d, err := unit.ParseDistance(u.Distance)
	if err != nil {
		return unit.Spec{}, err
	}
	t, err := unit.ParseTime(u.Time)
	if err != nil {
		return unit.Spec{}, err
	}
	return unit.Spec{Distance: d, Time: t}, nil
}

// SleepPolicy maps the sleep setting to the driver's policy
func (o *SensorOpt) SleepPolicy() (adns.SleepPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(o.Sleep)) {
	case "", "disabled", "off":
		return adns.SleepDisabled, nil
	case "delayed":
		return adns.SleepDelayed, nil
	case "enabled", "on":
		return adns.SleepEnabled, nil
	}
	return 0, fmt.Errorf("unknown sleep policy %q", o.Sleep)
}

// LoadFirmware reads the SROM image named by the firmware setting, or
// returns nil when none is configured.
func (o *SensorOpt) LoadFirmware() (*adns.Firmware, error) {
	if o.Firmware == "" {
		return nil, nil
	}
	image, err := os.ReadFile(o.Firmware)
	if err != nil {
		return nil, fmt.Errorf("read firmware: %w", err)
	}
	return &adns.Firmware{Image: image, ID: o.FirmwareID}, nil
}

// InitCfg writes or prints a configuration template
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	desc := NewNavSenseDesc()
	if err := desc.Parse(cmd); err != nil {
		log.Errorln(err)
		return err
	}

	if printFlag {
		configBuffer, err := yaml.Marshal(desc.Opt)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(configBuffer))
		return nil
	}
	return DumpOption(desc.Opt, outputPath, overwriteFlag)
}

package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/physic"

	"github.com/tigerbot-team/helirig/pkg/command"
	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
	"github.com/tigerbot-team/helirig/pkg/landing"
	"github.com/tigerbot-team/helirig/pkg/pidctl"
)

const (
	DefaultPath  = "/cfg/helirig.yaml"
	InUsePath    = "/cfg/helirig-in-use.yaml"
	maxSetpoints = 100
)

type Config struct {
	// ControlRateHz is the rate of the periodic control context.
	ControlRateHz int `yaml:"control_rate_hz"`
	// CycleInterval is the foreground state machine period.
	CycleInterval time.Duration `yaml:"cycle_interval"`

	HeightIncrement int `yaml:"height_increment"`
	YawIncrement    int `yaml:"yaw_increment"`
	HeightSeed      int `yaml:"height_seed"`
	SpinUpDuty      int `yaml:"spin_up_duty"`

	YawTolerance    int `yaml:"yaw_tolerance"`
	HeightTolerance int `yaml:"height_tolerance"`

	DescentInterval time.Duration `yaml:"descent_interval"`
	LandingTimeout  time.Duration `yaml:"landing_timeout"`

	YawGains    pidctl.Gains `yaml:"yaw_gains"`
	HeightGains pidctl.Gains `yaml:"height_gains"`

	SerialPort     string        `yaml:"serial_port"`
	SerialBaud     int           `yaml:"serial_baud"`
	TelemetryAddr  string        `yaml:"telemetry_addr"`
	TelemetryEvery time.Duration `yaml:"telemetry_every"`
	ScreenDevice   string        `yaml:"screen_device"`
	JoystickDevice string        `yaml:"joystick_device"`
	SoundsDir      string        `yaml:"sounds_dir"`
}

func Default() Config {
	fc := flightcontroller.DefaultConfig
	return Config{
		ControlRateHz:   200,
		CycleInterval:   20 * time.Millisecond,
		HeightIncrement: fc.Command.HeightIncrement,
		YawIncrement:    fc.Command.YawIncrement,
		HeightSeed:      fc.Command.HeightSeed,
		SpinUpDuty:      fc.SpinUpDuty,
		YawTolerance:    fc.YawTolerance,
		HeightTolerance: fc.HeightTolerance,
		DescentInterval: fc.Landing.DescentInterval,
		LandingTimeout:  fc.Landing.Timeout,
		YawGains: pidctl.Gains{
			Kp:          0.6,
			Ki:          0.4,
			Kd:          0.02,
			MaxIntegral: 60,
			Offset:      30,
		},
		HeightGains: pidctl.Gains{
			Kp:          0.5,
			Ki:          0.8,
			Kd:          0.01,
			MaxIntegral: 40,
			Offset:      32,
		},
		SerialPort:     "/dev/ttyACM0",
		SerialBaud:     9600,
		TelemetryAddr:  ":8086",
		TelemetryEvery: 100 * time.Millisecond,
		ScreenDevice:   "/dev/fb1",
		JoystickDevice: "/dev/input/js0",
		SoundsDir:      "/sounds",
	}
}

// Load overlays the YAML file at path on the defaults.  A missing file just
// gives the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// WriteInUse records the effective config next to the input, so a run can be
// reproduced later.
func (c Config) WriteInUse(path string) error {
	raw, err := yaml.Marshal(&c)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return errors.Wrapf(os.WriteFile(path, raw, 0666), "writing %s", path)
}

func (c Config) Validate() error {
	switch {
	case c.ControlRateHz <= 0:
		return errors.Errorf("control_rate_hz must be positive, got %d", c.ControlRateHz)
	case c.CycleInterval <= 0:
		return errors.Errorf("cycle_interval must be positive, got %v", c.CycleInterval)
	case c.HeightIncrement <= 0 || c.HeightIncrement > maxSetpoints:
		return errors.Errorf("height_increment must be in 1..%d, got %d", maxSetpoints, c.HeightIncrement)
	case c.YawIncrement <= 0:
		return errors.Errorf("yaw_increment must be positive, got %d", c.YawIncrement)
	case c.SpinUpDuty < pidctl.MinDuty || c.SpinUpDuty > pidctl.MaxDuty:
		return errors.Errorf("spin_up_duty must be in %d..%d, got %d", pidctl.MinDuty, pidctl.MaxDuty, c.SpinUpDuty)
	case c.YawTolerance < 0 || c.HeightTolerance < 0:
		return errors.New("tolerances must not be negative")
	case c.DescentInterval <= 0 || c.LandingTimeout <= 0:
		return errors.New("descent_interval and landing_timeout must be positive")
	}
	if c.CycleInterval < c.ControlRate().Period() {
		return errors.Errorf("cycle_interval %v is shorter than the control period %v", c.CycleInterval, c.ControlRate().Period())
	}
	return nil
}

func (c Config) ControlRate() physic.Frequency {
	return physic.Frequency(c.ControlRateHz) * physic.Hertz
}

func (c Config) FlightController() flightcontroller.Config {
	return flightcontroller.Config{
		SpinUpDuty:      c.SpinUpDuty,
		YawTolerance:    c.YawTolerance,
		HeightTolerance: c.HeightTolerance,
		Command: command.Config{
			HeightIncrement: c.HeightIncrement,
			YawIncrement:    c.YawIncrement,
			HeightSeed:      c.HeightSeed,
		},
		Landing: landing.Config{
			DescentInterval: c.DescentInterval,
			Timeout:         c.LandingTimeout,
		},
	}
}

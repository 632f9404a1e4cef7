// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sweep

import (
	"time"

	"github.com/aamcrae/config"
	"github.com/pkg/errors"

	"github.com/aamcrae/sonar/pwm"
)

// Sweep holds the sweep range in duty cycle ticks and the settle time
// in milliseconds after each step.
type Sweep struct {
	Low     uint32
	High    uint32
	Step    uint32
	Settle  uint32
	Discard bool // Ping twice per step, discarding the first reading
}

// DefaultSweep covers 0 to 180 degrees in steps of about 2.3 degrees.
var DefaultSweep = Sweep{Low: pwm.MinDuty, High: pwm.MaxDuty, Step: 40, Settle: 20}

// Validate checks the sweep range.
func (s Sweep) Validate() error {
	if s.Step == 0 {
		return errors.New("sweep: zero step")
	}
	if s.Low > s.High {
		return errors.Errorf("sweep: low %d above high %d", s.Low, s.High)
	}
	if s.High >= 1<<31 {
		return errors.Errorf("sweep: high %d out of range", s.High)
	}
	return nil
}

// Config is the complete configuration, read from a configuration file.
type Config struct {
	Sweep       Sweep
	Calibration pwm.Calibration
	Period      uint32        // PWM period in ticks
	Start       uint32        // Duty at power on
	Tick        time.Duration // PWM counter tick
	PwmUnit     int           // sysfs PWM unit, used when ServoGpio is negative
	ServoGpio   int           // GPIO for software PWM
	Trigger     int           // Trigger output GPIO
	Echo        int           // Echo input GPIO
	EchoLimit   uint32        // Maximum echo width in microseconds, 0 for none
	Device      string        // Serial device
	Baud        int
}

// Default returns the configuration matching the original board.
func Default() *Config {
	return &Config{
		Sweep:       DefaultSweep,
		Calibration: pwm.DefaultCalibration,
		Period:      pwm.Period,
		Start:       pwm.MinDuty,
		Tick:        320 * time.Nanosecond,
		PwmUnit:     0,
		ServoGpio:   -1,
		Trigger:     2,
		Echo:        3,
		Device:      "/dev/ttyAMA0",
		Baud:        115200,
	}
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	if err := c.Sweep.Validate(); err != nil {
		return err
	}
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	if c.Start >= c.Period {
		return errors.Errorf("servo: start duty %d must be less than period %d", c.Start, c.Period)
	}
	if c.Sweep.High >= c.Period {
		return errors.Errorf("sweep: high %d must be less than period %d", c.Sweep.High, c.Period)
	}
	if c.Tick <= 0 {
		return errors.Errorf("servo: invalid tick %s", c.Tick)
	}
	if c.Trigger < 0 || c.Echo < 0 {
		return errors.New("ranging: trigger and echo gpios are required")
	}
	if c.Trigger == c.Echo || c.Trigger == c.ServoGpio || c.Echo == c.ServoGpio {
		return errors.New("gpio assigned twice")
	}
	if c.Baud <= 0 {
		return errors.Errorf("serial: invalid baud rate %d", c.Baud)
	}
	return nil
}

// ReadConfig reads the configuration sections over the defaults.
// Missing sections and keys keep their default values.
func ReadConfig(conf *config.Config) (*Config, error) {
	c := Default()
	if s := conf.GetSection("sweep"); s != nil {
		if err := parse(s, "range", "%d,%d,%d", &c.Sweep.Low, &c.Sweep.High, &c.Sweep.Step); err != nil {
			return nil, err
		}
		if err := parse(s, "settle", "%d", &c.Sweep.Settle); err != nil {
			return nil, err
		}
		if err := parse(s, "discard", "%t", &c.Sweep.Discard); err != nil {
			return nil, err
		}
	}
	if s := conf.GetSection("servo"); s != nil {
		if err := parse(s, "period", "%d", &c.Period); err != nil {
			return nil, err
		}
		if err := parse(s, "start", "%d", &c.Start); err != nil {
			return nil, err
		}
		if err := parse(s, "calibration", "%d,%d,%d", &c.Calibration.Offset, &c.Calibration.Full, &c.Calibration.MaxAngle); err != nil {
			return nil, err
		}
		if err := parse(s, "pwm", "%d", &c.PwmUnit); err != nil {
			return nil, err
		}
		if err := parse(s, "gpio", "%d", &c.ServoGpio); err != nil {
			return nil, err
		}
		if t, err := s.GetArg("tick"); err == nil {
			c.Tick, err = time.ParseDuration(t)
			if err != nil {
				return nil, errors.Wrap(err, "tick")
			}
		}
	}
	if s := conf.GetSection("ranging"); s != nil {
		if err := parse(s, "gpio", "%d,%d", &c.Trigger, &c.Echo); err != nil {
			return nil, err
		}
		if err := parse(s, "echo_limit", "%d", &c.EchoLimit); err != nil {
			return nil, err
		}
	}
	if s := conf.GetSection("serial"); s != nil {
		if d, err := s.GetArg("device"); err == nil {
			c.Device = d
		}
		if err := parse(s, "baud", "%d", &c.Baud); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// parse scans an optional key, requiring every argument to be present.
func parse(s *config.Section, key, format string, args ...interface{}) error {
	if _, err := s.GetArg(key); err != nil {
		return nil
	}
	n, err := s.Parse(key, format, args...)
	if err != nil {
		return errors.Wrap(err, key)
	}
	if n != len(args) {
		return errors.Errorf("%s: argument count", key)
	}
	return nil
}

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

// Package pwm drives the servo command pulse.

package pwm

import (
	"github.com/pkg/errors"
)

// Default timing, in ticks of a 3.125 MHz PWM clock.
const (
	Period    = 62500 // 20ms
	MinDuty   = 3125  // 1ms pulse, 0 degrees
	MaxDuty   = 6250  // 2ms pulse, 180 degrees
	FullAngle = 180
)

// ErrDutyRange is returned by Configure when the duty does not fit the period.
var ErrDutyRange = errors.New("pwm: duty cycle must be less than period")

// Counter is a hardware counter generating a periodic output.
// Period and High are in counter ticks. A new high time takes
// effect at the start of the next period.
type Counter interface {
	Period(ticks uint32) error
	High(ticks uint32) error
	Enable() error
}

// Driver controls a single pulse-width output.
type Driver struct {
	counter Counter
}

// New creates a Driver on the counter.
func New(c Counter) *Driver {
	return &Driver{counter: c}
}

// Configure sets the period and initial high time and enables the output.
// If duty is not less than period, the counter is left untouched.
func (d *Driver) Configure(period, duty uint32) error {
	if duty >= period {
		return errors.Wrapf(ErrDutyRange, "period %d, duty %d", period, duty)
	}
	if err := d.counter.Period(period); err != nil {
		return errors.Wrap(err, "pwm: period")
	}
	if err := d.counter.High(duty); err != nil {
		return errors.Wrap(err, "pwm: duty")
	}
	return errors.Wrap(d.counter.Enable(), "pwm: enable")
}

// SetDuty updates the high time only. The caller is responsible
// for keeping duty within the configured period.
func (d *Driver) SetDuty(duty uint32) error {
	return d.counter.High(duty)
}

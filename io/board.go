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

package io

import (
	"time"

	gpio "github.com/aamcrae/gpio"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Counter is a PWM counter that can be released.
type Counter interface {
	Period(ticks uint32) error
	High(ticks uint32) error
	Enable() error
	Close() error
}

// Board holds the pins and PWM counter of the sonar.
type Board struct {
	Trigger Setter
	Echo    Getter
	Servo   Counter
	closers []func() error
}

// OpenBoard opens the trigger and echo GPIOs.
func OpenBoard(trigger, echo int) (*Board, error) {
	b := new(Board)
	t, err := gpio.OutputPin(trigger)
	if err != nil {
		return nil, errors.Wrapf(err, "trigger gpio %d", trigger)
	}
	b.add(t.Close)
	b.Trigger = t
	e, err := gpio.Pin(echo)
	if err != nil {
		return nil, multierr.Append(errors.Wrapf(err, "echo gpio %d", echo), b.Close())
	}
	b.add(e.Close)
	b.Echo = e
	return b, nil
}

// OpenServo opens the servo PWM counter with the given tick.
// If servoGpio is negative the sysfs PWM unit is used,
// otherwise a software PWM on that GPIO.
func (b *Board) OpenServo(servoGpio, pwmUnit int, tick time.Duration) error {
	if b.Servo != nil {
		return errors.New("servo already open")
	}
	if servoGpio < 0 {
		p, err := NewHwPWM(pwmUnit, tick)
		if err != nil {
			return err
		}
		b.Servo = p
		return nil
	}
	s, err := gpio.OutputPin(servoGpio)
	if err != nil {
		return errors.Wrapf(err, "servo gpio %d", servoGpio)
	}
	b.add(s.Close)
	b.Servo = NewSwPWM(s, tick)
	return nil
}

func (b *Board) add(f func()) {
	b.closers = append(b.closers, func() error {
		f()
		return nil
	})
}

// Close stops the servo output and releases all pins.
func (b *Board) Close() error {
	var err error
	if b.Servo != nil {
		err = multierr.Append(err, b.Servo.Close())
		b.Servo = nil
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i]())
	}
	b.closers = nil
	return err
}

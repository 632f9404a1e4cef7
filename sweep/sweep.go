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

// Package sweep runs the servo back and forth across its range,
// ranging at each step and reporting angle and distance.

package sweep

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/pwm"
	"github.com/aamcrae/sonar/ranging"
)

// Servo accepts a commanded duty cycle.
type Servo interface {
	SetDuty(uint32) error
}

// Ranger takes one distance measurement.
type Ranger interface {
	Measure() (ranging.Reading, error)
}

// Printer reports one angle and distance.
type Printer interface {
	PrintAngle(angle, distance uint32) error
}

// Recorder receives every reading along with its angle.
type Recorder interface {
	Record(angle uint32, r ranging.Reading)
}

// Delay blocks for a number of milliseconds.
type Delay interface {
	Milliseconds(uint32)
}

// Sweeper owns the sweep position.
type Sweeper struct {
	cfg      Sweep
	cal      pwm.Calibration
	servo    Servo
	ranger   Ranger
	printer  Printer
	delay    Delay
	recorder Recorder
	log      *zap.SugaredLogger
	Steps    int // Number of completed steps
	Timeouts int // Number of pings with no echo
}

// New creates a Sweeper. The recorder may be nil.
func New(cfg Sweep, cal pwm.Calibration, servo Servo, ranger Ranger, printer Printer, delay Delay, recorder Recorder, log *zap.SugaredLogger) (*Sweeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sweeper{
		cfg:      cfg,
		cal:      cal,
		servo:    servo,
		ranger:   ranger,
		printer:  printer,
		delay:    delay,
		recorder: recorder,
		log:      log,
	}, nil
}

// Positions returns the duty values visited on one pass, upwards
// from Low when up is true, otherwise downwards from High.
func (s *Sweeper) Positions(up bool) []uint32 {
	c := s.cfg
	var p []uint32
	if up {
		for d := c.Low; d <= c.High; d += c.Step {
			p = append(p, d)
		}
	} else {
		for d := c.High; d >= c.Low; d -= c.Step {
			p = append(p, d)
			if d < c.Step {
				break
			}
		}
	}
	return p
}

// Step moves the servo to duty, ranges and reports the result.
func (s *Sweeper) Step(duty uint32) error {
	if err := s.servo.SetDuty(duty); err != nil {
		return errors.Wrapf(err, "sweep: duty %d", duty)
	}
	angle := s.cal.Angle(duty)
	if s.cfg.Discard {
		// The first ping after a move is thrown away.
		if _, err := s.ranger.Measure(); err != nil {
			return errors.Wrapf(err, "sweep: angle %d", angle)
		}
	}
	r, err := s.ranger.Measure()
	if err != nil {
		return errors.Wrapf(err, "sweep: angle %d", angle)
	}
	if r.TimedOut {
		s.Timeouts++
		s.log.Debugf("sweep: no echo at %d degrees", angle)
	}
	if err := s.printer.PrintAngle(angle, r.Centimeters()); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.Record(angle, r)
	}
	s.Steps++
	s.delay.Milliseconds(s.cfg.Settle)
	return nil
}

// Pass runs one pass across the range. The context is checked between steps.
func (s *Sweeper) Pass(ctx context.Context, up bool) error {
	for _, d := range s.Positions(up) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(d); err != nil {
			return err
		}
	}
	return nil
}

// Run sweeps up and down until the context is cancelled or a step fails.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Infof("sweep: duty %d to %d step %d, settle %dms", s.cfg.Low, s.cfg.High, s.cfg.Step, s.cfg.Settle)
	for pass := 0; ; pass++ {
		if err := s.Pass(ctx, true); err != nil {
			return err
		}
		if err := s.Pass(ctx, false); err != nil {
			return err
		}
		s.log.Debugf("sweep: pass %d complete, %d steps, %d timeouts", pass, s.Steps, s.Timeouts)
	}
}

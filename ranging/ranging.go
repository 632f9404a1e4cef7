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

// Package ranging drives an ultrasonic echo rangefinder by polling.

package ranging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	TriggerWidth   = 10   // Trigger pulse width in microseconds
	RiseTimeout    = 5000 // Microseconds to wait for the echo to start
	UsPerCm        = 58   // Round trip microseconds per centimetre
	NoEchoDistance = 100  // Distance reported when there is no echo
)

// ErrEchoStuck is returned when the echo stays high past the echo limit.
var ErrEchoStuck = errors.New("ranging: echo did not fall")

// Trigger is the output pin that starts a ping.
type Trigger interface {
	Set(int) error
}

// Echo is the input pin carrying the echo pulse.
type Echo interface {
	Get() (int, error)
}

// Delay blocks for a number of microseconds.
type Delay interface {
	Microseconds(uint32)
}

// Reading is the result of one ping.
type Reading struct {
	Elapsed  uint32 // Microseconds from the end of the trigger to the end of the echo
	Width    uint32 // Echo pulse width in microseconds
	Distance uint32 // Centimetres
	TimedOut bool   // No echo was seen
}

// Centimeters returns the distance, or NoEchoDistance if the ping timed out.
func (r Reading) Centimeters() uint32 {
	if r.TimedOut {
		return NoEchoDistance
	}
	return r.Distance
}

// Sensor is an ultrasonic rangefinder with separate trigger and echo pins.
type Sensor struct {
	trigger   Trigger
	echo      Echo
	delay     Delay
	log       *zap.SugaredLogger
	echoLimit uint32 // Maximum echo width in microseconds, 0 for no limit
}

// New creates a Sensor. echoLimit bounds the time spent waiting for
// the echo to fall; 0 waits for as long as the echo stays high.
func New(trigger Trigger, echo Echo, delay Delay, echoLimit uint32, log *zap.SugaredLogger) *Sensor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sensor{
		trigger:   trigger,
		echo:      echo,
		delay:     delay,
		log:       log,
		echoLimit: echoLimit,
	}
}

// Init drives the trigger low so that the first ping has a clean edge.
func (s *Sensor) Init() error {
	return errors.Wrap(s.trigger.Set(0), "ranging: trigger low")
}

// Measure sends one ping and times the echo. The count runs through the
// wait for the echo to rise as well as the echo pulse itself, so the
// distance includes the sensor's latency.
func (s *Sensor) Measure() (Reading, error) {
	var r Reading
	if err := s.trigger.Set(1); err != nil {
		return r, errors.Wrap(err, "ranging: trigger high")
	}
	s.delay.Microseconds(TriggerWidth)
	if err := s.trigger.Set(0); err != nil {
		return r, errors.Wrap(err, "ranging: trigger low")
	}
	// One count per microsecond, from the trigger falling until the echo falls.
	for {
		v, err := s.echo.Get()
		if err != nil {
			return r, errors.Wrap(err, "ranging: echo")
		}
		if v != 0 {
			break
		}
		r.Elapsed++
		s.delay.Microseconds(1)
		if r.Elapsed > RiseTimeout {
			r.TimedOut = true
			s.log.Debugf("ranging: no echo after %dus", r.Elapsed)
			return r, nil
		}
	}
	for {
		v, err := s.echo.Get()
		if err != nil {
			return r, errors.Wrap(err, "ranging: echo")
		}
		if v == 0 {
			break
		}
		if s.echoLimit != 0 && r.Width >= s.echoLimit {
			return r, errors.Wrapf(ErrEchoStuck, "high for %dus", r.Width)
		}
		r.Elapsed++
		r.Width++
		s.delay.Microseconds(1)
	}
	r.Distance = r.Elapsed / UsPerCm
	return r, nil
}

// Distance sends one ping and returns the distance in centimetres,
// with NoEchoDistance standing in for a timed out ping.
func (s *Sensor) Distance() (uint32, error) {
	r, err := s.Measure()
	if err != nil {
		return 0, err
	}
	return r.Centimeters(), nil
}

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

// Package simulator provides a simulated servo and rangefinder board.
// Time on the board only moves when one of its delay methods is called,
// so measurements are exact and repeatable.
// A Board is not safe for concurrent use.

package simulator

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/aamcrae/sonar/pwm"
	"github.com/aamcrae/sonar/ranging"
)

// Scene returns the echo pulse width seen with the servo at angle,
// or false if nothing returns an echo.
type Scene func(angle uint32) (time.Duration, bool)

// EchoWidth is the echo pulse width for an object cm centimetres away.
func EchoWidth(cm uint32) time.Duration {
	return time.Duration(cm) * ranging.UsPerCm * time.Microsecond
}

// Wall is a scene with a single object at a fixed distance.
func Wall(cm uint32) Scene {
	return func(uint32) (time.Duration, bool) {
		return EchoWidth(cm), true
	}
}

// Empty is a scene that never returns an echo.
func Empty(uint32) (time.Duration, bool) {
	return 0, false
}

// Room is a rectangular room, width by depth centimetres, with the
// sensor at the middle of one wall. Anything further away than
// maxRange returns no echo.
func Room(width, depth, maxRange float64) Scene {
	return func(angle uint32) (time.Duration, bool) {
		r := float64(angle) * math.Pi / 180
		d := math.Inf(1)
		if c := math.Abs(math.Cos(r)); c > 1e-9 {
			d = (width / 2) / c
		}
		if s := math.Sin(r); s > 1e-9 {
			d = math.Min(d, depth/s)
		}
		if d > maxRange {
			return 0, false
		}
		return EchoWidth(uint32(d)), true
	}
}

// Board is a simulated board with a servo on a PWM counter and an
// ultrasonic rangefinder.
type Board struct {
	Trigger *TriggerPin
	Echo    *EchoPin
	Servo   *Counter
	Latency time.Duration // Delay from trigger to echo start
	Pace    bool          // Also sleep in real time for millisecond delays
	cal     pwm.Calibration
	scene   Scene
	now     time.Duration
	pings   int
	trigger int
	raised  time.Duration
	armed   bool
	rise    time.Duration
	fall    time.Duration
}

// NewBoard creates a simulated board. The calibration converts the
// servo's commanded duty into the angle passed to the scene.
func NewBoard(cal pwm.Calibration, scene Scene) *Board {
	b := &Board{cal: cal, scene: scene}
	b.Trigger = &TriggerPin{b}
	b.Echo = &EchoPin{b}
	b.Servo = &Counter{}
	return b
}

// Now returns the simulated time since the board was created.
func (b *Board) Now() time.Duration {
	return b.now
}

// Pings returns the number of trigger pulses seen.
func (b *Board) Pings() int {
	return b.pings
}

// Angle returns the angle currently commanded to the servo.
func (b *Board) Angle() uint32 {
	return b.cal.Angle(b.Servo.high)
}

// Microseconds advances simulated time.
func (b *Board) Microseconds(n uint32) {
	b.now += time.Duration(n) * time.Microsecond
}

// Milliseconds advances simulated time, sleeping as well if Pace is set.
func (b *Board) Milliseconds(n uint32) {
	d := time.Duration(n) * time.Millisecond
	b.now += d
	if b.Pace {
		time.Sleep(d)
	}
}

func (b *Board) setTrigger(v int) {
	if v == b.trigger {
		return
	}
	b.trigger = v
	if v == 1 {
		b.raised = b.now
		return
	}
	// Falling edge. The sensor ignores pulses shorter than the trigger width.
	b.pings++
	b.armed = false
	if b.now-b.raised < ranging.TriggerWidth*time.Microsecond {
		return
	}
	w, ok := b.scene(b.Angle())
	if !ok {
		return
	}
	b.armed = true
	b.rise = b.now + b.Latency
	b.fall = b.rise + w
}

// TriggerPin is the rangefinder trigger input.
type TriggerPin struct {
	b *Board
}

// Set drives the trigger.
func (t *TriggerPin) Set(v int) error {
	if v != 0 && v != 1 {
		return errors.Errorf("trigger: illegal value %d", v)
	}
	t.b.setTrigger(v)
	return nil
}

// EchoPin is the rangefinder echo output.
type EchoPin struct {
	b *Board
}

// Get returns 1 while the echo pulse is active.
func (e *EchoPin) Get() (int, error) {
	b := e.b
	if b.armed && b.now >= b.rise && b.now < b.fall {
		return 1, nil
	}
	return 0, nil
}

// Counter is a simulated PWM counter.
type Counter struct {
	period  uint32
	high    uint32
	enabled bool
	writes  int
}

func (c *Counter) Period(ticks uint32) error {
	c.period = ticks
	c.writes++
	return nil
}

func (c *Counter) High(ticks uint32) error {
	c.high = ticks
	c.writes++
	return nil
}

func (c *Counter) Enable() error {
	c.enabled = true
	c.writes++
	return nil
}

// State returns the counter period, high time and enable state.
func (c *Counter) State() (period, high uint32, enabled bool) {
	return c.period, c.high, c.enabled
}

// Writes returns the number of register writes made to the counter.
func (c *Counter) Writes() int {
	return c.writes
}

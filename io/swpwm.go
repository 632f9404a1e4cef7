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

	"github.com/pkg/errors"
)

type pwmMsg struct {
	period time.Duration
	high   time.Duration
	stop   chan bool
}

// SwPwm is a software PWM counter driving a GPIO output.
// Timing is only as good as the scheduler allows, which is
// adequate for hobby servos.
type SwPwm struct {
	pin     Setter
	tick    time.Duration
	period  time.Duration
	high    time.Duration
	enabled bool
	c       chan pwmMsg
}

// NewSwPWM creates a new software PWM counter on pin, with the given tick length.
func NewSwPWM(pin Setter, tick time.Duration) *SwPwm {
	p := new(SwPwm)
	p.pin = pin
	p.tick = tick
	p.c = make(chan pwmMsg, 1)
	return p
}

// Close stops the output.
func (p *SwPwm) Close() error {
	if p.enabled {
		sc := make(chan bool)
		p.c <- pwmMsg{stop: sc}
		<-sc
		p.enabled = false
	}
	return p.pin.Set(0)
}

// Period sets the period in ticks.
func (p *SwPwm) Period(ticks uint32) error {
	d := time.Duration(ticks) * p.tick
	if d <= 0 {
		return errors.Errorf("swpwm: invalid period %d", ticks)
	}
	p.period = d
	p.update()
	return nil
}

// High sets the high time in ticks. The change takes
// place at the end of the current period.
func (p *SwPwm) High(ticks uint32) error {
	p.high = time.Duration(ticks) * p.tick
	p.update()
	return nil
}

// Enable starts the output goroutine.
func (p *SwPwm) Enable() error {
	if p.period == 0 {
		return errors.New("swpwm: no period set")
	}
	if !p.enabled {
		p.enabled = true
		go p.handler(p.period, p.high)
	}
	return nil
}

// update replaces any pending, unapplied parameters with the latest.
func (p *SwPwm) update() {
	if !p.enabled {
		return
	}
	m := pwmMsg{period: p.period, high: p.high}
	for {
		select {
		case p.c <- m:
			return
		default:
		}
		select {
		case <-p.c:
		default:
		}
	}
}

// goroutine handler
// Runs the output, checking for new parameters after each period.
func (p *SwPwm) handler(period, high time.Duration) {
	on, off := split(period, high)
	current := 0
	p.pin.Set(0)
	for {
		if on != 0 {
			if current != 1 {
				p.pin.Set(1)
				current = 1
			}
			time.Sleep(on)
		}
		if off != 0 {
			if current != 0 {
				p.pin.Set(0)
				current = 0
			}
			time.Sleep(off)
		}
		select {
		case m := <-p.c:
			if m.stop != nil {
				m.stop <- true
				return
			}
			on, off = split(m.period, m.high)
		default:
		}
	}
}

func split(period, high time.Duration) (on, off time.Duration) {
	if high > period {
		high = period
	}
	return high, period - high
}

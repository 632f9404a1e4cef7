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

// Package timing provides the blocking delay primitive used by the drivers.
package timing

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Delayer blocks the caller for a number of microseconds or milliseconds.
type Delayer interface {
	Microseconds(n uint32)
	Milliseconds(n uint32)
}

// Busy is a Delayer that spins on a clock for microsecond delays.
// The scheduler cannot be trusted to wake a sleeping goroutine within
// a few microseconds, so short delays never yield.
type Busy struct {
	clk clock.Clock
}

// New creates a Busy delay using clk as the time base.
// A nil clock selects the real time clock.
func New(clk clock.Clock) *Busy {
	if clk == nil {
		clk = clock.New()
	}
	return &Busy{clk: clk}
}

// Microseconds spins until n microseconds have elapsed.
func (b *Busy) Microseconds(n uint32) {
	if n == 0 {
		return
	}
	end := b.clk.Now().Add(time.Duration(n) * time.Microsecond)
	for b.clk.Now().Before(end) {
	}
}

// Milliseconds sleeps for n milliseconds.
func (b *Busy) Milliseconds(n uint32) {
	if n == 0 {
		return
	}
	b.clk.Sleep(time.Duration(n) * time.Millisecond)
}

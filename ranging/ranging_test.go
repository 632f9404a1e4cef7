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

package ranging_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aamcrae/sonar/pwm"
	"github.com/aamcrae/sonar/ranging"
	"github.com/aamcrae/sonar/simulator"
)

func pulse(us uint32) simulator.Scene {
	return func(uint32) (time.Duration, bool) {
		return time.Duration(us) * time.Microsecond, true
	}
}

func newSensor(t *testing.T, b *simulator.Board, limit uint32) *ranging.Sensor {
	s := ranging.New(b.Trigger, b.Echo, b, limit, zaptest.NewLogger(t).Sugar())
	require.NoError(t, s.Init())
	return s
}

func TestEchoWidth(t *testing.T) {
	for _, us := range []uint32{1, 57, 58, 59, 115, 116, 1000, 5800, 23200, 38000} {
		b := simulator.NewBoard(pwm.DefaultCalibration, pulse(us))
		s := newSensor(t, b, 0)
		r, err := s.Measure()
		require.NoError(t, err)
		require.False(t, r.TimedOut, "width %d", us)
		require.Equal(t, us, r.Elapsed)
		require.Equal(t, us, r.Width)
		require.Equal(t, us/58, r.Distance)
		require.Equal(t, us/58, r.Centimeters())
		require.Equal(t, 1, b.Pings())
	}
}

// The wait for the echo to rise is counted along with the echo itself.
func TestLatencyCounts(t *testing.T) {
	for _, latency := range []uint32{1, 57, 450, 4999, ranging.RiseTimeout} {
		for _, us := range []uint32{1, 58, 1000, 5800, 23200} {
			b := simulator.NewBoard(pwm.DefaultCalibration, pulse(us))
			b.Latency = time.Duration(latency) * time.Microsecond
			s := newSensor(t, b, 0)
			r, err := s.Measure()
			require.NoError(t, err)
			require.False(t, r.TimedOut, "latency %d, width %d", latency, us)
			require.Equal(t, latency+us, r.Elapsed)
			require.Equal(t, us, r.Width)
			require.Equal(t, (latency+us)/58, r.Distance)
		}
	}
}

func TestWallWithLatency(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(100))
	b.Latency = 450 * time.Microsecond
	s := newSensor(t, b, 0)
	d, err := s.Distance()
	require.NoError(t, err)
	require.Equal(t, uint32((450+5800)/58), d)
	require.Equal(t, uint32(107), d)
}

func TestWall(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(123))
	s := newSensor(t, b, 0)
	d, err := s.Distance()
	require.NoError(t, err)
	require.Equal(t, uint32(123), d)
}

func TestNoEcho(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Empty)
	s := newSensor(t, b, 0)
	r, err := s.Measure()
	require.NoError(t, err)
	require.True(t, r.TimedOut)
	require.Equal(t, uint32(ranging.NoEchoDistance), r.Centimeters())
	// Trigger pulse plus the full rise timeout.
	require.Equal(t, (ranging.TriggerWidth+ranging.RiseTimeout+1)*time.Microsecond, b.Now())
	require.Equal(t, uint32(ranging.RiseTimeout+1), r.Elapsed)

	d, err := s.Distance()
	require.NoError(t, err)
	require.Equal(t, uint32(100), d)
}

func TestLateEcho(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(20))
	b.Latency = (ranging.RiseTimeout + 1) * time.Microsecond
	s := newSensor(t, b, 0)
	r, err := s.Measure()
	require.NoError(t, err)
	require.True(t, r.TimedOut)
}

func TestEchoLimit(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(300))
	s := newSensor(t, b, 1000)
	_, err := s.Measure()
	require.ErrorIs(t, err, ranging.ErrEchoStuck)

	// A limit above the echo width has no effect.
	b = simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(300))
	s = newSensor(t, b, 300*58+1)
	d, err := s.Distance()
	require.NoError(t, err)
	require.Equal(t, uint32(300), d)
}

func TestRepeatedPings(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(50))
	s := newSensor(t, b, 0)
	for i := 0; i < 5; i++ {
		d, err := s.Distance()
		require.NoError(t, err)
		require.Equal(t, uint32(50), d)
	}
	require.Equal(t, 5, b.Pings())
}

type badPin struct{}

func (badPin) Set(int) error     { return errors.New("gpio gone") }
func (badPin) Get() (int, error) { return 0, errors.New("gpio gone") }

func TestPinErrors(t *testing.T) {
	b := simulator.NewBoard(pwm.DefaultCalibration, simulator.Wall(50))
	s := ranging.New(badPin{}, b.Echo, b, 0, nil)
	require.Error(t, s.Init())
	_, err := s.Measure()
	require.Error(t, err)

	s = ranging.New(b.Trigger, badPin{}, b, 0, nil)
	_, err = s.Distance()
	require.Error(t, err)
}

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

package uart

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// stallWriter accepts nothing for the first stalls writes, as a
// transmitter with a full buffer would.
type stallWriter struct {
	bytes.Buffer
	stalls int
	writes int
}

func (s *stallWriter) Write(p []byte) (int, error) {
	s.writes++
	if s.stalls > 0 {
		s.stalls--
		return 0, nil
	}
	return s.Buffer.Write(p)
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("line down")
}

func TestUnsigned(t *testing.T) {
	values := []uint32{0, 1, 9, 10, 11, 99, 100, 101, 4096, 65535, 1000000, math.MaxUint32 - 1, math.MaxUint32}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		values = append(values, r.Uint32())
	}
	for _, v := range values {
		var b bytes.Buffer
		require.NoError(t, New(&b).Unsigned(v))
		s := b.String()
		require.Equal(t, strconv.FormatUint(uint64(v), 10), s)
		if v != 0 {
			require.NotEqual(t, byte('0'), s[0], "leading zero in %q", s)
		}
		back, err := strconv.ParseUint(s, 10, 32)
		require.NoError(t, err)
		require.Equal(t, uint64(v), back)
	}
}

func TestPrintAngle(t *testing.T) {
	tests := []struct {
		angle, distance uint32
		want            string
	}{
		{0, 100, "0,100\r\n"},
		{180, 3, "180,3\r\n"},
		{90, 0, "90,0\r\n"},
		{7, 4294967295, "7,4294967295\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, New(&b).PrintAngle(tt.angle, tt.distance))
			require.Equal(t, tt.want, b.String())

			var parts bytes.Buffer
			o := New(&parts)
			require.NoError(t, o.Unsigned(tt.angle))
			require.NoError(t, o.Char(','))
			require.NoError(t, o.Unsigned(tt.distance))
			require.NoError(t, o.Newline())
			require.Equal(t, parts.String(), b.String())
		})
	}
}

func TestString(t *testing.T) {
	var b bytes.Buffer
	o := New(&b)
	require.NoError(t, o.String("sonar"))
	require.NoError(t, o.String("ready\x00ignored"))
	require.NoError(t, o.String(""))
	require.Equal(t, "sonarready", b.String())
}

func TestNewline(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, New(&b).Newline())
	require.Equal(t, []byte{'\r', '\n'}, b.Bytes())
}

func TestCharWaitsForSpace(t *testing.T) {
	w := &stallWriter{stalls: 3}
	require.NoError(t, New(w).Char('x'))
	require.Equal(t, "x", w.String())
	require.Equal(t, 4, w.writes)
}

func TestWriteError(t *testing.T) {
	o := New(brokenWriter{})
	require.Error(t, o.Char('a'))
	require.Error(t, o.PrintAngle(1, 2))
	require.Error(t, o.String("abc"))
}

func TestParseRecord(t *testing.T) {
	a, d, err := ParseRecord("180,3\r\n")
	require.NoError(t, err)
	require.Equal(t, uint32(180), a)
	require.Equal(t, uint32(3), d)

	for _, bad := range []string{"", "180", "1,2,3", "01,2", "1,-2", "x,2", "1,", "1,4294967296"} {
		_, _, err := ParseRecord(bad)
		require.Error(t, err, bad)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		angle, distance := uint32(r.Intn(181)), r.Uint32()
		var b bytes.Buffer
		require.NoError(t, New(&b).PrintAngle(angle, distance))
		a, d, err := ParseRecord(b.String())
		require.NoError(t, err)
		require.Equal(t, angle, a)
		require.Equal(t, distance, d)
	}
}

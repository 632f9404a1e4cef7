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

package radar

import (
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aamcrae/sonar/ranging"
)

func TestRecord(t *testing.T) {
	mock := clock.NewMock()
	r := New(mock, 180, 400, zaptest.NewLogger(t).Sugar())
	r.Record(90, ranging.Reading{Distance: 50})
	mock.Add(time.Second)
	r.Record(90, ranging.Reading{Distance: 60})
	r.Record(0, ranging.Reading{TimedOut: true})
	r.Record(181, ranging.Reading{Distance: 1})

	s := r.Samples()
	require.Len(t, s, 2)
	require.Equal(t, Sample{Angle: 0, TimedOut: true, At: mock.Now()}, s[0])
	require.Equal(t, Sample{Angle: 90, Distance: 60, At: mock.Now()}, s[1])
}

func TestRecordLine(t *testing.T) {
	mock := clock.NewMock()
	r := New(mock, 180, 400, zaptest.NewLogger(t).Sugar())
	require.NoError(t, r.RecordLine("10,42\r\n"))
	require.NoError(t, r.RecordLine("90,100\r\n"))
	require.NoError(t, r.RecordLine("91,99"))
	require.Error(t, r.RecordLine("92"))
	require.Error(t, r.RecordLine("93,-1"))

	s := r.Samples()
	require.Len(t, s, 3)
	require.Equal(t, Sample{Angle: 10, Distance: 42, At: mock.Now()}, s[0])
	// 100 is the no echo distance, and is shown as a timeout.
	require.Equal(t, Sample{Angle: 90, Distance: 100, TimedOut: true, At: mock.Now()}, s[1])
	require.Equal(t, Sample{Angle: 91, Distance: 99, At: mock.Now()}, s[2])
}

func TestImage(t *testing.T) {
	mock := clock.NewMock()
	r := New(mock, 180, 100, nil)
	for a := uint32(0); a <= 180; a += 10 {
		r.Record(a, ranging.Reading{Distance: 50})
	}
	r.Record(95, ranging.Reading{TimedOut: true})
	img := r.Image(400)
	b := img.Bounds()
	require.Equal(t, 400, b.Dx())
	require.Equal(t, 210, b.Dy())

	// Straight up at 90 degrees, half way out, is lit green.
	_, g, _, _ := img.At(200, 205-97).RGBA()
	require.Greater(t, g, uint32(0x8000))
	// Beyond the echo at 90 degrees is dark.
	red, g, blue, _ := img.At(200, 205-190).RGBA()
	require.Less(t, red, uint32(0x1000))
	require.Less(t, g, uint32(0x1000))
	require.Less(t, blue, uint32(0x1000))
}

func TestHandler(t *testing.T) {
	r := New(clock.NewMock(), 180, 400, zaptest.NewLogger(t).Sugar())
	r.Record(45, ranging.Reading{Distance: 200})
	srv := httptest.NewServer(r.Handler(200))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
}

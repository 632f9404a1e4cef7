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

// Package radar keeps the latest sweep and draws it as a plan position display.

package radar

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/ranging"
	"github.com/aamcrae/sonar/uart"
)

// Sample is the latest reading at one angle.
type Sample struct {
	Angle    uint32
	Distance uint32
	TimedOut bool
	At       time.Time
}

// Radar holds one sample per degree.
type Radar struct {
	mu       sync.Mutex
	clk      clock.Clock
	maxRange uint32 // Centimetres at the edge of the display
	samples  []*Sample
	log      *zap.SugaredLogger
}

// New creates a Radar covering 0 to maxAngle degrees and maxRange centimetres.
func New(clk clock.Clock, maxAngle, maxRange uint32, log *zap.SugaredLogger) *Radar {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if maxRange == 0 {
		maxRange = 1
	}
	return &Radar{
		clk:      clk,
		maxRange: maxRange,
		samples:  make([]*Sample, maxAngle+1),
		log:      log,
	}
}

// Record stores a reading, replacing any earlier one at the same angle.
// Angles outside the display are dropped.
func (r *Radar) Record(angle uint32, rd ranging.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(angle) >= len(r.samples) {
		return
	}
	r.samples[angle] = &Sample{
		Angle:    angle,
		Distance: rd.Distance,
		TimedOut: rd.TimedOut,
		At:       r.clk.Now(),
	}
}

// RecordLine parses an angle,distance record from the serial line and
// records it. The wire format cannot tell a timeout from an echo at
// NoEchoDistance, so those records are shown as timeouts.
func (r *Radar) RecordLine(line string) error {
	angle, dist, err := uart.ParseRecord(line)
	if err != nil {
		return err
	}
	r.Record(angle, ranging.Reading{Distance: dist, TimedOut: dist == ranging.NoEchoDistance})
	return nil
}

// Samples returns a copy of the recorded samples in angle order.
func (r *Radar) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s []Sample
	for _, p := range r.samples {
		if p != nil {
			s = append(s, *p)
		}
	}
	return s
}

// Image draws the samples on a half disc, size pixels wide.
// Echoes are drawn as green lines out to the distance, timeouts as
// grey lines to the edge. Older samples are drawn fainter.
func (r *Radar) Image(size int) image.Image {
	samples := r.Samples()
	now := r.clk.Now()
	h := size/2 + 10
	c := gg.NewContext(size, h)
	c.SetRGB(0, 0, 0)
	c.Clear()
	midX, midY := float64(size)/2, float64(h)-5
	radius := float64(size)/2 - 5
	// Range rings
	c.SetRGB(0, 0.4, 0)
	c.SetLineWidth(1)
	for i := 1; i <= 4; i++ {
		c.DrawArc(midX, midY, radius*float64(i)/4, math.Pi, 2*math.Pi)
		c.Stroke()
	}
	for _, s := range samples {
		fade := 1.0 - math.Min(now.Sub(s.At).Seconds()/10, 0.8)
		l := radius
		if s.TimedOut {
			c.SetRGBA(0.5, 0.5, 0.5, fade*0.5)
		} else {
			l = radius * math.Min(float64(s.Distance)/float64(r.maxRange), 1)
			c.SetRGBA(0, 1, 0, fade)
		}
		drawRay(c, midX, midY, float64(s.Angle), l, 2)
	}
	return c.Image()
}

// drawRay draws a line from the centre at angle degrees, with 0 to the right.
func drawRay(c *gg.Context, x, y, angle, length, width float64) {
	rad := gg.Radians(angle)
	c.SetLineWidth(width)
	c.DrawLine(x, y, x+length*math.Cos(rad), y-length*math.Sin(rad))
	c.Stroke()
}

// Handler serves the display as a PNG image.
func (r *Radar) Handler(size int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, r.Image(size)); err != nil {
			r.log.Warnf("radar: encoding image: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(buf.Bytes()); err != nil {
			r.log.Debugf("radar: writing image: %v", err)
		}
	}
}

// Serve runs an HTTP server on addr with the display at /radar.png.
func Serve(addr string, r *Radar) error {
	mux := http.NewServeMux()
	mux.Handle("/radar.png", r.Handler(800))
	r.log.Infof("radar: starting server on %s", addr)
	server := &http.Server{Addr: addr, Handler: mux}
	return server.ListenAndServe()
}

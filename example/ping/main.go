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

// Program to repeatedly ping the ultrasonic rangefinder and log the result.

package main

import (
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/io"
	"github.com/aamcrae/sonar/ranging"
	"github.com/aamcrae/sonar/timing"
)

var opts struct {
	Trigger  int           `long:"trigger" default:"2" description:"Trigger GPIO"`
	Echo     int           `long:"echo" default:"3" description:"Echo GPIO"`
	Interval time.Duration `long:"interval" default:"100ms" description:"Time between pings"`
	Count    int           `short:"n" long:"count" default:"0" description:"Number of pings, 0 for no limit"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	b, err := io.OpenBoard(opts.Trigger, opts.Echo)
	if err != nil {
		log.Fatalf("board: %v", err)
	}
	defer b.Close()
	s := ranging.New(b.Trigger, b.Echo, timing.New(nil), 0, log)
	if err := s.Init(); err != nil {
		log.Fatalf("init: %v", err)
	}
	for i := 0; opts.Count == 0 || i < opts.Count; i++ {
		r, err := s.Measure()
		if err != nil {
			log.Fatalf("measure: %v", err)
		}
		if r.TimedOut {
			log.Infof("no echo")
		} else {
			log.Infof("%d cm (%d us, echo %d us)", r.Distance, r.Elapsed, r.Width)
		}
		time.Sleep(opts.Interval)
	}
}

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

// Sonar program: sweeps a servo mounted rangefinder and reports
// angle,distance records on a serial line.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aamcrae/config"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/io"
	"github.com/aamcrae/sonar/pwm"
	"github.com/aamcrae/sonar/radar"
	"github.com/aamcrae/sonar/ranging"
	"github.com/aamcrae/sonar/simulator"
	"github.com/aamcrae/sonar/sweep"
	"github.com/aamcrae/sonar/timing"
	"github.com/aamcrae/sonar/uart"
)

type options struct {
	Config  string  `short:"c" long:"config" description:"Configuration file"`
	Sim     bool    `long:"sim" description:"Run on a simulated board"`
	Stdout  bool    `long:"stdout" description:"Write records to stdout instead of the serial device"`
	Discard bool    `long:"discard" description:"Ping twice per step and discard the first reading"`
	Port    int     `short:"p" long:"port" default:"0" description:"Radar web server port, 0 for none"`
	Range   uint32  `long:"range" default:"400" description:"Radar display range in cm"`
	Width   float64 `long:"width" default:"300" description:"Simulated room width in cm"`
	Depth   float64 `long:"depth" default:"200" description:"Simulated room depth in cm"`
	Debug   bool    `short:"d" long:"debug" description:"Debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	logger, err := newLogger(opts.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := sweep.Default()
	if opts.Config != "" {
		conf, err := config.ParseFile(opts.Config)
		if err != nil {
			log.Fatalf("%s: %v", opts.Config, err)
		}
		cfg, err = sweep.ReadConfig(conf)
		if err != nil {
			log.Fatalf("%s: %v", opts.Config, err)
		}
	}
	if opts.Discard {
		cfg.Sweep.Discard = true
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = run(ctx, &opts, cfg, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("sonar: %v", err)
		os.Exit(1)
	}
	log.Info("exiting")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// run brings up the hardware in order (delay, ranging, serial,
// PWM clock, PWM output) and sweeps until ctx is done.
func run(ctx context.Context, opts *options, cfg *sweep.Config, log *zap.SugaredLogger) error {
	var (
		delay   timing.Delayer
		trigger ranging.Trigger
		echo    ranging.Echo
		board   *io.Board
		sim     *simulator.Board
	)
	if opts.Sim {
		sim = simulator.NewBoard(cfg.Calibration, simulator.Room(opts.Width, opts.Depth, float64(opts.Range)))
		sim.Latency = 450 * time.Microsecond
		sim.Pace = true
		delay = sim
		trigger, echo = sim.Trigger, sim.Echo
	} else {
		delay = timing.New(nil)
		b, err := io.OpenBoard(cfg.Trigger, cfg.Echo)
		if err != nil {
			return err
		}
		defer func() {
			if err := b.Close(); err != nil {
				log.Warnf("board close: %v", err)
			}
		}()
		board = b
		trigger, echo = b.Trigger, b.Echo
	}

	sensor := ranging.New(trigger, echo, delay, cfg.EchoLimit, log.Named("ranging"))
	if err := sensor.Init(); err != nil {
		return err
	}

	var out *uart.Output
	if opts.Sim || opts.Stdout {
		out = uart.New(os.Stdout)
	} else {
		port, err := io.OpenUART(cfg.Device, cfg.Baud)
		if err != nil {
			return err
		}
		defer port.Close()
		out = uart.New(port)
		log.Infof("serial: %s at %d baud", cfg.Device, cfg.Baud)
	}

	var counter pwm.Counter
	if sim != nil {
		counter = sim.Servo
	} else {
		if err := board.OpenServo(cfg.ServoGpio, cfg.PwmUnit, cfg.Tick); err != nil {
			return err
		}
		counter = board.Servo
	}
	servo := pwm.New(counter)
	if err := servo.Configure(cfg.Period, cfg.Start); err != nil {
		return err
	}

	var rec sweep.Recorder
	if opts.Port != 0 {
		r := radar.New(nil, cfg.Calibration.MaxAngle, opts.Range, log.Named("radar"))
		go func() {
			log.Errorf("radar: %v", radar.Serve(fmt.Sprintf(":%d", opts.Port), r))
		}()
		rec = r
	}
	sw, err := sweep.New(cfg.Sweep, cfg.Calibration, servo, sensor, out, delay, rec, log.Named("sweep"))
	if err != nil {
		return err
	}
	return sw.Run(ctx)
}

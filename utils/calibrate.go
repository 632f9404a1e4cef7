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

// Calibration utility. Moves the servo to a given duty or angle so the
// zero and full scale positions can be found, and pings the rangefinder.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aamcrae/config"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/io"
	"github.com/aamcrae/sonar/pwm"
	"github.com/aamcrae/sonar/ranging"
	"github.com/aamcrae/sonar/sweep"
	"github.com/aamcrae/sonar/timing"
)

var opts struct {
	Config string `short:"c" long:"config" description:"Configuration file"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	cfg := sweep.Default()
	if opts.Config != "" {
		conf, err := config.ParseFile(opts.Config)
		if err != nil {
			log.Fatalf("%s: %v", opts.Config, err)
		}
		if cfg, err = sweep.ReadConfig(conf); err != nil {
			log.Fatalf("%s: %v", opts.Config, err)
		}
	}
	b, err := io.OpenBoard(cfg.Trigger, cfg.Echo)
	if err != nil {
		log.Fatalf("board: %v", err)
	}
	defer b.Close()
	sensor := ranging.New(b.Trigger, b.Echo, timing.New(nil), cfg.EchoLimit, log)
	if err := sensor.Init(); err != nil {
		log.Fatalf("ranging: %v", err)
	}
	if err := b.OpenServo(cfg.ServoGpio, cfg.PwmUnit, cfg.Tick); err != nil {
		log.Fatalf("servo: %v", err)
	}
	servo := pwm.New(b.Servo)
	if err := servo.Configure(cfg.Period, cfg.Start); err != nil {
		log.Fatalf("servo: %v", err)
	}
	cal := cfg.Calibration
	duty := cfg.Start
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("Duty %d (angle %d, calibration %d-%d)\n", duty, cal.Angle(duty), cal.Offset, cal.Full)
		fmt.Print("Enter duty or command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		var n uint32
		switch {
		case text == "help":
			fmt.Println("  help - print help")
			fmt.Println("  NNN - set duty in ticks")
			fmt.Println("  a NNN - move to angle")
			fmt.Println("  z - set calibration zero to current duty")
			fmt.Println("  f - set calibration full scale to current duty")
			fmt.Println("  p - ping")
			fmt.Println("  q - quit")
			continue
		case text == "q":
			return
		case text == "z":
			cal.Offset = duty
			continue
		case text == "f":
			cal.Full = duty
			continue
		case text == "p":
			r, err := sensor.Measure()
			if err != nil {
				fmt.Printf("Ping failed: %v\n", err)
			} else if r.TimedOut {
				fmt.Println("No echo")
			} else {
				fmt.Printf("%d cm (%d us)\n", r.Distance, r.Elapsed)
			}
			continue
		case strings.HasPrefix(text, "a "):
			if _, err := fmt.Sscanf(text, "a %d", &n); err != nil || cal.Validate() != nil {
				fmt.Println("Unrecognised input")
				continue
			}
			n = cal.Duty(n)
		default:
			if _, err := fmt.Sscanf(text, "%d", &n); err != nil {
				fmt.Println("Unrecognised input")
				continue
			}
		}
		if n >= cfg.Period {
			fmt.Printf("Duty must be less than %d\n", cfg.Period)
			continue
		}
		if err := servo.SetDuty(n); err != nil {
			fmt.Printf("SetDuty: %v\n", err)
			continue
		}
		duty = n
	}
}

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

// Program to sweep the servo back and forth without ranging.

package main

import (
	"os"
	"time"

	gpio "github.com/aamcrae/gpio"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/io"
	"github.com/aamcrae/sonar/pwm"
)

var opts struct {
	Unit   int           `long:"pwm" default:"0" description:"PWM unit for the servo"`
	Gpio   int           `long:"gpio" default:"-1" description:"GPIO for software PWM, -1 for the PWM unit"`
	Tick   time.Duration `long:"tick" default:"320ns" description:"PWM counter tick"`
	Step   uint32        `long:"step" default:"40" description:"Duty step in ticks"`
	Passes int           `long:"passes" default:"10" description:"Number of passes"`
	Settle time.Duration `long:"settle" default:"20ms" description:"Delay after each step"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	var counter io.Counter
	if opts.Gpio < 0 {
		p, err := io.NewHwPWM(opts.Unit, opts.Tick)
		if err != nil {
			log.Fatalf("PWM unit %d: %v", opts.Unit, err)
		}
		counter = p
	} else {
		pin, err := gpio.OutputPin(opts.Gpio)
		if err != nil {
			log.Fatalf("GPIO %d: %v", opts.Gpio, err)
		}
		defer pin.Close()
		counter = io.NewSwPWM(pin, opts.Tick)
	}
	defer counter.Close()
	servo := pwm.New(counter)
	if err := servo.Configure(pwm.Period, pwm.MinDuty); err != nil {
		log.Fatalf("Configure: %v", err)
	}
	cal := pwm.DefaultCalibration
	for i := 0; i < opts.Passes; i++ {
		for d := uint32(pwm.MinDuty); d <= pwm.MaxDuty; d += opts.Step {
			set(log, servo, cal, d)
		}
		for d := uint32(pwm.MaxDuty); d >= pwm.MinDuty; d -= opts.Step {
			set(log, servo, cal, d)
		}
	}
}

func set(log *zap.SugaredLogger, servo *pwm.Driver, cal pwm.Calibration, duty uint32) {
	if err := servo.SetDuty(duty); err != nil {
		log.Fatalf("SetDuty %d: %v", duty, err)
	}
	log.Debugf("duty %d, angle %d", duty, cal.Angle(duty))
	time.Sleep(opts.Settle)
}

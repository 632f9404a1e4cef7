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
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

const (
	pwmBaseDir      = "/sys/class/pwm/pwmchip0/"
	pwmExportFile   = pwmBaseDir + "export"
	pwmUnexportFile = pwmBaseDir + "unexport"
	periodFile      = "/period"
	dutyFile        = "/duty_cycle"
	enableFile      = "/enable"
)

// HwPwm is a sysfs hardware PWM unit used as a tick counter.
// Periods and high times are given in ticks and converted to
// nanoseconds for the kernel.
type HwPwm struct {
	unit   int
	tick   time.Duration
	base   string
	pFile  *os.File
	dFile  *os.File
	period int64 // nanoseconds, -1 if not yet written
	duty   int64
}

// NewHwPWM opens a hardware PWM unit with the given tick length.
// The output is left disabled until Enable is called.
func NewHwPWM(unit int, tick time.Duration) (*HwPwm, error) {
	if tick <= 0 {
		return nil, errors.Errorf("pwm%d: invalid tick %s", unit, tick)
	}
	p := new(HwPwm)
	p.unit = unit
	p.tick = tick
	p.base = fmt.Sprintf("%spwm%d", pwmBaseDir, unit)
	p.period = -1
	p.duty = -1

	vFile := p.base + periodFile
	err := export(vFile, pwmExportFile, unit)
	if err != nil {
		return nil, errors.Wrapf(err, "pwm%d: export", unit)
	}
	p.pFile, err = os.OpenFile(vFile, os.O_RDWR, 0600)
	if err != nil {
		unexport(pwmUnexportFile, unit)
		return nil, err
	}
	dName := p.base + dutyFile
	err = verifyFile(dName)
	if err != nil {
		p.pFile.Close()
		unexport(pwmUnexportFile, unit)
		return nil, err
	}
	p.dFile, err = os.OpenFile(dName, os.O_RDWR, 0600)
	if err != nil {
		p.pFile.Close()
		unexport(pwmUnexportFile, unit)
		return nil, err
	}
	return p, nil
}

// Close disables the output and releases the unit.
func (p *HwPwm) Close() error {
	err := writeFile(p.base+enableFile, "0")
	p.pFile.Close()
	p.dFile.Close()
	if uerr := unexport(pwmUnexportFile, p.unit); err == nil {
		err = uerr
	}
	return err
}

// Period sets the PWM period in ticks.
func (p *HwPwm) Period(ticks uint32) error {
	pNano := p.nanos(ticks)
	if pNano < 15 {
		return errors.Errorf("pwm%d: invalid period %d", p.unit, ticks)
	}
	// The kernel rejects a period shorter than the current duty cycle,
	// so shrink the duty first if needed.
	if p.duty > pNano {
		if err := p.write(p.dFile, pNano); err != nil {
			return err
		}
		p.duty = pNano
	}
	if pNano != p.period {
		if err := p.write(p.pFile, pNano); err != nil {
			return err
		}
	}
	p.period = pNano
	return nil
}

// High sets the high time in ticks. The kernel applies it at the
// end of the current period.
func (p *HwPwm) High(ticks uint32) error {
	dNano := p.nanos(ticks)
	if p.period < 0 || dNano > p.period {
		return errors.Errorf("pwm%d: high time %d exceeds period", p.unit, ticks)
	}
	if dNano != p.duty {
		if err := p.write(p.dFile, dNano); err != nil {
			return err
		}
	}
	p.duty = dNano
	return nil
}

// Enable starts the output.
func (p *HwPwm) Enable() error {
	return writeFile(p.base+enableFile, "1")
}

func (p *HwPwm) nanos(ticks uint32) int64 {
	return int64(ticks) * p.tick.Nanoseconds()
}

func (p *HwPwm) write(f *os.File, v int64) error {
	_, err := f.WriteAt([]byte(fmt.Sprintf("%d", v)), 0)
	return errors.Wrapf(err, "pwm%d", p.unit)
}

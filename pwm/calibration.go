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

package pwm

import (
	"github.com/pkg/errors"
)

// Calibration maps duty cycle values linearly to servo angles.
// Offset is the duty at 0 degrees, Full is the duty at MaxAngle.
type Calibration struct {
	Offset   uint32
	Full     uint32
	MaxAngle uint32
}

// DefaultCalibration is 0.0576 degrees per tick from 3125.
var DefaultCalibration = Calibration{Offset: MinDuty, Full: MaxDuty, MaxAngle: FullAngle}

// Validate checks that the calibration describes a usable range.
func (c Calibration) Validate() error {
	if c.Full <= c.Offset {
		return errors.Errorf("calibration: full duty %d must be above offset %d", c.Full, c.Offset)
	}
	if c.MaxAngle == 0 {
		return errors.New("calibration: zero angle range")
	}
	return nil
}

// Angle returns the angle in whole degrees for a duty value,
// clamped to [0, MaxAngle].
func (c Calibration) Angle(duty uint32) uint32 {
	if duty <= c.Offset {
		return 0
	}
	if duty >= c.Full {
		return c.MaxAngle
	}
	return uint32(uint64(duty-c.Offset) * uint64(c.MaxAngle) / uint64(c.Full-c.Offset))
}

// Duty returns the smallest duty value that Angle maps to angle.
func (c Calibration) Duty(angle uint32) uint32 {
	if angle >= c.MaxAngle {
		return c.Full
	}
	span := uint64(c.Full - c.Offset)
	return c.Offset + uint32((uint64(angle)*span+uint64(c.MaxAngle)-1)/uint64(c.MaxAngle))
}

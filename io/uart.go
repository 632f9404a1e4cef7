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
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SerialMode returns 8 data bits, no parity, 1 stop bit at baud.
func SerialMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenUART opens a serial device for the angle/distance records.
// There is no flow control, so writes block only while the driver's
// transmit buffer is full.
func OpenUART(device string, baud int) (serial.Port, error) {
	port, err := serial.Open(device, SerialMode(baud))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", device)
	}
	return port, nil
}

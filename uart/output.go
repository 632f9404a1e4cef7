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

// Package uart is the serial output driver. Output is byte synchronous
// and blocks until each character has been accepted by the transmitter.

package uart

import (
	"io"

	"github.com/pkg/errors"
)

const (
	CR = '\r'
	LF = '\n'
)

// Output transmits text over a serial channel.
type Output struct {
	w   io.Writer
	buf []byte
}

// New creates an Output that transmits on w.
func New(w io.Writer) *Output {
	return &Output{w: w, buf: make([]byte, 1)}
}

// Char transmits one character. A write that accepts nothing means the
// transmit buffer is full, and the write is repeated until the
// character is taken.
func (o *Output) Char(c byte) error {
	o.buf[0] = c
	for {
		n, err := o.w.Write(o.buf)
		if err != nil {
			return errors.Wrapf(err, "uart: write %q", c)
		}
		if n == 1 {
			return nil
		}
	}
}

// String transmits s up to, but not including, the first NUL.
func (o *Output) String(s string) error {
	for i := 0; i < len(s) && s[i] != 0; i++ {
		if err := o.Char(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Unsigned transmits n in decimal, most significant digit first.
func (o *Output) Unsigned(n uint32) error {
	if n >= 10 {
		if err := o.Unsigned(n / 10); err != nil {
			return err
		}
		n = n % 10
	}
	return o.Char(byte(n) + '0')
}

// Newline transmits CR LF.
func (o *Output) Newline() error {
	if err := o.Char(CR); err != nil {
		return err
	}
	return o.Char(LF)
}

// PrintAngle transmits a single "angle,distance" record.
func (o *Output) PrintAngle(angle, distance uint32) error {
	if err := o.Unsigned(angle); err != nil {
		return err
	}
	if err := o.Char(','); err != nil {
		return err
	}
	if err := o.Unsigned(distance); err != nil {
		return err
	}
	return o.Newline()
}

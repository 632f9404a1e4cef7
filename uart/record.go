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

package uart

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseRecord parses a line written by PrintAngle. Trailing CR/LF is ignored.
func ParseRecord(line string) (angle, distance uint32, err error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("%q: expected angle,distance", line)
	}
	a, err := parseUnsigned(parts[0])
	if err != nil {
		return 0, 0, errors.Wrap(err, "angle")
	}
	d, err := parseUnsigned(parts[1])
	if err != nil {
		return 0, 0, errors.Wrap(err, "distance")
	}
	return a, d, nil
}

// parseUnsigned accepts only canonical decimal, as written by Unsigned.
func parseUnsigned(s string) (uint32, error) {
	if len(s) > 1 && s[0] == '0' {
		return 0, errors.Errorf("%q: leading zero", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.Errorf("%q: not a decimal number", s)
		}
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

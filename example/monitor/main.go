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

// Program to read angle,distance records from the sonar's serial line
// and show them on a radar display.

package main

import (
	"bufio"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/aamcrae/sonar/io"
	"github.com/aamcrae/sonar/radar"
)

var opts struct {
	Device string `long:"device" default:"/dev/ttyUSB0" description:"Serial device"`
	Baud   int    `long:"baud" default:"115200" description:"Baud rate"`
	Port   int    `short:"p" long:"port" default:"8080" description:"Radar web server port, 0 for none"`
	Range  uint32 `long:"range" default:"400" description:"Radar display range in cm"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	port, err := io.OpenUART(opts.Device, opts.Baud)
	if err != nil {
		log.Fatalf("serial: %v", err)
	}
	defer port.Close()
	r := radar.New(nil, 180, opts.Range, log.Named("radar"))
	if opts.Port != 0 {
		go func() {
			log.Fatalf("radar: %v", radar.Serve(fmt.Sprintf(":%d", opts.Port), r))
		}()
	}
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := scanner.Text()
		if err := r.RecordLine(line); err != nil {
			log.Warnf("%v", err)
			continue
		}
		log.Debugf("record %s", line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("serial read: %v", err)
	}
}

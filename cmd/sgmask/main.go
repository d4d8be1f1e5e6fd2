// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sgmask runs the sub-group mask self-checks.
//
// Usage:
//
//	sgmask info                       # detected SIMD level and default sub-group size
//	sgmask check --sg-size 16         # ballot even/odd masks over an ND-range and check them
//	sgmask sweep                      # check every supported sub-group size
//	sgmask verify --width 64          # compare random masks against the reference model
//
// Settings can also come from SGMASK_* environment variables or a .env file.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, "sgmask:", err)
		}
		os.Exit(1)
	}
}

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

package subgroup

import (
	"errors"

	"github.com/ajroetker/go-subgroup/internal/assert"
)

// ErrPrecondition is matched by every precondition Violation.
var ErrPrecondition = assert.ErrPrecondition

// Violation describes a broken precondition. Mask operations panic with a
// *Violation; Group.Run returns one when lanes diverge.
type Violation = assert.Violation

var (
	// ErrInvalidWidth is returned by NewGroup for widths that are not a
	// power of two in [1, MaxWidth].
	ErrInvalidWidth = errors.New("subgroup: invalid width")

	// ErrGroupBusy is returned by Run while another Run of the same group
	// is in progress.
	ErrGroupBusy = errors.New("subgroup: group is running")

	// ErrGroupBroken is returned by Run on a group whose previous run
	// failed.
	ErrGroupBroken = errors.New("subgroup: group is broken")
)

// Copyright 2018 New Vector Ltd
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

package stateres

import "runtime"

// yieldEveryIterations mirrors Synapse's _YIELD_AFTER_ITERATIONS: every hot
// loop over a potentially large collection gives the host scheduler a
// chance to run other work this often (§5, §9 "Cooperative yielding").
const yieldEveryIterations = 100

// yieldToScheduler is the Go equivalent of Synapse's `yield clock.sleep(0)`
// inside its async loops: in a preemptively-scheduled goroutine this is not
// required for correctness, only fairness, so a plain Gosched is enough.
// It never changes visible output.
func yieldToScheduler() {
	runtime.Gosched()
}

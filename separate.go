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

// nullValue stands in for "this state set doesn't have this key" inside the
// intermediate value-set built by separate. It relies on event IDs being
// non-empty; NewEvent does not check this, so an empty ID in a state set
// would be treated as absence.
const nullValue = ""

// separate splits a list of input state sets into the unconflicted state
// (every set agrees, including every set being absent) and the conflicted
// state (some disagreement, absence counting as a distinct value that is
// discarded once it's known not to be the only value) (§4.1).
//
// This is pure and never errors.
func separate(stateSets []StateMap) (unconflicted StateMap, conflicted conflictedState) {
	unconflicted = StateMap{}
	conflicted = conflictedState{}

	keys := map[StateKeyTuple]struct{}{}
	for _, stateSet := range stateSets {
		for key := range stateSet {
			keys[key] = struct{}{}
		}
	}

	for key := range keys {
		values := map[string]struct{}{}
		sawAbsent := false
		for _, stateSet := range stateSets {
			if id, ok := stateSet[key]; ok {
				values[id] = struct{}{}
			} else {
				sawAbsent = true
			}
		}

		if sawAbsent {
			values[nullValue] = struct{}{} // placeholder for "absent", discarded below unless it's the only value
		}

		if len(values) == 1 {
			// key is present in the key union, so this can never be the
			// lone nullValue entry.
			for id := range values {
				unconflicted[key] = id
			}
			continue
		}

		delete(values, nullValue)
		candidates := make(EventIDSet, len(values))
		for id := range values {
			candidates[id] = struct{}{}
		}
		conflicted[key] = candidates
	}

	return unconflicted, conflicted
}

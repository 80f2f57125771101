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

// StateMap is a mapping from StateKeyTuple to the event ID that currently
// holds that slot of room state.
type StateMap map[StateKeyTuple]string

// Clone returns a shallow copy of m.
func (m StateMap) Clone() StateMap {
	out := make(StateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Overlay returns a copy of m with every entry of other applied on top,
// overwriting any colliding key. Used by the orchestration step that
// reapplies unconflicted state so it always wins (§4.10 step 11).
func (m StateMap) Overlay(other StateMap) StateMap {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// EventIDSet is a set of event IDs.
type EventIDSet map[string]struct{}

// NewEventIDSet builds a set from the given IDs.
func NewEventIDSet(ids ...string) EventIDSet {
	s := make(EventIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s EventIDSet) Add(id string) { s[id] = struct{}{} }

func (s EventIDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the set's members in unspecified order.
func (s EventIDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Union returns a new set containing every member of s and other.
func (s EventIDSet) Union(other EventIDSet) EventIDSet {
	out := make(EventIDSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// conflictedState maps a StateKeyTuple to the set of candidate event IDs
// input state sets disagree on (§3 "Conflicted state").
type conflictedState map[StateKeyTuple]EventIDSet

// allCandidates returns the union of every candidate set.
func (c conflictedState) allCandidates() EventIDSet {
	out := EventIDSet{}
	for _, candidates := range c {
		for id := range candidates {
			out.Add(id)
		}
	}
	return out
}

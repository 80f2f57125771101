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

import "context"

// fakeStore is a minimal EventDatabase backing the white-box tests in this
// package: a flat map with no auth-chain-difference smarts beyond what each
// test needs.
type fakeStore struct {
	events map[string]*Event
}

func newFakeStore(events ...*Event) *fakeStore {
	s := &fakeStore{events: map[string]*Event{}}
	for _, e := range events {
		s.events[e.EventID()] = e
	}
	return s
}

func (s *fakeStore) GetEvents(ctx context.Context, eventIDs []string, allowRejected bool) (map[string]*Event, error) {
	out := map[string]*Event{}
	for _, id := range eventIDs {
		e, ok := s.events[id]
		if !ok {
			continue
		}
		if e.Rejected() && !allowRejected {
			continue
		}
		out[id] = e
	}
	return out, nil
}

func (s *fakeStore) GetAuthChainDifference(ctx context.Context, sets []EventIDSet) (EventIDSet, error) {
	chain := func(seeds EventIDSet) EventIDSet {
		visited := EventIDSet{}
		var queue []string
		for id := range seeds {
			queue = append(queue, id)
		}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if visited.Contains(id) {
				continue
			}
			visited.Add(id)
			if e, ok := s.events[id]; ok {
				queue = append(queue, e.AuthEventIDs()...)
			}
		}
		return visited
	}

	chains := make([]EventIDSet, len(sets))
	union := EventIDSet{}
	for i, set := range sets {
		chains[i] = chain(set)
		union = union.Union(chains[i])
	}

	intersection := EventIDSet{}
	for id := range union {
		inAll := true
		for _, c := range chains {
			if !c.Contains(id) {
				inAll = false
				break
			}
		}
		if inAll {
			intersection.Add(id)
		}
	}

	diff := EventIDSet{}
	for id := range union {
		if !intersection.Contains(id) {
			diff.Add(id)
		}
	}
	return diff, nil
}

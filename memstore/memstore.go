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

// Package memstore is an in-memory stateres.EventDatabase, suitable for
// tests and small single-process deployments. It is not persistent: data is
// lost when the process exits.
package memstore

import (
	"context"
	"sync"

	"github.com/mxroom/stateres"
)

// Store holds every event it has been given and answers auth-chain
// difference queries by walking auth_events pointers in memory. It is safe
// for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events map[string]*stateres.Event
}

// New returns an empty Store.
func New() *Store {
	return &Store{events: make(map[string]*stateres.Event)}
}

// Add inserts or replaces one or more events.
func (s *Store) Add(events ...*stateres.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.events[event.EventID()] = event
	}
}

// GetEvents returns every requested event the store holds. Rejected events
// are included only when allowRejected is true; unknown IDs are silently
// omitted, per the stateres.EventDatabase contract.
func (s *Store) GetEvents(ctx context.Context, eventIDs []string, allowRejected bool) (map[string]*stateres.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*stateres.Event, len(eventIDs))
	for _, id := range eventIDs {
		event, ok := s.events[id]
		if !ok {
			continue
		}
		if event.Rejected() && !allowRejected {
			continue
		}
		out[id] = event
	}
	return out, nil
}

// GetAuthChainDifference computes, for the given sets of event IDs, the
// union of each set's full auth chain minus their intersection: the events
// that appear in some but not all of the chains.
func (s *Store) GetAuthChainDifference(ctx context.Context, sets []stateres.EventIDSet) (stateres.EventIDSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(sets) == 0 {
		return stateres.EventIDSet{}, nil
	}

	chains := make([]stateres.EventIDSet, len(sets))
	for i, set := range sets {
		chains[i] = s.authChain(set)
	}

	union := stateres.EventIDSet{}
	for _, chain := range chains {
		union = union.Union(chain)
	}

	intersection := stateres.EventIDSet{}
	for id := range union {
		inAll := true
		for _, chain := range chains {
			if !chain.Contains(id) {
				inAll = false
				break
			}
		}
		if inAll {
			intersection.Add(id)
		}
	}

	diff := stateres.EventIDSet{}
	for id := range union {
		if !intersection.Contains(id) {
			diff.Add(id)
		}
	}
	return diff, nil
}

// authChain returns the transitive closure of auth_events reachable from
// seeds, seeds themselves included.
func (s *Store) authChain(seeds stateres.EventIDSet) stateres.EventIDSet {
	chain := stateres.EventIDSet{}
	var queue []string
	for id := range seeds {
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if chain.Contains(id) {
			continue
		}
		chain.Add(id)

		event, ok := s.events[id]
		if !ok {
			continue
		}
		for _, authID := range event.AuthEventIDs() {
			if !chain.Contains(authID) {
				queue = append(queue, authID)
			}
		}
	}
	return chain
}

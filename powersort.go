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

import (
	"context"
	"fmt"
)

// powerSortKey is the (-power, origin_server_ts, event_id) tuple from §4.6
// step 3: higher power sorts first, then earlier timestamp, then
// lexicographically smaller event ID as the final tiebreak.
type powerSortKey struct {
	negativePower int64
	originTS      int64
	eventID       string
}

func (k powerSortKey) Less(other TopoKey) bool {
	o := other.(powerSortKey)
	if k.negativePower != o.negativePower {
		return k.negativePower < o.negativePower
	}
	if k.originTS != o.originTS {
		return k.originTS < o.originTS
	}
	return k.eventID < o.eventID
}

// reverseTopologicalPowerSort builds the auth-chain subgraph restricted to
// authDiff starting from powerEventIDs, then sorts it with the composite
// key so parents precede children and, among simultaneously-eligible
// events, higher sender power / earlier timestamp / smaller ID sorts first
// (§4.6).
func reverseTopologicalPowerSort(ctx context.Context, powerEventIDs []string, loader *eventLoader, authDiff EventIDSet) ([]string, error) {
	graph := map[string]map[string]struct{}{}

	var queue []string
	queue = append(queue, powerEventIDs...)

	iterations := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := graph[id]; ok {
			continue
		}
		graph[id] = map[string]struct{}{}

		event, err := loader.load(ctx, id, false)
		if err != nil {
			return nil, fmt.Errorf("stateres: loading power event %s: %w", id, err)
		}
		for _, authID := range event.AuthEventIDs() {
			if !authDiff.Contains(authID) {
				continue
			}
			graph[id][authID] = struct{}{}
			if _, ok := graph[authID]; !ok {
				queue = append(queue, authID)
			}
		}

		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}
	}

	powerLevels := make(map[string]int64, len(graph))
	iterations = 0
	for id := range graph {
		event, err := loader.load(ctx, id, false)
		if err != nil {
			return nil, fmt.Errorf("stateres: loading power event %s: %w", id, err)
		}
		pl, err := senderPowerLevel(ctx, event, loader)
		if err != nil {
			return nil, err
		}
		powerLevels[id] = pl

		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}
	}

	keyFunc := func(id string) TopoKey {
		event, _ := loader.get(id)
		return powerSortKey{
			negativePower: -powerLevels[id],
			originTS:      event.OriginServerTS(),
			eventID:       id,
		}
	}

	return lexicographicTopologicalSort(graph, keyFunc), nil
}

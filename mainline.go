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
	"sort"
)

// buildMainline walks the chain of power_levels events reachable from
// resolvedPowerLevelsID, newest first, by repeatedly following the first
// power_levels auth event it finds (§4.9 step 1). If resolvedPowerLevelsID
// is empty the mainline is empty.
func buildMainline(ctx context.Context, resolvedPowerLevelsID string, loader *eventLoader) ([]string, error) {
	if resolvedPowerLevelsID == "" {
		return nil, nil
	}

	var mainline []string
	current := resolvedPowerLevelsID
	iterations := 0
	for current != "" {
		mainline = append(mainline, current)

		event, err := loader.load(ctx, current, false)
		if err != nil {
			return nil, fmt.Errorf("stateres: loading mainline event %s: %w", current, err)
		}

		next := ""
		for _, authID := range event.AuthEventIDs() {
			authEvent, err := loader.load(ctx, authID, true)
			if err != nil {
				return nil, fmt.Errorf("stateres: loading auth event %s: %w", authID, err)
			}
			if authEvent != nil && authEvent.Key() == PowerLevelsKey {
				next = authID
				break
			}
		}
		current = next

		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}
	}

	return mainline, nil
}

// mainlineDepths assigns depth 1 to the oldest entry of mainline (the one
// furthest from resolvedPowerLevelsID), counting up towards the newest
// (§4.9 step 2). mainline is ordered newest-first, as buildMainline returns
// it.
func mainlineDepths(mainline []string) map[string]int {
	depths := make(map[string]int, len(mainline))
	for i, id := range mainline {
		depths[id] = len(mainline) - i
	}
	return depths
}

// mainlineDepthFor walks event's power_levels auth chain until it reaches
// an id present in depths, returning that depth, or 0 if the chain never
// reaches the mainline (§4.9 step 3).
func mainlineDepthFor(ctx context.Context, event *Event, depths map[string]int, loader *eventLoader) (int, error) {
	current := event
	iterations := 0
	for current != nil {
		if depth, ok := depths[current.EventID()]; ok {
			return depth, nil
		}

		var next *Event
		for _, authID := range current.AuthEventIDs() {
			authEvent, err := loader.load(ctx, authID, true)
			if err != nil {
				return 0, fmt.Errorf("stateres: loading auth event %s: %w", authID, err)
			}
			if authEvent != nil && authEvent.Key() == PowerLevelsKey {
				next = authEvent
				break
			}
		}
		current = next

		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}
	}
	return 0, nil
}

// mainlineSort orders eventIDs by (depth, origin_server_ts, event_id),
// ascending, where depth comes from walking each event's power_levels auth
// chain back to the mainline rooted at resolvedPowerLevelsID (§4.9).
func mainlineSort(ctx context.Context, eventIDs []string, resolvedPowerLevelsID string, loader *eventLoader) ([]string, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	mainline, err := buildMainline(ctx, resolvedPowerLevelsID, loader)
	if err != nil {
		return nil, err
	}
	depths := mainlineDepths(mainline)

	type keyed struct {
		id    string
		depth int
		ts    int64
	}
	entries := make([]keyed, 0, len(eventIDs))
	iterations := 0
	for _, id := range eventIDs {
		event, err := loader.load(ctx, id, false)
		if err != nil {
			return nil, fmt.Errorf("stateres: loading candidate event %s: %w", id, err)
		}
		depth, err := mainlineDepthFor(ctx, event, depths, loader)
		if err != nil {
			return nil, err
		}
		entries = append(entries, keyed{id: id, depth: depth, ts: event.OriginServerTS()})

		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].depth != entries[j].depth {
			return entries[i].depth < entries[j].depth
		}
		if entries[i].ts != entries[j].ts {
			return entries[i].ts < entries[j].ts
		}
		return entries[i].id < entries[j].id
	})

	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.id
	}
	return result, nil
}

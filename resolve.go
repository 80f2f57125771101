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
	"time"

	"github.com/matrix-org/util"
	"github.com/sirupsen/logrus"
)

// Resolve computes the single resolved state for a room given several
// conflicting state sets, following the eight-stage pipeline of §2:
// separate, auth-chain difference, load, sort power events, iteratively
// authorize them, mainline-sort the rest, iteratively authorize those, then
// overlay the unconflicted state back on top.
//
// eventMap seeds the event loader with events the caller already has in
// hand; when non-nil it is used as the loader's memo, so every event fetched
// during the call is added to it and it stays populated once Resolve
// returns. stateSets must each describe state for
// roomID; mixing events from other rooms in is a fatal error (§3).
func Resolve(
	ctx context.Context,
	roomID string,
	roomVersion RoomVersion,
	rules AuthRules,
	stateSets []StateMap,
	eventMap map[string]*Event,
	db EventDatabase,
) (StateMap, error) {
	log := util.GetLogger(ctx).WithFields(logrus.Fields{
		"room_id":      roomID,
		"room_version": roomVersion,
	})
	start := timeNow()

	resolved, err := resolve(ctx, log, roomID, rules, stateSets, eventMap, db)

	resolveDuration.With(prometheusLabels(roomID)).Observe(float64(timeNow().Sub(start).Milliseconds()))
	if err != nil {
		log.WithError(err).Error("state resolution failed")
		return nil, err
	}
	return resolved, nil
}

func resolve(
	ctx context.Context,
	log *logrus.Entry,
	roomID string,
	rules AuthRules,
	stateSets []StateMap,
	eventMap map[string]*Event,
	db EventDatabase,
) (StateMap, error) {
	if len(stateSets) == 0 {
		return StateMap{}, nil
	}

	// Step 1: separate into unconflicted and conflicted state (§4.1).
	unconflicted, conflicted := separate(stateSets)
	conflictedEntries.With(prometheusLabels(roomID)).Observe(float64(len(conflicted)))

	if len(conflicted) == 0 {
		log.Debug("no conflicted state, returning unconflicted state unchanged")
		return unconflicted, nil
	}

	// Step 2: the auth chain difference of the input state sets (§4.2).
	authDiff, err := authDifference(ctx, stateSets, db)
	if err != nil {
		return nil, err
	}

	candidates := conflicted.allCandidates()
	fullSet := candidates.Union(authDiff)

	loader := newEventLoader(roomID, db, eventMap)
	if err := loader.loadMany(ctx, fullSet); err != nil {
		return nil, err
	}
	if err := loader.verifyRoom(); err != nil {
		return nil, err
	}

	// The full conflicted set is the union of conflicted candidates and the
	// auth difference (§3, §4.10 steps 4/6/7/9): an event that only shows up
	// in the auth difference (a superseded power_levels/create/join_rules,
	// or a kick/ban ancestor that differs between the input auth chains) is
	// still a legitimate resolution input, not just scaffolding for the
	// power-sort's graph walk. Events named here but never actually
	// loadable are dropped with a warning; they cannot be authorized one way
	// or the other (§7 "Missing conflicted event").
	var present []string
	for id := range fullSet {
		if _, ok := loader.get(id); ok {
			present = append(present, id)
		} else {
			log.WithField("event_id", id).Warn("conflicted candidate event is missing, dropping it")
		}
	}

	// Step 3: split the candidates into power events and the rest (§4.4).
	var powerEventIDs, otherEventIDs []string
	for _, id := range present {
		event, _ := loader.get(id)
		if isPowerEvent(event) {
			powerEventIDs = append(powerEventIDs, id)
		} else {
			otherEventIDs = append(otherEventIDs, id)
		}
	}

	// Step 4: reverse topological power-sort the power events (§4.6).
	sortedPowerEvents, err := reverseTopologicalPowerSort(ctx, powerEventIDs, loader, authDiff)
	if err != nil {
		return nil, err
	}

	// Step 5: iteratively authorize the power events starting from the
	// unconflicted state (§4.8).
	resolved1, err := iterativeAuthorize(ctx, log, sortedPowerEvents, unconflicted, loader, rules)
	if err != nil {
		return nil, err
	}

	// Step 6: mainline-sort the non-power candidates against the now
	// resolved power_levels event (§4.9).
	sortedOtherEvents, err := mainlineSort(ctx, otherEventIDs, resolved1[PowerLevelsKey], loader)
	if err != nil {
		return nil, err
	}

	// Step 7: iteratively authorize the rest starting from resolved1 (§4.8).
	resolved2, err := iterativeAuthorize(ctx, log, sortedOtherEvents, resolved1, loader, rules)
	if err != nil {
		return nil, err
	}

	// Step 8: unconflicted state always wins over anything conflicted
	// resolution produced for the same key (§4.10 step 11).
	return resolved2.Overlay(unconflicted), nil
}

func prometheusLabels(roomID string) map[string]string {
	return map[string]string{"room_id": roomID}
}

// timeNow exists so the one real-time read in this package is in a single,
// easily stubbed place; production callers get time.Now.
var timeNow = time.Now

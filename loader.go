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

// eventLoader is a memoizing lookup from event ID to Event that backs every
// downstream stage of the resolver (§4.3). The memo map may be seeded by
// the caller and survives the call (§9 "Event-loader memoization"); this
// type owns it for the duration of a single Resolve call and is not safe
// for concurrent use.
type eventLoader struct {
	roomID string
	db     EventDatabase
	memo   map[string]*Event
}

func newEventLoader(roomID string, db EventDatabase, seed map[string]*Event) *eventLoader {
	memo := seed
	if memo == nil {
		memo = map[string]*Event{}
	}
	return &eventLoader{roomID: roomID, db: db, memo: memo}
}

// load resolves a single event ID, consulting the memo first and falling
// back to a single-event store fetch on a miss. If the event still cannot
// be found: absent is returned if allowAbsent, otherwise a fatal
// *UnknownEventError. If the event belongs to a different room, a fatal
// *WrongRoomError is always returned regardless of allowAbsent.
func (l *eventLoader) load(ctx context.Context, eventID string, allowAbsent bool) (*Event, error) {
	if ev, ok := l.memo[eventID]; ok {
		return l.checkRoom(ev, allowAbsent, eventID)
	}

	fetched, err := l.db.GetEvents(ctx, []string{eventID}, true)
	if err != nil {
		return nil, fmt.Errorf("stateres: GetEvents: %w", err)
	}
	for id, ev := range fetched {
		l.memo[id] = ev
	}

	ev, ok := l.memo[eventID]
	if !ok {
		if allowAbsent {
			return nil, nil
		}
		return nil, &UnknownEventError{EventID: eventID}
	}
	return l.checkRoom(ev, allowAbsent, eventID)
}

func (l *eventLoader) checkRoom(ev *Event, allowAbsent bool, eventID string) (*Event, error) {
	if ev == nil {
		if allowAbsent {
			return nil, nil
		}
		return nil, &UnknownEventError{EventID: eventID}
	}
	if ev.RoomID() != l.roomID {
		return nil, &WrongRoomError{ExpectedRoomID: l.roomID, EventID: ev.EventID(), ActualRoomID: ev.RoomID()}
	}
	return ev, nil
}

// loadMany bulk-fetches every id not already in the memo and merges the
// result in. It returns only an error: ids the store does not have are left
// out of the memo, and room membership is checked separately by verifyRoom.
// Used by the orchestration step that builds the full conflicted set
// (§4.10 steps 4-6).
func (l *eventLoader) loadMany(ctx context.Context, ids EventIDSet) error {
	var missing []string
	for id := range ids {
		if _, ok := l.memo[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fetched, err := l.db.GetEvents(ctx, missing, true)
	if err != nil {
		return fmt.Errorf("stateres: GetEvents: %w", err)
	}
	for id, ev := range fetched {
		l.memo[id] = ev
	}
	return nil
}

// verifyRoom checks every loaded event in the memo belongs to the
// resolution's room, failing fatally otherwise (§4.10 step 5, §3 invariant
// "every event referenced must belong to the given room").
func (l *eventLoader) verifyRoom() error {
	for _, ev := range l.memo {
		if ev.RoomID() != l.roomID {
			return &WrongRoomError{ExpectedRoomID: l.roomID, EventID: ev.EventID(), ActualRoomID: ev.RoomID()}
		}
	}
	return nil
}

// get returns the event for id if it is already in the memo, without going
// to the store. Used once loadMany has populated the memo.
func (l *eventLoader) get(id string) (*Event, bool) {
	ev, ok := l.memo[id]
	return ev, ok
}

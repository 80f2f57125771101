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

// isPowerEvent reports whether event is a "power event" as defined in §4.4:
// creates, power levels, join rules, or a kick/ban of someone other than
// the actor themself.
func isPowerEvent(event *Event) bool {
	switch event.Key() {
	case PowerLevelsKey, JoinRulesKey, CreateKey:
		return true
	}

	if event.Type() == MRoomMember {
		if membership, ok := event.Membership(); ok {
			if membership == MembershipLeave || membership == MembershipBan {
				return event.Sender() != event.StateKey()
			}
		}
	}

	return false
}

// senderPowerLevel determines the integer power level of event's sender
// according to the event's own auth events (§4.5).
func senderPowerLevel(ctx context.Context, event *Event, loader *eventLoader) (int64, error) {
	for _, authID := range event.AuthEventIDs() {
		authEvent, err := loader.load(ctx, authID, true)
		if err != nil {
			return 0, fmt.Errorf("stateres: loading auth event %s: %w", authID, err)
		}
		if authEvent == nil || authEvent.Key() != PowerLevelsKey {
			continue
		}
		return powerLevelOf(authEvent, event.Sender()), nil
	}

	// No power levels event in the auth events: fall back to the create
	// event. The first Create event encountered wins, matching the
	// "first encountered" rule (§9 Open Question).
	for _, authID := range event.AuthEventIDs() {
		authEvent, err := loader.load(ctx, authID, true)
		if err != nil {
			return 0, fmt.Errorf("stateres: loading auth event %s: %w", authID, err)
		}
		if authEvent == nil || authEvent.Key() != CreateKey {
			continue
		}
		if creator, ok := authEvent.contentString("creator"); ok && creator == event.Sender() {
			return 100, nil
		}
		return 0, nil
	}

	return 0, nil
}

// powerLevelOf reads userID's power level out of a power_levels event's
// content, falling back to users_default, falling back to 0.
func powerLevelOf(powerLevels *Event, userID string) int64 {
	if level, ok := powerLevels.contentInt("users." + escapeGJSONPath(userID)); ok {
		return level
	}
	if level, ok := powerLevels.contentInt("users_default"); ok {
		return level
	}
	return 0
}

// escapeGJSONPath escapes the characters gjson treats specially in path
// segments (user IDs start with '@' and routinely contain '.'; ':' is not
// special to gjson and is left as is).
func escapeGJSONPath(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '*', '?', '|', '@', '#':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

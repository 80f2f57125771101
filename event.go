// Copyright 2017 Vector Creations Ltd
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
	"github.com/tidwall/gjson"
)

// Well-known event types that the resolution algorithm treats specially.
const (
	MRoomCreate           = "m.room.create"
	MRoomPowerLevels      = "m.room.power_levels"
	MRoomJoinRules        = "m.room.join_rules"
	MRoomMember           = "m.room.member"
	MRoomThirdPartyInvite = "m.room.third_party_invite"
)

// Membership is the content.membership discriminant of an m.room.member event.
type Membership string

const (
	MembershipJoin   Membership = "join"
	MembershipLeave  Membership = "leave"
	MembershipBan    Membership = "ban"
	MembershipInvite Membership = "invite"
	MembershipKnock  Membership = "knock"
)

// StateKeyTuple identifies a slot of room state: the pair (event type,
// state key). Two events with the same StateKeyTuple describe the same
// slice of room state.
type StateKeyTuple struct {
	Type     string
	StateKey string
}

// PowerLevelsKey, JoinRulesKey and CreateKey are the StateKeyTuples that the
// power-event predicate (§4.4) treats specially. They always have an empty
// state key.
var (
	PowerLevelsKey = StateKeyTuple{Type: MRoomPowerLevels}
	JoinRulesKey   = StateKeyTuple{Type: MRoomJoinRules}
	CreateKey      = StateKeyTuple{Type: MRoomCreate}
)

// MemberKey returns the StateKeyTuple for the membership of the given user.
func MemberKey(userID string) StateKeyTuple {
	return StateKeyTuple{Type: MRoomMember, StateKey: userID}
}

// Event is a room event as consumed by the resolution algorithm. Its fields
// cannot be changed after NewEvent, except for the rejection flag set by
// Reject.
// It carries exactly the fields the algorithm needs (§3); everything else
// (signatures, hashes, redaction) is the caller's concern.
type Event struct {
	eventID        string
	roomID         string
	eventType      string
	stateKey       string
	sender         string
	content        []byte // raw JSON, read with gjson
	originServerTS int64
	authEventIDs   []string
	rejectedReason string
	rejected       bool
}

// NewEvent builds an Event from its required fields. content may be nil, in
// which case it is treated as an empty JSON object.
func NewEvent(eventID, roomID, eventType, stateKey, sender string, content []byte, originServerTS int64, authEventIDs []string) *Event {
	if content == nil {
		content = []byte("{}")
	}
	return &Event{
		eventID:        eventID,
		roomID:         roomID,
		eventType:      eventType,
		stateKey:       stateKey,
		sender:         sender,
		content:        content,
		originServerTS: originServerTS,
		authEventIDs:   authEventIDs,
	}
}

// Reject marks the event as rejected with the given reason. Rejected events
// remain walkable for their auth-event pointers but are never used as auth
// context entries (§9 "Rejected vs non-rejected events").
func (e *Event) Reject(reason string) {
	e.rejected = true
	e.rejectedReason = reason
}

func (e *Event) EventID() string       { return e.eventID }
func (e *Event) RoomID() string        { return e.roomID }
func (e *Event) Type() string          { return e.eventType }
func (e *Event) StateKey() string      { return e.stateKey }
func (e *Event) Sender() string        { return e.sender }
func (e *Event) Content() []byte       { return e.content }
func (e *Event) OriginServerTS() int64 { return e.originServerTS }
func (e *Event) AuthEventIDs() []string {
	return e.authEventIDs
}
func (e *Event) Rejected() bool       { return e.rejected }
func (e *Event) RejectedReason() string { return e.rejectedReason }

// Key returns the StateKeyTuple this event describes.
func (e *Event) Key() StateKeyTuple {
	return StateKeyTuple{Type: e.eventType, StateKey: e.stateKey}
}

// Membership returns the content.membership field of an m.room.member
// event. ok is false if the event isn't a membership event or the field is
// absent or not a recognised value.
func (e *Event) Membership() (membership Membership, ok bool) {
	if e.eventType != MRoomMember {
		return "", false
	}
	result := gjson.GetBytes(e.content, "membership")
	if !result.Exists() {
		return "", false
	}
	switch Membership(result.String()) {
	case MembershipJoin, MembershipLeave, MembershipBan, MembershipInvite, MembershipKnock:
		return Membership(result.String()), true
	default:
		return "", false
	}
}

// contentString returns the string value at path in the event's content, or
// ("", false) if the path doesn't resolve to a string.
func (e *Event) contentString(path string) (string, bool) {
	result := gjson.GetBytes(e.content, path)
	if !result.Exists() || result.Type != gjson.String {
		return "", false
	}
	return result.String(), true
}

// contentInt returns the integer value at path in the event's content,
// accepting both JSON numbers and numeric strings the way Matrix power
// level content historically has. ok is false if nothing usable was found.
func (e *Event) contentInt(path string) (int64, bool) {
	result := gjson.GetBytes(e.content, path)
	if !result.Exists() {
		return 0, false
	}
	switch result.Type {
	case gjson.Number:
		return result.Int(), true
	case gjson.String:
		n := gjson.Parse(result.String())
		if n.Type == gjson.Number {
			return n.Int(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

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

// Package authrules provides a stateres.AuthRules implementation of the
// default Matrix room authorization rules: who may create a room, join it,
// change its membership list, and change its power levels.
package authrules

import (
	"fmt"
	"strings"

	"github.com/mxroom/stateres"
	"github.com/tidwall/gjson"
)

// Default is the stock authorization rule set. It has no state of its own;
// every check is a pure function of the event and its auth context.
type Default struct{}

var _ stateres.AuthRules = Default{}

// AuthEventsRequired reports which state entries an event's auth context
// must carry before it can be checked, mirroring the per-type table the
// original Matrix auth rules define.
func (Default) AuthEventsRequired(event *stateres.Event) ([]stateres.StateKeyTuple, error) {
	if event.Type() == stateres.MRoomCreate {
		return nil, nil
	}

	required := []stateres.StateKeyTuple{stateres.CreateKey, stateres.PowerLevelsKey}

	if event.Type() == stateres.MRoomMember {
		required = append(required, stateres.JoinRulesKey)
		required = append(required, stateres.MemberKey(event.Sender()), stateres.MemberKey(event.StateKey()))
		if token, ok := thirdPartyInviteToken(event); ok {
			required = append(required, stateres.StateKeyTuple{Type: stateres.MRoomThirdPartyInvite, StateKey: token})
		}
	} else {
		required = append(required, stateres.MemberKey(event.Sender()))
	}

	return required, nil
}

// Check applies the per-type authorization predicate.
func (Default) Check(event *stateres.Event, authEvents stateres.AuthEventProvider) error {
	switch event.Type() {
	case stateres.MRoomCreate:
		return checkCreate(event)
	case stateres.MRoomMember:
		return checkMember(event, authEvents)
	case stateres.MRoomPowerLevels:
		return checkPowerLevels(event, authEvents)
	default:
		return checkDefault(event, authEvents)
	}
}

func notAllowed(format string, args ...interface{}) error {
	return &stateres.NotAllowedError{Message: fmt.Sprintf(format, args...)}
}

func domainFromID(id string) (string, error) {
	idx := strings.IndexByte(id, ':')
	if idx == -1 {
		return "", fmt.Errorf("authrules: %q has no domain separator", id)
	}
	return id[idx+1:], nil
}

func checkCreate(event *stateres.Event) error {
	roomDomain, err := domainFromID(event.RoomID())
	if err != nil {
		return err
	}
	senderDomain, err := domainFromID(event.Sender())
	if err != nil {
		return err
	}
	if roomDomain != senderDomain {
		return notAllowed("create event room ID domain %q does not match sender domain %q", roomDomain, senderDomain)
	}
	return nil
}

func loadCreator(authEvents stateres.AuthEventProvider) (string, error) {
	event, err := authEvents.Create()
	if err != nil {
		return "", err
	}
	if event == nil {
		return "", fmt.Errorf("authrules: no m.room.create event in auth context")
	}
	if creator := gjson.GetBytes(event.Content(), "creator"); creator.Exists() {
		return creator.String(), nil
	}
	return event.Sender(), nil
}

// loadMembership returns a user's current membership, defaulting to "leave"
// (never having been in the room behaves the same as having left it for
// every rule below).
func loadMembership(authEvents stateres.AuthEventProvider, userID string) (stateres.Membership, error) {
	event, err := authEvents.Member(userID)
	if err != nil {
		return "", err
	}
	if event == nil {
		return stateres.MembershipLeave, nil
	}
	membership, ok := event.Membership()
	if !ok {
		return stateres.MembershipLeave, nil
	}
	return membership, nil
}

func loadJoinRule(authEvents stateres.AuthEventProvider) (string, error) {
	event, err := authEvents.JoinRules()
	if err != nil {
		return "", err
	}
	if event == nil {
		return "invite", nil
	}
	rule := gjson.GetBytes(event.Content(), "join_rule")
	if !rule.Exists() {
		return "invite", nil
	}
	return rule.String(), nil
}

func checkSenderInRoom(event *stateres.Event, authEvents stateres.AuthEventProvider) error {
	membership, err := loadMembership(authEvents, event.Sender())
	if err != nil {
		return err
	}
	if membership != stateres.MembershipJoin {
		return notAllowed("sender %s is not in the room", event.Sender())
	}
	return nil
}

func checkMember(event *stateres.Event, authEvents stateres.AuthEventProvider) error {
	targetID := event.StateKey()
	if targetID == "" {
		return notAllowed("m.room.member event must have a non-empty state key")
	}
	newMembership, ok := event.Membership()
	if !ok {
		return notAllowed("m.room.member event has no recognised membership value")
	}

	creator, err := loadCreator(authEvents)
	if err != nil {
		return err
	}

	oldMembership, err := loadMembership(authEvents, targetID)
	if err != nil {
		return err
	}

	// The room creator's own join, directly authorized by the create event,
	// before any power_levels or join_rules event need exist.
	if targetID == event.Sender() && targetID == creator &&
		newMembership == stateres.MembershipJoin && oldMembership == stateres.MembershipLeave {
		return nil
	}

	pl, err := loadPowerLevels(authEvents, creator)
	if err != nil {
		return err
	}
	joinRule, err := loadJoinRule(authEvents)
	if err != nil {
		return err
	}

	if targetID == event.Sender() {
		switch newMembership {
		case stateres.MembershipJoin:
			if oldMembership == stateres.MembershipJoin {
				return nil
			}
			if oldMembership == stateres.MembershipLeave && joinRule == "public" {
				return nil
			}
			if oldMembership == stateres.MembershipInvite && (joinRule == "public" || joinRule == "invite") {
				return nil
			}
		case stateres.MembershipLeave:
			if oldMembership == stateres.MembershipJoin || oldMembership == stateres.MembershipInvite {
				return nil
			}
		}
		return notAllowed("%s is not allowed to change their own membership from %q to %q", targetID, oldMembership, newMembership)
	}

	senderMembership, err := loadMembership(authEvents, event.Sender())
	if err != nil {
		return err
	}
	if senderMembership != stateres.MembershipJoin {
		return notAllowed("sender %s is not in the room", event.Sender())
	}

	senderLevel := pl.userLevel(event.Sender())
	targetLevel := pl.userLevel(targetID)

	switch newMembership {
	case stateres.MembershipBan:
		if senderLevel >= pl.ban && senderLevel > targetLevel {
			return nil
		}
	case stateres.MembershipLeave:
		if oldMembership == stateres.MembershipBan {
			if senderLevel >= pl.ban {
				return nil
			}
		} else if senderLevel >= pl.kick && senderLevel > targetLevel {
			return nil
		}
	case stateres.MembershipInvite:
		if (oldMembership == stateres.MembershipLeave || oldMembership == stateres.MembershipInvite) && senderLevel >= pl.invite {
			return nil
		}
	}

	return notAllowed("%s is not allowed to change the membership of %s from %q to %q", event.Sender(), targetID, oldMembership, newMembership)
}

func checkPowerLevels(event *stateres.Event, authEvents stateres.AuthEventProvider) error {
	if err := checkSenderInRoom(event, authEvents); err != nil {
		return err
	}
	creator, err := loadCreator(authEvents)
	if err != nil {
		return err
	}
	oldPL, err := loadPowerLevels(authEvents, creator)
	if err != nil {
		return err
	}
	newPL := parsePowerLevels(event.Content(), creator)
	senderLevel := oldPL.userLevel(event.Sender())

	type levelPair struct{ old, new int64 }
	checks := []levelPair{
		{oldPL.ban, newPL.ban},
		{oldPL.invite, newPL.invite},
		{oldPL.kick, newPL.kick},
		{oldPL.redact, newPL.redact},
		{oldPL.stateDefault, newPL.stateDefault},
		{oldPL.eventDefault, newPL.eventDefault},
		{oldPL.usersDefault, newPL.usersDefault},
	}
	for evType := range unionKeys(oldPL.events, newPL.events) {
		checks = append(checks, levelPair{oldPL.eventLevel(evType), newPL.eventLevel(evType)})
	}
	for userID := range unionKeys(oldPL.users, newPL.users) {
		checks = append(checks, levelPair{oldPL.userLevel(userID), newPL.userLevel(userID)})
	}

	for _, c := range checks {
		if c.old == c.new {
			continue
		}
		if senderLevel < c.old || senderLevel < c.new {
			return notAllowed("sender %s with level %d cannot change a power level from %d to %d", event.Sender(), senderLevel, c.old, c.new)
		}
	}
	return nil
}

func checkDefault(event *stateres.Event, authEvents stateres.AuthEventProvider) error {
	if err := checkSenderInRoom(event, authEvents); err != nil {
		return err
	}
	creator, err := loadCreator(authEvents)
	if err != nil {
		return err
	}
	pl, err := loadPowerLevels(authEvents, creator)
	if err != nil {
		return err
	}
	senderLevel := pl.userLevel(event.Sender())
	required := pl.eventLevel(event.Type())
	if senderLevel < required {
		return notAllowed("sender %s with level %d cannot send %s (requires %d)", event.Sender(), senderLevel, event.Type(), required)
	}
	return nil
}

// powerLevels is the parsed content of an m.room.power_levels event, with
// the defaults Matrix specifies for every field that event may omit.
type powerLevels struct {
	ban, invite, kick, redact  int64
	stateDefault, eventDefault int64
	usersDefault               int64
	users                      map[string]int64
	events                     map[string]int64
}

func parsePowerLevels(content []byte, creator string) *powerLevels {
	pl := &powerLevels{
		ban: 50, kick: 50, redact: 50, stateDefault: 50,
		invite: 0, eventDefault: 0, usersDefault: 0,
		users:  map[string]int64{},
		events: map[string]int64{},
	}
	pl.ban = intFromJSON(content, "ban", pl.ban)
	pl.invite = intFromJSON(content, "invite", pl.invite)
	pl.kick = intFromJSON(content, "kick", pl.kick)
	pl.redact = intFromJSON(content, "redact", pl.redact)
	pl.stateDefault = intFromJSON(content, "state_default", pl.stateDefault)
	pl.eventDefault = intFromJSON(content, "events_default", pl.eventDefault)
	pl.usersDefault = intFromJSON(content, "users_default", pl.usersDefault)

	gjson.GetBytes(content, "users").ForEach(func(key, value gjson.Result) bool {
		pl.users[key.String()] = value.Int()
		return true
	})
	gjson.GetBytes(content, "events").ForEach(func(key, value gjson.Result) bool {
		pl.events[key.String()] = value.Int()
		return true
	})

	if len(pl.users) == 0 {
		pl.users[creator] = 100
	}
	return pl
}

func loadPowerLevels(authEvents stateres.AuthEventProvider, creator string) (*powerLevels, error) {
	event, err := authEvents.PowerLevels()
	if err != nil {
		return nil, err
	}
	if event == nil {
		return parsePowerLevels([]byte("{}"), creator), nil
	}
	return parsePowerLevels(event.Content(), creator), nil
}

func (pl *powerLevels) userLevel(userID string) int64 {
	if level, ok := pl.users[userID]; ok {
		return level
	}
	return pl.usersDefault
}

// eventLevel returns the level required to send a state event of the given
// type. Every event Check sees is a state event, so this never needs to
// fall back to eventDefault for a message event.
func (pl *powerLevels) eventLevel(eventType string) int64 {
	if level, ok := pl.events[eventType]; ok {
		return level
	}
	return pl.stateDefault
}

func intFromJSON(content []byte, path string, fallback int64) int64 {
	result := gjson.GetBytes(content, path)
	if !result.Exists() {
		return fallback
	}
	return result.Int()
}

func unionKeys(a, b map[string]int64) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func thirdPartyInviteToken(event *stateres.Event) (string, bool) {
	token := gjson.GetBytes(event.Content(), "third_party_invite.signed.token")
	if !token.Exists() || token.String() == "" {
		return "", false
	}
	return token.String(), true
}

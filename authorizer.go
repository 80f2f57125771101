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

	"github.com/sirupsen/logrus"
)

// authContextProvider implements AuthEventProvider over a plain map of
// (type, state key) -> *Event, the shape iterativeAuthorize builds fresh for
// every candidate (§4.8 step 1).
type authContextProvider map[StateKeyTuple]*Event

func (p authContextProvider) Create() (*Event, error)      { return p[CreateKey], nil }
func (p authContextProvider) PowerLevels() (*Event, error) { return p[PowerLevelsKey], nil }
func (p authContextProvider) JoinRules() (*Event, error)   { return p[JoinRulesKey], nil }
func (p authContextProvider) Member(stateKey string) (*Event, error) {
	return p[MemberKey(stateKey)], nil
}
func (p authContextProvider) ThirdPartyInvite(stateKey string) (*Event, error) {
	return p[StateKeyTuple{Type: MRoomThirdPartyInvite, StateKey: stateKey}], nil
}

// iterativeAuthorize applies each candidate event in order to a running
// copy of base, keeping it only if AuthRules.Check allows it against the
// auth context built from that event's own auth events overlaid with the
// room-version-required state entries of the running result (§4.8).
func iterativeAuthorize(
	ctx context.Context,
	log *logrus.Entry,
	candidateIDs []string,
	base StateMap,
	loader *eventLoader,
	rules AuthRules,
) (StateMap, error) {
	resolved := base.Clone()

	iterations := 0
	for _, id := range candidateIDs {
		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}

		event, err := loader.load(ctx, id, false)
		if err != nil {
			return nil, fmt.Errorf("stateres: loading candidate event %s: %w", id, err)
		}

		authContext := authContextProvider{}
		for _, authID := range event.AuthEventIDs() {
			authEvent, err := loader.load(ctx, authID, true)
			if err != nil {
				return nil, fmt.Errorf("stateres: loading auth event %s: %w", authID, err)
			}
			if authEvent == nil {
				log.WithFields(logrus.Fields{
					"event_id":      id,
					"auth_event_id": authID,
				}).Warn("auth event is missing, continuing without it")
				continue
			}
			if !authEvent.Rejected() {
				authContext[authEvent.Key()] = authEvent
			}
		}

		requiredKeys, err := rules.AuthEventsRequired(event)
		if err != nil {
			return nil, fmt.Errorf("stateres: AuthEventsRequired for %s: %w", id, err)
		}
		for _, key := range requiredKeys {
			currentID, ok := resolved[key]
			if !ok {
				continue
			}
			currentEvent, err := loader.load(ctx, currentID, false)
			if err != nil {
				return nil, fmt.Errorf("stateres: loading current state event %s: %w", currentID, err)
			}
			if !currentEvent.Rejected() {
				authContext[key] = currentEvent
			}
		}

		if err := rules.Check(event, authContext); err != nil {
			if IsNotAllowed(err) {
				continue
			}
			return nil, fmt.Errorf("stateres: checking event %s: %w", id, err)
		}

		resolved[event.Key()] = id
	}

	return resolved, nil
}

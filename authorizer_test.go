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
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

// stubRules is an AuthRules whose verdict is fixed per event ID, for
// exercising the iterative authorizer without a real rule set.
type stubRules struct {
	deny map[string]bool
}

func (r stubRules) AuthEventsRequired(event *Event) ([]StateKeyTuple, error) {
	return []StateKeyTuple{PowerLevelsKey}, nil
}

func (r stubRules) Check(event *Event, authEvents AuthEventProvider) error {
	if r.deny[event.EventID()] {
		return &NotAllowedError{Message: "denied by stub"}
	}
	return nil
}

func discardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestIterativeAuthorizeAppliesAllowedEvents(t *testing.T) {
	roomID := "!room:example.com"
	ev := NewEvent("ev1", roomID, MRoomJoinRules, "", "@a:example.com", nil, 1, nil)
	db := newFakeStore(ev)
	loader := newEventLoader(roomID, db, nil)

	resolved, err := iterativeAuthorize(context.Background(), discardLogger(), []string{"ev1"}, StateMap{}, loader, stubRules{})
	if err != nil {
		t.Fatalf("iterativeAuthorize: %v", err)
	}
	if resolved[JoinRulesKey] != "ev1" {
		t.Fatalf("expected ev1 to be applied, got %v", resolved)
	}
}

func TestIterativeAuthorizeDropsDeniedEvents(t *testing.T) {
	roomID := "!room:example.com"
	ev := NewEvent("ev1", roomID, MRoomJoinRules, "", "@a:example.com", nil, 1, nil)
	db := newFakeStore(ev)
	loader := newEventLoader(roomID, db, nil)

	base := StateMap{JoinRulesKey: "previous"}
	resolved, err := iterativeAuthorize(context.Background(), discardLogger(), []string{"ev1"}, base, loader, stubRules{deny: map[string]bool{"ev1": true}})
	if err != nil {
		t.Fatalf("iterativeAuthorize: %v", err)
	}
	if resolved[JoinRulesKey] != "previous" {
		t.Fatalf("expected previous state to survive a denied candidate, got %v", resolved)
	}
}

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

// RoomVersion identifies which set of authorization rules governs a room.
// It is opaque to this package; it is only ever handed back to the AuthRules
// implementation the caller supplies, and used in log lines and errors.
type RoomVersion string

// AuthEventProvider answers lookups for the four/five kinds of state an
// event's auth context can hold. Implementations may return (nil, nil) for
// "no such event known".
type AuthEventProvider interface {
	Create() (*Event, error)
	PowerLevels() (*Event, error)
	JoinRules() (*Event, error)
	Member(stateKey string) (*Event, error)
	ThirdPartyInvite(stateKey string) (*Event, error)
}

// AuthRules is the room-version interface the resolver consumes (§6). It is
// assumed correct: this package never second-guesses it, only reacts to
// whether Check returns a *NotAllowedError, some other error, or nil.
type AuthRules interface {
	// AuthEventsRequired returns the StateKeyTuples whose current value
	// must be present in an event's auth context in order to check it
	// (the room-version-dependent function referenced in §4.8 step 1).
	AuthEventsRequired(event *Event) ([]StateKeyTuple, error)

	// Check applies the authorization predicate to event given its auth
	// context. It must signal failure by returning a *NotAllowedError
	// directly, not wrapped (IsNotAllowed matches only that exact type),
	// and success by returning nil. Any other error is treated as fatal.
	Check(event *Event, authEvents AuthEventProvider) error
}

// NotAllowedError reports that an event failed authorization. It is not a
// fatal error: the iterative authorizer (§4.8) drops the offending event and
// continues.
type NotAllowedError struct {
	Message string
}

func (e *NotAllowedError) Error() string { return "stateres: event not allowed: " + e.Message }

// IsNotAllowed reports whether err represents an authorization failure
// rather than a fatal error, so callers of AuthRules.Check written outside
// this package's own authrules implementation can still participate
// correctly in §4.8 step 3.
func IsNotAllowed(err error) bool {
	_, ok := err.(*NotAllowedError)
	return ok
}

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

import "fmt"

// WrongRoomError is a domain-integrity fatal error (§7): an event loaded for
// a resolution turned out to belong to a different room than the one being
// resolved.
type WrongRoomError struct {
	ExpectedRoomID string
	EventID        string
	ActualRoomID   string
}

func (e *WrongRoomError) Error() string {
	return fmt.Sprintf(
		"stateres: attempting to resolve state for room %s with event %s which is in %s",
		e.ExpectedRoomID, e.EventID, e.ActualRoomID,
	)
}

// UnknownEventError is a domain-integrity fatal error (§7): a required
// event id could not be resolved and absence was not permitted at that call
// site.
type UnknownEventError struct {
	EventID string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("stateres: unknown event %s", e.EventID)
}

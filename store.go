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

import "context"

// EventDatabase is the store interface the resolver consumes (§6). The
// store is treated as read-only and is never mutated by this package.
type EventDatabase interface {
	// GetEvents bulk-fetches events by ID. It may omit IDs it cannot find;
	// callers must not assume the result contains every requested ID. When
	// allowRejected is true the store may include events that were
	// previously rejected.
	GetEvents(ctx context.Context, eventIDs []string, allowRejected bool) (map[string]*Event, error)

	// GetAuthChainDifference returns the set of event IDs that appear in
	// the auth chain of at least one of the given sets but not all of them
	// (§4.2).
	GetAuthChainDifference(ctx context.Context, sets []EventIDSet) (EventIDSet, error)
}

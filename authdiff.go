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

// authDifference delegates to the store to compute the set-theoretic union
// of the auth chains of each state set, minus their intersection (§4.2).
func authDifference(ctx context.Context, stateSets []StateMap, db EventDatabase) (EventIDSet, error) {
	sets := make([]EventIDSet, len(stateSets))
	for i, stateSet := range stateSets {
		ids := make(EventIDSet, len(stateSet))
		for _, id := range stateSet {
			ids.Add(id)
		}
		sets[i] = ids
	}

	diff, err := db.GetAuthChainDifference(ctx, sets)
	if err != nil {
		return nil, fmt.Errorf("stateres: GetAuthChainDifference: %w", err)
	}
	return diff, nil
}

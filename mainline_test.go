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
	"testing"
)

func buildMainlineChain(roomID string) []*Event {
	pl1 := NewEvent("pl1", roomID, MRoomPowerLevels, "", "@a:example.com", nil, 1, nil)
	pl2 := NewEvent("pl2", roomID, MRoomPowerLevels, "", "@a:example.com", nil, 2, []string{"pl1"})
	pl3 := NewEvent("pl3", roomID, MRoomPowerLevels, "", "@a:example.com", nil, 3, []string{"pl2"})
	pl4 := NewEvent("pl4", roomID, MRoomPowerLevels, "", "@a:example.com", nil, 4, []string{"pl3"})
	pl5 := NewEvent("pl5", roomID, MRoomPowerLevels, "", "@a:example.com", nil, 5, []string{"pl4"})
	return []*Event{pl1, pl2, pl3, pl4, pl5}
}

func TestMainlineDepths(t *testing.T) {
	roomID := "!room:example.com"
	chain := buildMainlineChain(roomID)
	db := newFakeStore(chain...)
	loader := newEventLoader(roomID, db, nil)

	mainline, err := buildMainline(context.Background(), "pl5", loader)
	if err != nil {
		t.Fatalf("buildMainline: %v", err)
	}
	if len(mainline) != 5 || mainline[0] != "pl5" || mainline[4] != "pl1" {
		t.Fatalf("unexpected mainline: %v", mainline)
	}

	depths := mainlineDepths(mainline)
	if depths["pl1"] != 1 || depths["pl5"] != 5 {
		t.Fatalf("unexpected depths: %v", depths)
	}
}

func TestMainlineSortOrdersByDepth(t *testing.T) {
	roomID := "!room:example.com"
	chain := buildMainlineChain(roomID)

	evDepth2 := NewEvent("evDepth2", roomID, "m.room.message", "", "@a:example.com", nil, 1000, []string{"pl2"})
	evDepth5 := NewEvent("evDepth5", roomID, "m.room.message", "", "@a:example.com", nil, 500, []string{"pl5"})

	db := newFakeStore(append(chain, evDepth2, evDepth5)...)
	loader := newEventLoader(roomID, db, nil)

	ids := []string{"evDepth5", "evDepth2"}
	if err := loader.loadMany(context.Background(), NewEventIDSet(append([]string{"pl1", "pl2", "pl3", "pl4", "pl5"}, ids...)...)); err != nil {
		t.Fatalf("loadMany: %v", err)
	}

	order, err := mainlineSort(context.Background(), ids, "pl5", loader)
	if err != nil {
		t.Fatalf("mainlineSort: %v", err)
	}
	if len(order) != 2 || order[0] != "evDepth2" || order[1] != "evDepth5" {
		t.Fatalf("expected [evDepth2 evDepth5] (shallower depth first), got %v", order)
	}
}

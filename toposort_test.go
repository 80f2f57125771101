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

import "testing"

type stringKey string

func (k stringKey) Less(other TopoKey) bool { return k < other.(stringKey) }

func TestLexicographicTopologicalSortRespectsEdges(t *testing.T) {
	// a -> b -> c : c must be emitted before b, b before a.
	graph := map[string]map[string]struct{}{
		"a": {"b": {}},
		"b": {"c": {}},
		"c": {},
	}
	key := func(node string) TopoKey { return stringKey(node) }

	order := lexicographicTopologicalSort(graph, key)

	pos := map[string]int{}
	for i, node := range order {
		pos[node] = i
	}
	if pos["c"] >= pos["b"] || pos["b"] >= pos["a"] {
		t.Fatalf("expected order c, b, a; got %v", order)
	}
}

func TestLexicographicTopologicalSortBreaksTiesByKey(t *testing.T) {
	// Two independent nodes with no edges between them: smaller key first.
	graph := map[string]map[string]struct{}{
		"z": {},
		"a": {},
	}
	key := func(node string) TopoKey { return stringKey(node) }

	order := lexicographicTopologicalSort(graph, key)

	if len(order) != 2 || order[0] != "a" || order[1] != "z" {
		t.Fatalf("expected [a z], got %v", order)
	}
}

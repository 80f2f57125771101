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

import "container/heap"

// TopoKey orders nodes within the lexicographic topological sort (§4.7):
// among nodes simultaneously eligible, the one with the smaller key (by
// Less) is yielded first.
type TopoKey interface {
	Less(other TopoKey) bool
}

// lexicographicTopologicalSort performs a reverse topological sort of graph
// (node -> set of out-edges), breaking ties between simultaneously-eligible
// nodes using key. For every edge (u -> v) in graph, v appears before u in
// the result. graph is consumed destructively (§4.7, §9 "Graph mutation
// during sort").
//
// In the acyclic case every node is emitted exactly once; cycles leave
// nodes unemitted, which should never happen here since the auth DAG is
// acyclic by construction.
func lexicographicTopologicalSort(graph map[string]map[string]struct{}, key func(node string) TopoKey) []string {
	reverse := make(map[string]map[string]struct{}, len(graph))
	for node, edges := range graph {
		if _, ok := reverse[node]; !ok {
			reverse[node] = map[string]struct{}{}
		}
		for edge := range edges {
			if _, ok := reverse[edge]; !ok {
				reverse[edge] = map[string]struct{}{}
			}
			reverse[edge][node] = struct{}{}
		}
	}

	h := &topoHeap{}
	heap.Init(h)
	for node, edges := range graph {
		if len(edges) == 0 {
			heap.Push(h, topoItem{node: node, key: key(node)})
		}
	}

	result := make([]string, 0, len(graph))
	iterations := 0
	for h.Len() > 0 {
		item := heap.Pop(h).(topoItem)
		result = append(result, item.node)

		for parent := range reverse[item.node] {
			out := graph[parent]
			delete(out, item.node)
			if len(out) == 0 {
				heap.Push(h, topoItem{node: parent, key: key(parent)})
			}
		}

		iterations++
		if iterations%yieldEveryIterations == 0 {
			yieldToScheduler()
		}
	}

	return result
}

type topoItem struct {
	node string
	key  TopoKey
}

// topoHeap is a container/heap.Interface min-heap ordered by topoItem.key,
// the same pattern the teacher's stateResV2ConflictedPowerLevelHeap uses.
type topoHeap []topoItem

func (h topoHeap) Len() int            { return len(h) }
func (h topoHeap) Less(i, j int) bool  { return h[i].key.Less(h[j].key) }
func (h topoHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topoHeap) Push(x interface{}) { *h = append(*h, x.(topoItem)) }
func (h *topoHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

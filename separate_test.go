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

func TestSeparateSingleSet(t *testing.T) {
	key := StateKeyTuple{Type: "m", StateKey: "@a"}
	sets := []StateMap{{key: "e1"}}

	unconflicted, conflicted := separate(sets)

	if len(conflicted) != 0 {
		t.Fatalf("expected no conflicted state, got %v", conflicted)
	}
	if got := unconflicted[key]; got != "e1" {
		t.Fatalf("expected e1, got %q", got)
	}
}

func TestSeparateAgreeingSets(t *testing.T) {
	keyA := StateKeyTuple{Type: "m", StateKey: "@a"}
	keyB := StateKeyTuple{Type: "m", StateKey: "@b"}
	set := StateMap{keyA: "e1", keyB: "e2"}

	unconflicted, conflicted := separate([]StateMap{set, set.Clone()})

	if len(conflicted) != 0 {
		t.Fatalf("expected no conflicted state, got %v", conflicted)
	}
	if len(unconflicted) != 2 || unconflicted[keyA] != "e1" || unconflicted[keyB] != "e2" {
		t.Fatalf("unexpected unconflicted state: %v", unconflicted)
	}
}

func TestSeparateDisjointKeysAreConflicted(t *testing.T) {
	keyA := StateKeyTuple{Type: "m", StateKey: "@a"}
	keyB := StateKeyTuple{Type: "m", StateKey: "@b"}

	setA := StateMap{keyA: "e1"}
	setB := StateMap{keyB: "e2"}

	unconflicted, conflicted := separate([]StateMap{setA, setB})

	if len(unconflicted) != 0 {
		t.Fatalf("expected empty unconflicted state, got %v", unconflicted)
	}
	if candidates, ok := conflicted[keyA]; !ok || !candidates.Contains("e1") || len(candidates) != 1 {
		t.Fatalf("expected {e1} for keyA, got %v", conflicted[keyA])
	}
	if candidates, ok := conflicted[keyB]; !ok || !candidates.Contains("e2") || len(candidates) != 1 {
		t.Fatalf("expected {e2} for keyB, got %v", conflicted[keyB])
	}
}

func TestSeparatePowerLevelConflict(t *testing.T) {
	setA := StateMap{PowerLevelsKey: "plA"}
	setB := StateMap{PowerLevelsKey: "plB"}

	unconflicted, conflicted := separate([]StateMap{setA, setB})

	if len(unconflicted) != 0 {
		t.Fatalf("expected no unconflicted state, got %v", unconflicted)
	}
	candidates := conflicted[PowerLevelsKey]
	if !candidates.Contains("plA") || !candidates.Contains("plB") || len(candidates) != 2 {
		t.Fatalf("expected {plA, plB}, got %v", candidates)
	}
}

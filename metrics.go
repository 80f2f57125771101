// Copyright 2020-2021 The Matrix.org Foundation C.I.C.
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

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(resolveDuration)
	prometheus.MustRegister(conflictedEntries)
}

var resolveDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "stateres",
		Subsystem: "v2",
		Name:      "resolve_duration_millis",
		Help:      "How long it takes Resolve to compute a room's state",
		Buckets: []float64{ // milliseconds
			5, 10, 25, 50, 75, 100, 250, 500,
			1000, 2000, 3000, 4000, 5000, 6000,
			7000, 8000, 9000, 10000, 15000, 20000,
		},
	},
	[]string{"room_id"},
)

var conflictedEntries = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "stateres",
		Subsystem: "v2",
		Name:      "conflicted_state_entries",
		Help:      "How many StateKeyTuples were conflicted going into a resolution",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	},
	[]string{"room_id"},
)

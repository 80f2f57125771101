// Copyright 2017 Vector Creations Ltd
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

// Package stateres implements the room state resolution algorithm version 2.
//
// Given several candidate views of a room's state, each produced by a
// different replica or federated server, Resolve deterministically computes
// the single authoritative view that every honest participant will agree
// on. The algorithm is pure with respect to its inputs and the event
// database it is given: identical inputs always yield an identical result,
// independent of how quickly the backing store answers.
//
// Signature and hash verification, full room-version auth rule catalogues,
// persistent storage and wire transport are all treated as the caller's
// responsibility; this package only consumes them through the narrow
// EventDatabase and AuthRules interfaces.
package stateres

// Copyright 2025 Poiesic Systems
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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrNotInitialized indicates the store was used before Init.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrDimensionMismatch indicates an inserted vector's length differs
	// from the dimension the store was initialized with.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDimensionConflict indicates an existing index was created with a
	// different dimension than the one requested.
	ErrDimensionConflict = errors.New("index dimension conflict")

	// ErrMissingChunkID indicates a chunk without a stamped id was handed
	// to the store.
	ErrMissingChunkID = errors.New("chunk id missing")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)

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


package core

import "fmt"

// ValidateFragment validates a Fragment according to domain rules.
//
// Validation rules:
//   - PageContent must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Metadata id / uniqueLoaderId (stamped during registration)
//   - Source (optional, loader-specific)
func ValidateFragment(fragment *Fragment) error {
	if fragment == nil {
		return fmt.Errorf("%w: fragment is nil", ErrInvalidFragment)
	}

	if fragment.PageContent == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrEmptyContent)
	}

	return nil
}

// ValidateLoaderRecord validates a LoaderRecord according to domain rules.
func ValidateLoaderRecord(record *LoaderRecord) error {
	if record == nil {
		return fmt.Errorf("loader record is nil")
	}

	if record.LoaderID == "" {
		return ErrEmptyLoaderID
	}

	if record.ChunkCount < 0 {
		return ErrInvalidChunkCount
	}

	return nil
}

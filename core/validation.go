// Copyright 2025 Palletic Systems
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

import (
	"fmt"
)

// ValidateMaterial validates a MaterialRecord according to domain rules.
//
// Validation rules:
//   - the record must carry a positive numeric id or a material code,
//     so PointID can produce a stable upsert key
//
// NOT validated (the builder substitutes placeholders):
//   - Description and the other display fields (may be empty)
//   - numeric fields (nil means not reported by the catalog)
func ValidateMaterial(record *MaterialRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMaterial)
	}

	if record.ID <= 0 && record.MaterialNo == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMaterial, ErrMissingIdentity)
	}

	return nil
}

// ValidatePoint validates an IndexedPoint before it is sent to the index.
//
// Validation rules:
//   - ID must be non-zero
//   - Vector must not be empty
func ValidatePoint(point *IndexedPoint) error {
	if point == nil {
		return fmt.Errorf("%w: point is nil", ErrInvalidPoint)
	}

	if point.ID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPoint, ErrZeroID)
	}

	if len(point.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPoint, ErrEmptyVector)
	}

	return nil
}

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

import "errors"

// Domain validation errors
var (
	// ErrInvalidMaterial indicates a MaterialRecord failed validation.
	ErrInvalidMaterial = errors.New("invalid material record")

	// ErrInvalidPoint indicates an IndexedPoint failed validation.
	ErrInvalidPoint = errors.New("invalid indexed point")

	// ErrMissingIdentity indicates a record carries neither a numeric id
	// nor a material code.
	ErrMissingIdentity = errors.New("record has no id and no material code")

	// ErrEmptyVector indicates a point has no embedding vector.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrZeroID indicates a point id resolved to zero.
	ErrZeroID = errors.New("point id cannot be zero")
)

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


// Package search answers semantic-similarity queries against the
// material index.
//
// The Searcher encodes the query text with the query role (never the
// passage role; asymmetric retrieval models require the distinction),
// delegates to the vector index, and returns the ranked results
// unchanged. Optional field-equality filters restrict the candidate set
// to payloads matching every given value.
package search

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


// Package ai provides abstractions for the embedding services used in Warevec.
//
// This package defines the Embedder interface for turning material documents
// and search queries into vectors. It follows the dependency inversion
// principle, allowing the ingestion pipeline and searcher to depend on
// abstractions rather than concrete implementations.
//
// # Role Prefixes
//
// The embedding models Warevec targets are retrieval-tuned: a text embedded
// as a search query must carry the "query: " prefix, and a text embedded for
// storage must carry the "passage: " prefix. The Embedder interface encodes
// the role in the method (EmbedQuery vs EmbedPassage) so call sites cannot
// get it wrong, and implementations strip any existing role prefix before
// applying their own so prefixes never stack when text is re-embedded.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithModel("intfloat/multilingual-e5-small"))
//	embedder, err := openai.NewEmbedder(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vec, err := embedder.EmbedQuery(ctx, "stainless hex bolt")
//
// The constructor probes the model once to learn the vector dimension;
// Dimension() reports that value for the life of the embedder, and every
// produced vector is checked against it.
package ai

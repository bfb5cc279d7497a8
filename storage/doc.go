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


// Package storage provides the storage abstraction layer for warevec.
//
// This package defines the interfaces that decouple storage implementation
// from the ingestion and search logic:
//
//   - VectorIndex: the vector store holding material embeddings
//     (implemented by storage/qdrant)
//   - JobArchive: durable snapshots of finished ingestion jobs
//     (implemented by storage/badger)
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable alternative backends:
//
//	index, err := qdrant.NewIndex(url)       // returns storage.VectorIndex
//	archive, err := badger.NewArchive(path)  // returns storage.JobArchive
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Usage
//
// Create an archive instance:
//
//	archive, err := badger.NewArchive("/var/lib/warevec/jobs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer archive.Close()
//
// Use in tests with in-memory storage:
//
//	archive, err := badger.NewMemoryArchive()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer archive.Close()
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
// Pass context.Background() for operations without specific timeout
// requirements.
package storage

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


// Package server exposes warevec over HTTP.
//
// The Handler binds the ingestion pipeline, the job registry and the
// searcher to the REST endpoints; NewRouter adds routing, request
// logging and Prometheus metrics on top. Service readiness is
// established once at startup by RunProbe and served unchanged by the
// health endpoints, never re-checked per request.
package server

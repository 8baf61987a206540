// Copyright 2026 Feedscope Authors
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


// Package storage defines the persistence interfaces of the ingestion
// pipeline and the binary serialization of register records.
//
// Three durable surfaces exist: the Register (an atomic key-value store
// holding the capture queue's handle list, configuration values and
// dead-letter records), the BlobStore (path-addressed image payloads), and
// the PostRepository (the relational analysis store). Backend implementations
// live in the storage/badger, storage/fs and storage/sqlite subpackages.
package storage

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


// Package ingestion orchestrates the consumer side of the capture queue:
// drain, transcribe, tokenize, embed, persist, acknowledge.
//
// The ordering discipline is the core of the package. A queue entry is
// acknowledged only after its outcome is durable, either as a stored post or
// as a dead-letter record. A crash at any point therefore loses no entry; at
// worst an entry is reprocessed, which the store detects through its
// handle-derived primary key.
package ingestion

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


// Package ai provides abstractions for the model collaborators used by the
// ingestion pipeline.
//
// Two collaborators are defined:
//
//   - Recognizer: transcribes the visible text of a screenshot image
//   - Embedder: turns a tokenized sequence into a sentence embedding
//
// The pipeline depends only on these interfaces; concrete implementations
// live in sub-packages:
//
//   - ai/openai: vision transcription via OpenAI-compatible chat APIs
//   - ai/infer: embedding via a local HTTP inference service
//   - ai/mock: deterministic test doubles
//
// Public constructors in the implementation packages return the interface
// types. The mock package returns concrete types so tests can inject
// behavior through function fields and assert on call counts.
//
// Either collaborator reports ErrModelUnavailable when its backing service
// cannot be reached. Callers distinguish this from a bad input: an
// unavailable model is retryable, a rejected input is not.
package ai

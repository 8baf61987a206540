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


// Package tokenizer implements a WordPiece-style subword encoder that turns
// raw text into the fixed-length token id / attention mask pairs consumed by
// sentence embedding models.
//
// Encoding is deterministic and pure: the same text and length always produce
// the same Encoding, and no state is mutated by Encode. The vocabulary is a
// static resource supplied at construction; a tokenizer whose vocabulary
// fails to load reports the error once from the constructor.
package tokenizer

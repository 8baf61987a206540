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


// Package queue implements the durable capture queue between the screenshot
// producer and the analysis consumer. Queue state lives entirely in shared
// durable storage: an ordered handle list in the register and the image
// payloads in a blob store. An entry survives process crashes until it is
// explicitly acknowledged.
package queue

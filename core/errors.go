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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidPost indicates an AnalyzedPost failed validation.
	ErrInvalidPost = errors.New("invalid analyzed post")

	// ErrInvalidTopic indicates a Topic failed validation.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidPattern indicates a DetectedPattern failed validation.
	ErrInvalidPattern = errors.New("invalid detected pattern")

	// ErrEmptyImagePath indicates the ImagePath field is empty.
	ErrEmptyImagePath = errors.New("image path cannot be empty")

	// ErrNilIdentifier indicates the post identifier is the zero UUID.
	ErrNilIdentifier = errors.New("identifier cannot be nil")

	// ErrKeywordWeightMismatch indicates keyword and weight lists differ in length.
	ErrKeywordWeightMismatch = errors.New("keywords and weights must have equal length")

	// ErrUnknownPatternType indicates a pattern type outside the closed set.
	ErrUnknownPatternType = errors.New("unknown pattern type")

	// ErrInvalidConfidence indicates a confidence value outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
)

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

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ValidatePost validates an AnalyzedPost according to domain rules.
//
// Validation rules:
//   - ID must not be the zero UUID
//   - ImagePath must not be empty
//
// NOT validated (populated by processors or legitimately absent):
//   - TextContent (recognition may produce an empty string)
//   - Embedding (nil until the embedding collaborator runs)
//   - Sentiment, entities, keywords, topic fields (dormant enrichment surface)
func ValidatePost(post *AnalyzedPost) error {
	if post == nil {
		return fmt.Errorf("%w: post is nil", ErrInvalidPost)
	}

	if post.ID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrNilIdentifier)
	}

	if post.ImagePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyImagePath)
	}

	return nil
}

// ValidateTopic validates a Topic according to domain rules.
func ValidateTopic(topic *Topic) error {
	if topic == nil {
		return fmt.Errorf("%w: topic is nil", ErrInvalidTopic)
	}

	if len(topic.Keywords) != len(topic.KeywordWeights) {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, ErrKeywordWeightMismatch)
	}

	return nil
}

// ValidatePattern validates a DetectedPattern according to domain rules.
func ValidatePattern(pattern *DetectedPattern) error {
	if pattern == nil {
		return fmt.Errorf("%w: pattern is nil", ErrInvalidPattern)
	}

	if !slices.Contains(PatternTypes, pattern.PatternType) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidPattern, ErrUnknownPatternType, pattern.PatternType)
	}

	if pattern.Confidence < 0 || pattern.Confidence > 1 {
		return fmt.Errorf("%w: %w: %f", ErrInvalidPattern, ErrInvalidConfidence, pattern.Confidence)
	}

	return nil
}

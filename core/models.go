package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// postIDNamespace is the UUID namespace for handle-derived post identifiers.
var postIDNamespace = uuid.MustParse("8f1d6f1e-2c4a-4d6b-9e3f-5a7c0b2d8e41")

// PostIDForHandle derives the identifier of an analyzed post from the blob
// handle it was processed from. The derivation is deterministic: a queue entry
// that is reprocessed after a crash produces the same identifier, so the
// store's primary key rejects the second insert instead of silently storing a
// duplicate row.
func PostIDForHandle(handle string) uuid.UUID {
	return uuid.NewSHA1(postIDNamespace, []byte(handle))
}

// Fingerprint computes a short content fingerprint of a byte payload using
// BLAKE2b. Identical payloads produce identical fingerprints.
func Fingerprint(data []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x", binary.LittleEndian.Uint64(sum))
}

// AnalyzedPost is the persisted unit of work: one captured screenshot after
// text recognition, with optional enrichment fields populated by later
// analysis stages.
type AnalyzedPost struct {
	ID          uuid.UUID
	Timestamp   time.Time
	ImagePath   string
	TextContent string

	// Embedding is the sentence embedding of TextContent. A nil slice means
	// the post has not been embedded yet; this is distinct from an empty
	// vector and selects the post for reprocessing.
	Embedding []float32

	SentimentScore *float32
	SentimentLabel *string
	Entities       map[string][]string
	Keywords       []string

	TopicID          *int64
	TopicProbability *float32
}

// NewAnalyzedPost creates a post for a recognized screenshot. The identifier
// is derived from the image handle (see PostIDForHandle) and the timestamp is
// set to the current time.
func NewAnalyzedPost(imagePath, textContent string) *AnalyzedPost {
	return &AnalyzedPost{
		ID:          PostIDForHandle(imagePath),
		Timestamp:   time.Now().UTC(),
		ImagePath:   imagePath,
		TextContent: textContent,
		Entities:    map[string][]string{},
		Keywords:    []string{},
	}
}

// Topic is a named cluster of posts sharing keyword structure. The topics
// table has no writer in the current pipeline; the type exists so the schema
// round-trips for forward compatibility.
type Topic struct {
	ID             int64
	Keywords       []string
	KeywordWeights []float32
	PostCount      int
	FirstSeen      time.Time
	LastSeen       time.Time
}

// PatternType classifies a detected feed pattern.
type PatternType string

const (
	PatternTopicAcceleration     PatternType = "topicAcceleration"
	PatternTopicShift            PatternType = "topicShift"
	PatternEchoChamber           PatternType = "echoChamber"
	PatternSentimentManipulation PatternType = "sentimentManipulation"
	PatternEntityRepetition      PatternType = "entityRepetition"
)

// PatternTypes lists all valid pattern classifications.
var PatternTypes = []PatternType{
	PatternTopicAcceleration,
	PatternTopicShift,
	PatternEchoChamber,
	PatternSentimentManipulation,
	PatternEntityRepetition,
}

// DetectedPattern records a suspicious structure detected across posts.
// Like Topic, it currently has no writer; the schema is preserved.
type DetectedPattern struct {
	ID          uuid.UUID
	Timestamp   time.Time
	PatternType PatternType
	Details     map[string]string
	Confidence  float32
}

// DeadLetter records a queue entry that exhausted its retry budget. The entry
// is removed from the active queue once the record is durable; it is never
// reprocessed.
type DeadLetter struct {
	Handle   string
	Reason   string
	Attempts int
	FailedAt time.Time
}

package badger

import (
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"

	"github.com/feedscope/feedscope/core"
	"github.com/feedscope/feedscope/storage"
)

// Key prefixes for register data
const (
	deadLetterPrefix = "dlq:"
	deadLetterIDSeq  = "dlqseq"
)

// makeDeadLetterKey generates a composite key for a dead-letter record.
// Format: prefix:timestamp:seq, BigEndian so lexicographic order is time order.
func makeDeadLetterKey(letter *core.DeadLetter, seq uint64) []byte {
	prefixBytes := []byte(deadLetterPrefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(letter.FailedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// AddDeadLetter durably records a dead-lettered queue entry.
func (r *Register) AddDeadLetter(ctx context.Context, letter *core.DeadLetter) error {
	seq, err := r.backend.GetSequence(deadLetterIDSeq)
	if err != nil {
		return err
	}
	defer seq.Release()

	next, err := seq.Next()
	if err != nil {
		return err
	}

	key := makeDeadLetterKey(letter, next)
	value := storage.MarshalDeadLetter(letter)

	return r.update(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
}

// ListDeadLetters returns up to limit dead-letter records, most recent first.
func (r *Register) ListDeadLetters(ctx context.Context, limit int) ([]*core.DeadLetter, error) {
	var letters []*core.DeadLetter

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(deadLetterPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the highest possible key under the prefix.
		seek := append([]byte(deadLetterPrefix), 0xFF)
		for iter.Seek(seek); iter.Valid() && len(letters) < limit; iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				letter, err := storage.UnmarshalDeadLetter(val)
				if err != nil {
					return err
				}
				letters = append(letters, letter)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return letters, err
}

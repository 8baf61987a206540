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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/feedscope/feedscope/core"
)

// handleListSer serializes the ordered handle list kept in the register.
var handleListSer = ord.NewSliceSer[string](ord.String)

// MarshalHandleList serializes an ordered handle list to bytes.
func MarshalHandleList(handles []string) []byte {
	buf := make([]byte, handleListSer.Size(handles))
	handleListSer.Marshal(handles, buf)
	return buf
}

// UnmarshalHandleList deserializes an ordered handle list from bytes.
// Nil or empty input yields an empty list.
func UnmarshalHandleList(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	handles, _, err := handleListSer.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: handle list: %w", ErrSerializationFailed, err)
	}
	return handles, nil
}

// deadLetterSer serializes core.DeadLetter records. Timestamps are stored as
// microseconds since the Unix epoch.
type deadLetterSer struct{}

// DeadLetterMUS is the serializer for dead-letter records.
var DeadLetterMUS = deadLetterSer{}

func (deadLetterSer) Marshal(letter core.DeadLetter, bs []byte) (n int) {
	n = ord.String.Marshal(letter.Handle, bs)
	n += ord.String.Marshal(letter.Reason, bs[n:])
	n += varint.Int.Marshal(letter.Attempts, bs[n:])
	n += varint.Int64.Marshal(letter.FailedAt.UnixMicro(), bs[n:])
	return
}

func (deadLetterSer) Unmarshal(bs []byte) (letter core.DeadLetter, n int, err error) {
	var n1 int
	letter.Handle, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	letter.Reason, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	letter.Attempts, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	letter.FailedAt = time.UnixMicro(micros).UTC()
	return
}

func (deadLetterSer) Size(letter core.DeadLetter) (size int) {
	size = ord.String.Size(letter.Handle)
	size += ord.String.Size(letter.Reason)
	size += varint.Int.Size(letter.Attempts)
	size += varint.Int64.Size(letter.FailedAt.UnixMicro())
	return
}

// MarshalDeadLetter serializes a DeadLetter to bytes.
func MarshalDeadLetter(letter *core.DeadLetter) []byte {
	buf := make([]byte, DeadLetterMUS.Size(*letter))
	DeadLetterMUS.Marshal(*letter, buf)
	return buf
}

// UnmarshalDeadLetter deserializes a DeadLetter from bytes.
func UnmarshalDeadLetter(data []byte) (*core.DeadLetter, error) {
	letter, _, err := DeadLetterMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: dead letter: %w", ErrSerializationFailed, err)
	}
	return &letter, nil
}

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

import "errors"

var (
	// ErrNotFound indicates that the requested key or blob was not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates a primary-key violation on insert.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrPrepareFailed indicates a statement could not be prepared.
	ErrPrepareFailed = errors.New("prepare failed")

	// ErrEncodingFailed indicates structured fields could not be serialized
	// to their persisted textual form.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrDeleteFailed indicates a bulk delete did not complete.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrRegisterUnavailable indicates the durable register cannot be
	// reached; callers should retry later.
	ErrRegisterUnavailable = errors.New("register unavailable")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")
)

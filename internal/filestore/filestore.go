// Copyright 2026 The OpenAdmit Authors
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

// Package filestore abstracts where submission attachments live. Paths are
// slash-separated keys relative to the store root, never absolute host paths.
package filestore

import (
	"context"
	"io"
)

// Store persists submission attachments.
type Store interface {
	// Save writes the object at path. size is the exact content length;
	// drivers that need it up front (object storage) rely on it.
	Save(ctx context.Context, path string, content io.Reader, size int64) error

	// Open returns the object's content. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes one object. Removing a missing object is not an
	// error: rollback may race with a failed Save.
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes every object under the given prefix.
	RemoveAll(ctx context.Context, prefix string) error
}

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

package id

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PublicCodeLength is the length of a form's public application code.
const PublicCodeLength = 6

// NewUUIDv7 generates a UUIDv7 string (time-ordered).
func NewUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is broken; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// NewPublicCode generates the short uppercase alphanumeric code embedded in a
// form's public application URL. Generated once at form creation and never
// regenerated.
func NewPublicCode() string {
	buf := make([]byte, PublicCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// Degenerate fallback, still unique enough per tenant.
		return strings.ToUpper(uuid.NewString()[:PublicCodeLength])
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// NewFileToken generates the collision-proof token used in stored upload
// filenames.
func NewFileToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

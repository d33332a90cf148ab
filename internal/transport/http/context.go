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

package http

import (
	"context"

	"github.com/openadmit/openadmit/internal/authz"
)

type contextKey string

const (
	tenantIDKey     contextKey = "tenant_id"
	userIDKey       contextKey = "user_id"
	roleKey         contextKey = "role"
	capabilitiesKey contextKey = "capabilities"
)

// GetUserID retrieves the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}
	return ""
}

// GetTenantID retrieves the authenticated tenant ID from context. Zero means
// no tenant context; request parameters are never a substitute.
func GetTenantID(ctx context.Context) int64 {
	if val, ok := ctx.Value(tenantIDKey).(int64); ok {
		return val
	}
	return 0
}

// GetRole retrieves the authenticated role from context.
func GetRole(ctx context.Context) string {
	if val, ok := ctx.Value(roleKey).(string); ok {
		return val
	}
	return ""
}

// GetCapabilities retrieves the resolved capability set from context.
func GetCapabilities(ctx context.Context) authz.Capabilities {
	if val, ok := ctx.Value(capabilitiesKey).(authz.Capabilities); ok {
		return val
	}
	return authz.Capabilities{}
}

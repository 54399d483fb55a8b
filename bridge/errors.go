// Copyright 2025 The Rivaas Authors
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

package bridge

import "errors"

// Static errors for better error handling and testing. These should be
// wrapped with fmt.Errorf and %w when context is needed.
var (
	// Registry/composition errors
	ErrDuplicateRouteName = errors.New("duplicate route name")
	ErrEmptyRouteName     = errors.New("route name must not be empty")

	// Bridge configuration errors
	ErrEmptyPrefix = errors.New("prefix must not be empty")

	// Dispatch errors
	ErrRouteNotFound         = errors.New("route not found")
	ErrMethodNotAllowed      = errors.New("method not allowed")
	ErrWrongKindForPath      = errors.New("route registered under a different transport kind")
	ErrOutputValidationFailed = errors.New("output validation failed (server bug)")
	ErrNotIterable           = errors.New("sse handler result is not iterable")
)

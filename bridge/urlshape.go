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

import "strings"

// ExtractRouteName implements the URL shape rule every adapter shares:
// {prefix}/{routeName}[/...ignored]. It returns the route name and whether
// path matched the prefix at all. Anything after the name segment is
// ignored by the dispatcher, per EXTERNAL INTERFACES.
func ExtractRouteName(path, prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		if !strings.HasPrefix(path, prefix) {
			return "", false
		}
		path = path[len(prefix):]
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", false
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", false
	}
	return path, true
}

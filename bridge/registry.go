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

import "fmt"

// Group is one name->entry grouping produced by Route/WSRoute calls, ready
// to be folded into a Registry by Compose.
type Group map[string]entry

// Add stores a route name with its built entry, taking the two-value return
// of Route/WSRoute directly, for ergonomic Group construction:
//
//	g := bridge.Group{}
//	g.Add(bridge.Route(...))
//	g.Add(bridge.WSRoute(...))
func (g Group) Add(name string, e entry) {
	g[name] = e
}

// Registry is the immutable mapping from route name to RouteDefinition
// (component A). It is built once by Compose and never mutated afterward.
type Registry struct {
	routes map[string]entry
}

// Compose merges any number of Groups into one Registry. A route name
// repeated across groups is a composition-time error, per the data model's
// identity invariant, and so is an empty name.
func Compose(groups ...Group) (*Registry, error) {
	merged := make(map[string]entry)
	for _, g := range groups {
		for name, e := range g {
			if name == "" {
				return nil, ErrEmptyRouteName
			}
			if _, exists := merged[name]; exists {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateRouteName, name)
			}
			merged[name] = e
		}
	}
	return &Registry{routes: merged}, nil
}

// lookup returns the entry for name and whether it was found.
func (r *Registry) lookup(name string) (entry, bool) {
	e, ok := r.routes[name]
	return e, ok
}

// Describe lists metadata for every registered route, sorted by name. This
// is the route introspection surface supplemented from original_source/
// (see SPEC_FULL.md §9); it never exposes handler closures.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.routes))
	for _, e := range r.routes {
		out = append(out, e.info)
	}
	// Stable, deterministic order for callers (docs generators, tests).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

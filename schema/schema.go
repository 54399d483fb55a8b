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

// Package schema binds the opaque validator API (component A) to a concrete
// implementation, github.com/santhosh-tekuri/jsonschema/v6, so routes can be
// declared and exercised end-to-end. The validator API itself remains
// out of core scope; this package is the one place that makes it concrete.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
)

// Error is returned by Schema.Validate on failure. It carries the issues
// array the dispatcher places under details.issues on a VALIDATION_ERROR
// envelope.
type Error struct {
	Issues []envelope.Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		parts[i] = iss.Path + ": " + iss.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Schema compiles and caches one JSON Schema document and validates
// arbitrary values (typically the result of json.Unmarshal into
// map[string]any, or a struct round-tripped through json.Marshal) against
// it.
type Schema struct {
	compiled *jsonschema.Schema
	once     sync.Once
	initErr  error
	id       string
	document string
}

// New returns a Schema that lazily compiles document (raw JSON Schema text)
// under the synthetic resource id id. Compilation happens on first Validate
// call, matching the teacher's getOrCompileSchema cache-on-first-use style.
func New(id, document string) *Schema {
	return &Schema{id: id, document: document}
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat() // enable format validation (email, uuid, ...), matching rivaas.dev/validation
		var doc any
		if err := json.Unmarshal([]byte(s.document), &doc); err != nil {
			s.initErr = fmt.Errorf("schema: decode document %s: %w", s.id, err)
			return
		}
		if err := c.AddResource(s.id, doc); err != nil {
			s.initErr = fmt.Errorf("schema: add resource %s: %w", s.id, err)
			return
		}
		sch, err := c.Compile(s.id)
		if err != nil {
			s.initErr = fmt.Errorf("schema: compile %s: %w", s.id, err)
			return
		}
		s.compiled = sch
	})
	return s.compiled, s.initErr
}

// Validate checks raw (arbitrary JSON-shaped Go value, typically decoded
// from a request body or query map) against the compiled schema. On failure
// it returns *Error carrying the issues array; on success it returns nil.
func (s *Schema) Validate(raw any) error {
	compiled, err := s.compile()
	if err != nil {
		return err
	}
	if err := compiled.Validate(raw); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &Error{Issues: []envelope.Issue{{Message: err.Error()}}}
		}
		var issues []envelope.Issue
		collect(verr, &issues)
		return &Error{Issues: issues}
	}
	return nil
}

func collect(verr *jsonschema.ValidationError, out *[]envelope.Issue) {
	if verr == nil {
		return
	}
	if len(verr.Causes) == 0 {
		path := strings.TrimPrefix(strings.Join(verr.InstanceLocation, "."), ".")
		*out = append(*out, envelope.Issue{Path: path, Message: verr.Error()})
		return
	}
	for _, cause := range verr.Causes {
		collect(cause, out)
	}
}

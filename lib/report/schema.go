// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
	"github.com/tidwall/jsonc"
)

//go:embed schema.jsonc
var schemaSource []byte

// ErrInvalid is wrapped by every [Validate] failure caused by the
// document itself (as opposed to a broken embedded schema).
var ErrInvalid = errors.New("report does not match schema")

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		compiledSchema, compileErr = compiler.Compile(jsonc.ToJSON(schemaSource))
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling report schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Schema returns the report JSON schema with comments stripped.
func Schema() []byte {
	return jsonc.ToJSON(schemaSource)
}

// Validate checks data against the report schema.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalid, result.Errors)
}

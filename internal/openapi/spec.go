// Package openapi provides the embedded OpenAPI specification served at
// /openapi.yaml.
package openapi

import _ "embed"

// Spec is the OpenAPI 3.1 specification (YAML).
//
//go:embed spec.yaml
var Spec []byte

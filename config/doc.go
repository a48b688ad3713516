// Package config loads the per-invocation parameters of the larmerge algorithms.
//
// What:
//
//   - Default() returns the shipped parameter set.
//   - Load(path) overlays a YAML document (gopkg.in/yaml.v3) on Default() and validates it.
//   - Validate() checks ranges and enum strings with go-playground/validator struct tags.
//
// Keys absent from the YAML document keep their default value. Unknown keys are rejected
// so a typo never silently falls back to a default.
//
// Errors:
//
//   - ErrRead     the file could not be read.
//   - ErrParse    the YAML document is malformed or carries unknown keys.
//   - ErrInvalid  a field failed validation; the message lists every failing field.
package config

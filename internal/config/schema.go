package config

import _ "embed"

// sourcesSchema is the JSON Schema every source registry file must satisfy.
//
//go:embed sources.schema.json
var sourcesSchema string

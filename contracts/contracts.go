// Package contracts embeds the published API and event contracts.
package contracts

import _ "embed"

// OpenAPI is the HTTP API contract
//
//go:embed openapi.yaml
var OpenAPI []byte

// AsyncAPI is the event contract of the orders topic
//
//go:embed asyncapi.yaml
var AsyncAPI []byte

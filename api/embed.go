// Package api holds the OpenAPI description of the users backend.
package api

import _ "embed"

// SwaggerJSON is the OpenAPI 2.0 document served next to the Swagger UI.
//
//go:embed swagger/users.swagger.json
var SwaggerJSON []byte

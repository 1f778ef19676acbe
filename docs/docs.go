// Package docs holds the swagger document served under /swagger/ when the
// binary is built with -tags=swagger. Regenerate with `swag init -g cmd/lmchat/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {"get": {"produces": ["text/plain"], "summary": "Liveness probe", "responses": {"200": {"description": "ok", "schema": {"type": "string"}}}}},
        "/readyz": {"get": {"produces": ["text/plain"], "summary": "Readiness probe; 200 once a session is open", "responses": {"200": {"description": "ready", "schema": {"type": "string"}}, "503": {"description": "not ready", "schema": {"type": "string"}}}}},
        "/status": {"get": {"produces": ["application/json"], "summary": "Session status", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}}},
        "/models": {"get": {"produces": ["application/json"], "summary": "List local GGUF models", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}, "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}},
        "/download": {"post": {"consumes": ["application/json"], "produces": ["application/x-ndjson"], "summary": "Download the model, streaming progress as NDJSON", "parameters": [{"description": "source and target", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.DownloadRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ProgressEvent"}}}}},
        "/session": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Open the chat session (load the engine)", "parameters": [{"description": "model override", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.SessionRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}, "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}, "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}},
            "delete": {"produces": ["application/json"], "summary": "Close the chat session and release the engine", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}}
        },
        "/chat": {"post": {"consumes": ["application/json"], "produces": ["application/x-ndjson"], "summary": "Send a user turn, streaming reply chunks as NDJSON", "parameters": [{"description": "user text", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChunkEvent"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}, "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}}
    },
    "definitions": {
        "types.ChatRequest": {"type": "object", "properties": {"text": {"type": "string", "example": "Tell me a joke."}}},
        "types.ChunkEvent": {"type": "object", "properties": {"chunk": {"type": "string"}, "done": {"type": "boolean"}, "mode": {"type": "string", "example": "delta"}, "error": {"type": "string"}}},
        "types.SessionRequest": {"type": "object", "properties": {"model_path": {"type": "string"}}},
        "types.DownloadRequest": {"type": "object", "properties": {"url": {"type": "string"}, "path": {"type": "string"}}},
        "types.ProgressEvent": {"type": "object", "properties": {"type": {"type": "string", "example": "progress"}, "percent": {"type": "number"}, "chunk_bytes": {"type": "integer"}, "bytes_downloaded": {"type": "integer"}, "total_bytes": {"type": "integer"}, "path": {"type": "string"}, "error": {"type": "string"}}},
        "types.Model": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "path": {"type": "string"}, "quant": {"type": "string", "example": "Q4_K_M"}, "family": {"type": "string", "example": "llama"}, "size_bytes": {"type": "integer"}}},
        "types.ModelsResponse": {"type": "object", "properties": {"models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}}},
        "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string", "example": "invalid JSON body"}, "code": {"type": "integer", "example": 400}}},
        "types.StatusResponse": {"type": "object", "properties": {"state": {"type": "string", "example": "ready"}, "backend": {"type": "string", "example": "cpu"}, "model_path": {"type": "string"}, "session_id": {"type": "string"}, "turns": {"type": "integer"}, "busy": {"type": "boolean"}, "engine_built": {"type": "boolean"}, "ready_since_unix": {"type": "integer"}, "last_error": {"type": "string"}, "uptime_seconds": {"type": "integer"}, "server_time_unix": {"type": "integer"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "lmchat API",
	Description:      "HTTP API for a local on-device chat session: model download, session lifecycle and streamed replies.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

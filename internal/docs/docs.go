// Package docs регистрирует swagger-описание API для /swagger/.
// Формат совпадает с выводом `swag init -g cmd/records/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/records": {
            "get": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List records",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "page number, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "page size", "name": "pagesize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Upload records",
                "parameters": [
                    {"type": "string", "description": "record id", "name": "guid[0]", "in": "formData", "required": true},
                    {"type": "file", "description": "file 1", "name": "file1[0]", "in": "formData", "required": true},
                    {"type": "file", "description": "file 2", "name": "file2[0]", "in": "formData", "required": true},
                    {"type": "file", "description": "file 3", "name": "file3[0]", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/api/records/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Delete record with its files",
                "parameters": [
                    {"type": "string", "description": "record id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/api/records/{id}/{fileNo}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["records"],
                "summary": "Download record file",
                "parameters": [
                    {"type": "string", "description": "record id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "file number (1..3)", "name": "fileNo", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/blob/{key}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["blob"],
                "summary": "Download blob by storage key",
                "parameters": [
                    {"type": "string", "description": "storage key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["blob"],
                "summary": "Delete blob by storage key",
                "parameters": [
                    {"type": "string", "description": "storage key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "domain.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "text": {"type": "string"}
            }
        },
        "domain.APIEnvelope": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/domain.APIError"},
                "response": {}
            }
        },
        "domain.Record": {
            "type": "object",
            "properties": {
                "created": {"type": "string"},
                "file1": {"type": "string"},
                "file2": {"type": "string"},
                "file3": {"type": "string"},
                "id": {"type": "string"},
                "updated": {"type": "string"}
            }
        },
        "domain.RecordPage": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Record"}},
                "total_pages": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "my-records API",
	Description:      "Потоковая загрузка записей guid + file1..file3 и доступ к сохранённым файлам.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

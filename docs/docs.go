// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package docs holds the OpenAPI 2.0 document served at /swagger/doc.json.
//
// The document follows the @-annotations in cmd/server/doc.go and on the
// handlers in internal/api. Running
//
//	swag init -g cmd/server/doc.go --parseInternal
//
// regenerates this file from them; keep both in step when a route changes.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/Rktim/movie-recommender-mlops/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service can serve retrieval", "schema": {"$ref": "#/definitions/api.HealthResponse"}}
                }
            }
        },
        "/recommend": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Recommendations"],
                "summary": "Recommend similar movies (original contract)",
                "parameters": [
                    {"type": "string", "description": "Movie title", "name": "movie", "in": "query", "required": true},
                    {"type": "integer", "default": 5, "description": "Number of recommendations", "name": "k", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Recommendations", "schema": {"$ref": "#/definitions/models.LegacyRecommendResponse"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/models.DetailResponse"}}
                }
            }
        },
        "/api/v1/recommendations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Recommendations"],
                "summary": "Recommend similar movies",
                "description": "Content-based retrieval followed by optional learned re-ranking",
                "parameters": [
                    {"type": "string", "description": "Movie title", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "default": 5, "description": "Number of recommendations", "name": "k", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Recommendations", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/metrics/snapshot": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Lifecycle"],
                "summary": "Persisted metrics snapshot and current window",
                "responses": {
                    "200": {"description": "Snapshot", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "503": {"description": "Metrics not configured", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/metrics/flush": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Lifecycle"],
                "summary": "Flush serving metrics",
                "description": "Closes the current serving window and persists the metrics snapshot",
                "responses": {
                    "200": {"description": "Snapshot written", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "Token lacks the admin role", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "503": {"description": "Metrics window not configured", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/models/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Models"],
                "summary": "Champion, challenger and rollback status",
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "503": {"description": "Model registry not configured", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/models/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Models"],
                "summary": "Promotion ledger, newest first",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum records", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "History", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/models/promote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Models"],
                "summary": "Promote a challenger",
                "description": "Compares a challenger report with the champion's and installs the challenger if it scores better.\nExplicit paths must name a .gob.gz artifact and a .json report inside the model registry.",
                "parameters": [
                    {"description": "Challenger paths; empty promotes the newest challenger", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.PromoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "Comparison finished", "schema": {"allOf": [{"$ref": "#/definitions/models.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.PromoteResponse"}}}]}},
                    "400": {"description": "Invalid request or path outside the registry", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "Token lacks the admin role", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "No challenger available", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "422": {"description": "Challenger failed validation", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/models/rollback": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Models"],
                "summary": "Roll back the champion",
                "description": "Reinstates the champion replaced by the last promotion",
                "responses": {
                    "200": {"description": "Rolled back", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "Token lacks the admin role", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "409": {"description": "No rollback model available", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/lifecycle/last": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Lifecycle"],
                "summary": "Report of the last lifecycle cycle",
                "responses": {
                    "200": {"description": "Last cycle", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "No cycle has run", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/v1/lifecycle/run": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Lifecycle"],
                "summary": "Run a lifecycle cycle",
                "description": "Evaluates the retrain trigger and, when it fires or force is set, trains and promotes a challenger",
                "parameters": [
                    {"description": "Set force to retrain even when the trigger does not fire", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.LifecycleRunRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cycle finished", "schema": {"allOf": [{"$ref": "#/definitions/models.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/lifecycle.CycleResult"}}}]}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "Token lacks the admin role", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "409": {"description": "A cycle is already running", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "uptime_seconds": {"type": "number"},
                "ranker_loaded": {"type": "boolean"},
                "model_version": {"type": "string"},
                "breaker_state": {"type": "string", "example": "closed"},
                "engine": {"type": "object"},
                "last_cycle_outcome": {"type": "string"},
                "last_cycle_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "data": {},
                "metadata": {"$ref": "#/definitions/models.Metadata"},
                "error": {"$ref": "#/definitions/models.APIError"}
            }
        },
        "models.Metadata": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string", "format": "date-time"},
                "query_time_ms": {"type": "integer"},
                "request_id": {"type": "string"}
            }
        },
        "models.LegacyRecommendResponse": {
            "type": "object",
            "properties": {
                "movie": {"type": "string"},
                "recommendations": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.DetailResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        },
        "models.PromoteRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "models/challengers/ranker_20260101_000000.gob.gz"},
                "report": {"type": "string", "example": "reports/ranker_20260101_000000.json"}
            }
        },
        "models.PromoteResponse": {
            "type": "object",
            "properties": {
                "promoted": {"type": "boolean"}
            }
        },
        "models.LifecycleRunRequest": {
            "type": "object",
            "properties": {
                "force": {"type": "boolean"}
            }
        },
        "lifecycle.CycleResult": {
            "type": "object",
            "properties": {
                "cycle_id": {"type": "string"},
                "started_at": {"type": "string", "format": "date-time"},
                "duration": {"type": "integer"},
                "forced": {"type": "boolean"},
                "retrain": {"type": "boolean"},
                "reasons": {"type": "array", "items": {"type": "string"}},
                "outcome": {"type": "string", "example": "promoted"},
                "pruned": {"type": "integer"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Admin JWT issued by cmd/admintoken. Send as: Bearer <token>",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Movie Recommender API",
	Description:      "Hybrid movie recommendations with a champion/challenger model lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

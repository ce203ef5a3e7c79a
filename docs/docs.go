// Package docs is generated by swag from the handler annotations. Regenerate
// with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Cosmic Watch"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/asteroids/feed": {
            "get": {
                "description": "Normalized NEOs for the 7 days ending at date (default: yesterday UTC), each with risk_score, risk_level and rationale.",
                "produces": ["application/json"],
                "tags": ["asteroids"],
                "summary": "Asteroid feed",
                "parameters": [
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FeedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/asteroids/risk": {
            "get": {
                "description": "Same objects as the feed, sorted by risk_score descending. Ties keep feed order.",
                "produces": ["application/json"],
                "tags": ["asteroids"],
                "summary": "Risk-ranked feed",
                "parameters": [
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FeedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/asteroids/categories": {
            "get": {
                "description": "Every tier key (LOW, MODERATE, HIGH, CRITICAL) is present; order within a tier follows the feed.",
                "produces": ["application/json"],
                "tags": ["asteroids"],
                "summary": "Feed grouped by risk tier",
                "parameters": [
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CategoriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/asteroids/{id}": {
            "get": {
                "description": "Fetches one object from NeoWs, normalizes it and attaches a risk assessment.",
                "produces": ["application/json"],
                "tags": ["asteroids"],
                "summary": "Asteroid details",
                "parameters": [
                    {"type": "string", "description": "NeoWs object id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AsteroidResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/alerts": {
            "get": {
                "description": "Alerts for the calling user, most recent first. Default limit comes from ALERT_LIST_LIMIT (50), max 200.",
                "produces": ["application/json"],
                "tags": ["alerts"],
                "summary": "List alerts",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "boolean", "description": "Only unread alerts", "name": "unread", "in": "query"},
                    {"enum": ["LOW", "MODERATE", "HIGH", "CRITICAL"], "type": "string", "description": "Minimum risk level", "name": "min_level", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AlertsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/alerts/{id}/read": {
            "patch": {
                "produces": ["application/json"],
                "tags": ["alerts"],
                "summary": "Mark alert read",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Alert id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Get profile",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ProfileResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Update profile",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/users.ProfileUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ProfileResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/chat/recent": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Recent chat messages",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/chat/messages": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Post chat message",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ChatRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.Scored": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "diameter": {"type": "number"},
                "miss_distance": {"type": "number"},
                "velocity": {"type": "number"},
                "hazardous": {"type": "boolean"},
                "close_approach_date": {"type": "string"},
                "risk_score": {"type": "integer"},
                "risk_level": {"type": "string", "enum": ["LOW", "MODERATE", "HIGH", "CRITICAL"]},
                "rationale": {"type": "string"}
            }
        },
        "handler.FeedResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "count": {"type": "integer"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "fetched_at": {"type": "string"},
                "asteroids": {"type": "array", "items": {"$ref": "#/definitions/handler.Scored"}}
            }
        },
        "handler.CategoriesResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "end_date": {"type": "string"},
                "fetched_at": {"type": "string"},
                "counts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "categories": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/handler.Scored"}}}
            }
        },
        "handler.AsteroidResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "asteroid": {"$ref": "#/definitions/handler.Scored"}
            }
        },
        "alerts.Record": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "asteroid_id": {"type": "string"},
                "asteroid_name": {"type": "string"},
                "close_approach_date": {"type": "string"},
                "risk_level": {"type": "string"},
                "read": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "handler.AlertsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "alerts": {"type": "array", "items": {"$ref": "#/definitions/alerts.Record"}}
            }
        },
        "users.AlertProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "watched_asteroids": {"type": "array", "items": {"type": "string"}},
                "alerts_enabled": {"type": "boolean"},
                "min_risk_level": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "users.ProfileUpdate": {
            "type": "object",
            "properties": {
                "watched_asteroids": {"type": "array", "items": {"type": "string"}},
                "alerts_enabled": {"type": "boolean"},
                "min_risk_level": {"type": "string"}
            }
        },
        "handler.ProfileResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "user": {"$ref": "#/definitions/users.AlertProfile"}
            }
        },
        "handler.ChatRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Cosmic Watch API",
	Description:      "Near-Earth object feed with risk scoring, per-user watch-lists and hourly risk alerts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

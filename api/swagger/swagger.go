package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "IEP Compliance API",
        "description": "Compliance monitoring and analytics engine for IEP case management",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Analytics", "description": "Caseload aggregation and trends"},
        {"name": "Compliance", "description": "Deadline and staleness scanning"},
        {"name": "Notifications", "description": "Per-user alert feed"},
        {"name": "Reports", "description": "Point-in-time report snapshots"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/analytics/overview": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Aggregated caseload metrics for the caller",
                "parameters": [
                    {"name": "range", "in": "query", "type": "string", "enum": ["week", "month", "quarter", "year"], "default": "month"},
                    {"name": "refresh", "in": "query", "type": "boolean", "description": "Drop cached aggregations before computing"}
                ],
                "responses": {
                    "200": {"description": "Aggregation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/compliance/scan": {
            "post": {
                "tags": ["Compliance"],
                "summary": "Scan accessible case records and create alerts",
                "responses": {
                    "200": {"description": "Scan summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Notification feed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Unread badge count",
                "responses": {
                    "200": {"description": "Unread count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notifications/{id}/read": {
            "patch": {
                "tags": ["Notifications"],
                "summary": "Mark one notification read",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Marked read"},
                    "403": {"description": "Not the recipient"},
                    "404": {"description": "Unknown notification"}
                }
            }
        },
        "/api/v1/notifications/read-all": {
            "patch": {
                "tags": ["Notifications"],
                "summary": "Mark all notifications read",
                "responses": {
                    "200": {"description": "Updated count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List the caller's report snapshots",
                "responses": {
                    "200": {"description": "Snapshot list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Request a report snapshot",
                "responses": {
                    "202": {"description": "Snapshot accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/api/v1/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Fetch one snapshot including data",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Snapshot detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner"},
                    "404": {"description": "Unknown snapshot"}
                }
            }
        },
        "/api/v1/reports/{id}/export": {
            "post": {
                "tags": ["Reports"],
                "summary": "Render a generated snapshot as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Signed download URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Snapshot not generated yet"}
                }
            }
        },
        "/api/v1/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a rendered export",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

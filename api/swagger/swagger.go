package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Incident Reporter API",
        "description": "Delivery incident reporting for workers and managers",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Shared-password login per role"},
        {"name": "Worker", "description": "Incident submission form"},
        {"name": "Incidents", "description": "Manager dashboard API"}
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
                    "200": {"description": "Database reachable"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/worker/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Worker login",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/manager/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Manager login",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout",
                "description": "Clears the named role and destroys the whole session",
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/LogoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/worker/submit": {
            "post": {
                "tags": ["Worker"],
                "summary": "Submit an incident",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "wolt_id", "type": "string", "required": true},
                    {"in": "formData", "name": "wolt_delivery_id", "type": "string", "required": true},
                    {"in": "formData", "name": "category", "type": "string", "required": true, "enum": ["late_delivery", "missing_items", "remake_approved", "refund_promised", "other"]},
                    {"in": "formData", "name": "amount", "type": "number", "required": false},
                    {"in": "formData", "name": "description", "type": "string", "required": false},
                    {"in": "formData", "name": "report_date", "type": "string", "required": true},
                    {"in": "formData", "name": "worker_name", "type": "string", "required": true},
                    {"in": "formData", "name": "screenshot", "type": "file", "required": false}
                ],
                "responses": {
                    "200": {"description": "Incident stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or upload error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "302": {"description": "Not logged in as worker"}
                }
            }
        },
        "/api/incidents": {
            "get": {
                "tags": ["Incidents"],
                "summary": "List incidents",
                "description": "Newest first. Returns a bare JSON array.",
                "parameters": [
                    {"in": "query", "name": "dateFrom", "type": "string", "required": false},
                    {"in": "query", "name": "dateTo", "type": "string", "required": false},
                    {"in": "query", "name": "category", "type": "string", "required": false},
                    {"in": "query", "name": "status", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Incident"}}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Manager login required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Incidents"],
                "summary": "Create incident (JSON)",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateIncidentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Incident stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/incidents/export": {
            "get": {
                "tags": ["Incidents"],
                "summary": "Export incidents",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"], "required": false},
                    {"in": "query", "name": "dateFrom", "type": "string", "required": false},
                    {"in": "query", "name": "dateTo", "type": "string", "required": false},
                    {"in": "query", "name": "category", "type": "string", "required": false},
                    {"in": "query", "name": "status", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Attachment"},
                    "400": {"description": "Invalid filter or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/incidents/{id}": {
            "get": {
                "tags": ["Incidents"],
                "summary": "Get incident",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Incident"}},
                    "400": {"description": "Invalid id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Incident not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Incidents"],
                "summary": "Update incident status",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateIncidentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Incident not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "LogoutRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["worker", "manager"]}
            }
        },
        "CreateIncidentRequest": {
            "type": "object",
            "required": ["wolt_id", "wolt_delivery_id", "category", "report_date", "worker_name"],
            "properties": {
                "wolt_id": {"type": "string"},
                "wolt_delivery_id": {"type": "string"},
                "category": {"type": "string"},
                "amount": {"type": "number"},
                "description": {"type": "string"},
                "report_date": {"type": "string"},
                "worker_name": {"type": "string"},
                "screenshot_path": {"type": "string"}
            }
        },
        "UpdateIncidentStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "resolved"]}
            }
        },
        "Incident": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "wolt_id": {"type": "string"},
                "wolt_delivery_id": {"type": "string"},
                "category": {"type": "string"},
                "amount": {"type": "number"},
                "description": {"type": "string"},
                "screenshot_path": {"type": "string"},
                "report_date": {"type": "string"},
                "worker_name": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
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
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"}
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

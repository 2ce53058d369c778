package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Sealbase API",
        "description": "Document signing workflow API",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login and magic-link authentication"},
        {"name": "Submissions", "description": "Signing submission lifecycle"},
        {"name": "Submitters", "description": "Public signing form access"},
        {"name": "Documents", "description": "Signed document downloads"},
        {"name": "Config", "description": "Application configuration"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/magic-link": {
            "post": {
                "tags": ["Auth"],
                "summary": "Generate a single-use magic login link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MagicLinkRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Magic link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/magic-login": {
            "get": {
                "tags": ["Auth"],
                "summary": "Consume a magic login token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or used token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "template_id", "in": "query", "type": "string"},
                    {"name": "template_folder", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "slug", "in": "query", "type": "string"},
                    {"name": "archived", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "before", "in": "query", "type": "string"},
                    {"name": "after", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Submission list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "Create submissions from a template",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateSubmissionRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created parties across all submissions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/submissions/{id}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Fetch a submission with submitters, documents and events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Submission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Submissions"],
                "summary": "Archive a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Archive timestamp", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/submitters/{slug}": {
            "get": {
                "tags": ["Submitters"],
                "summary": "Open a signing form by slug",
                "parameters": [
                    {"name": "slug", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Submitter snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Earlier parties incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/submitters/{slug}/complete": {
            "post": {
                "tags": ["Submitters"],
                "summary": "Complete a signing form",
                "parameters": [
                    {"name": "slug", "in": "path", "type": "string", "required": true},
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CompleteFormRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Completed submitter snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Earlier parties incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/documents/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a document via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/config/app-url": {
            "get": {
                "tags": ["Config"],
                "summary": "Resolve the configured application base URL",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Base URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Config"],
                "summary": "Update the application base URL",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateAppURLRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Updated base URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "MagicLinkRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "CreateSubmissionRequest": {
            "type": "object",
            "required": ["template_id"],
            "properties": {
                "template_id": {"type": "string"},
                "send_email": {"type": "boolean"},
                "order": {"type": "string", "enum": ["preserved", "random"]},
                "message": {"type": "object"},
                "emails": {"type": "string"},
                "submitters": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SubmitterSpec"}
                }
            }
        },
        "SubmitterSpec": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "values": {"type": "object"},
                "metadata": {"type": "object"},
                "completed": {"type": "boolean"},
                "send_email": {"type": "boolean"}
            }
        },
        "CompleteFormRequest": {
            "type": "object",
            "properties": {
                "values": {"type": "object"}
            }
        },
        "UpdateAppURLRequest": {
            "type": "object",
            "required": ["app_url"],
            "properties": {
                "app_url": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "next": {"type": "string"},
                "prev": {"type": "string"}
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
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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

// Package docs registers the OpenAPI description of the submission API with
// swag so gin-swagger can serve it at /swagger/doc.json. It mirrors the
// handler annotations; regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "Skiline Recruitment", "email": "info@skilinerecruitment.com"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/join-us": {
            "post": {
                "description": "Validates the form for its category, stores it, and answers immediately. Notification e-mails are sent in the background and never affect the response.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Submissions"],
                "summary": "Submit a job application",
                "operationId": "submitApplication",
                "parameters": [
                    {"type": "string", "description": "Idempotency key for safe retries (UUID recommended)", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Application form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validation.ApplicationInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SubmitResponse"}},
                    "400": {"description": "Invalid form data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contact": {
            "post": {
                "description": "Validates and stores the message, then e-mails the operator. A failed e-mail does not fail the request.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Submissions"],
                "summary": "Send a contact message",
                "operationId": "submitContact",
                "parameters": [
                    {"type": "string", "description": "Idempotency key for safe retries (UUID recommended)", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Contact form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validation.ContactInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SubmitResponse"}},
                    "400": {"description": "Invalid form data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/applications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns every stored application ordered by submission time.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List applications",
                "operationId": "listApplications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ApplicationsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/contacts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns every stored contact message ordered by submission time.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List contact messages",
                "operationId": "listContacts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ContactsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "validation.ApplicationInput": {
            "type": "object",
            "required": ["category", "name", "dateOfBirth", "contactNumber", "educationQualification"],
            "properties": {
                "category": {"type": "string", "enum": ["retired", "housewife", "telecalling", "field"]},
                "name": {"type": "string", "minLength": 2, "example": "Jane Doe"},
                "dateOfBirth": {"type": "string", "example": "1960-01-01"},
                "contactNumber": {"type": "string", "pattern": "^[0-9]{10,15}$", "example": "9841002700"},
                "email": {"type": "string", "example": ""},
                "educationQualification": {"type": "string", "example": "B.Com"},
                "lastDesignationTitle": {"type": "string", "description": "retired only", "example": "Manager"},
                "yearsOfExperience": {"type": "string", "description": "retired only", "enum": ["5+", "10+", "15+", "25+"]}
            }
        },
        "validation.ContactInput": {
            "type": "object",
            "required": ["name", "phone", "message"],
            "properties": {
                "name": {"type": "string", "minLength": 2},
                "email": {"type": "string"},
                "phone": {"type": "string", "pattern": "^[0-9]{10}$"},
                "message": {"type": "string", "minLength": 10}
            }
        },
        "validation.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string", "example": "phone"},
                "message": {"type": "string", "example": "Phone number must be at least 10 digits"}
            }
        },
        "handlers.SubmitResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Message sent successfully"},
                "submissionId": {"type": "string", "example": "0b7c7e52-6f0f-4a53-9f1b-7d7a4d2f8c11"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "validation_failed"},
                "message": {"type": "string", "example": "Invalid form data"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/validation.FieldError"}}
            }
        },
        "domain.StoredApplication": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "submittedAt": {"type": "string", "format": "date-time"},
                "category": {"type": "string"},
                "name": {"type": "string"},
                "dateOfBirth": {"type": "string"},
                "contactNumber": {"type": "string"},
                "email": {"type": "string"},
                "educationQualification": {"type": "string"},
                "lastDesignationTitle": {"type": "string"},
                "yearsOfExperience": {"type": "string"}
            }
        },
        "domain.StoredContact": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "submittedAt": {"type": "string", "format": "date-time"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.ApplicationsResponse": {
            "type": "object",
            "properties": {
                "applications": {"type": "array", "items": {"$ref": "#/definitions/domain.StoredApplication"}}
            }
        },
        "handlers.ContactsResponse": {
            "type": "object",
            "properties": {
                "contacts": {"type": "array", "items": {"$ref": "#/definitions/domain.StoredContact"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Skiline Recruitment API",
	Description:      "Job application and contact form submissions for the Skiline Recruitment site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

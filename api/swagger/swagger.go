package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PakUni Moderation API",
        "description": "Crowdsourced data-correction pipeline for the PakUni guidance app",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Reviewer authentication"},
        {"name": "Submissions", "description": "Data-correction intake and review queue"},
        {"name": "Rules", "description": "Auto-approval rule administration"},
        {"name": "Statistics", "description": "Moderation pipeline statistics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a reviewer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit a data correction",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions for the review queue",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "entityType", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["priority", "date", "trust"]},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/pending-ids": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List ids of pending submissions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Get submission detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/submissions/{id}/impact": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Estimate the records affected by a submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/claim": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Claim a pending submission for review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already claimed or finalized"}
                }
            }
        },
        "/submissions/{id}/review": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Review a submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewSubmissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Submission already finalized"}
                }
            }
        },
        "/submissions/bulk-review": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Review several submissions with one decision",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rules": {
            "get": {
                "tags": ["Rules"],
                "summary": "List auto-approval rules with lint warnings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rules/{id}": {
            "put": {
                "tags": ["Rules"],
                "summary": "Create or replace an auto-approval rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Rules"],
                "summary": "Delete an auto-approval rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rules/{id}/toggle": {
            "post": {
                "tags": ["Rules"],
                "summary": "Toggle a rule's enabled flag",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Moderation pipeline statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateSubmissionRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "entity_type": {"type": "string"},
                "entity_id": {"type": "string"},
                "field_name": {"type": "string"},
                "current_value": {"type": "string"},
                "proposed_value": {"type": "string"},
                "source_proof": {"type": "string"},
                "priority": {"type": "string"},
                "trust_level": {"type": "integer"},
                "auth_provider": {"type": "string"},
                "email_verified": {"type": "boolean"}
            },
            "required": ["type", "entity_type", "entity_id", "field_name", "proposed_value"]
        },
        "ReviewSubmissionRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["APPROVE", "REJECT"]},
                "reviewer_notes": {"type": "string"},
                "rejection_reason": {"type": "string"}
            },
            "required": ["action"]
        },
        "BulkReviewRequest": {
            "type": "object",
            "properties": {
                "submission_ids": {"type": "array", "items": {"type": "string"}},
                "action": {"type": "string", "enum": ["APPROVE", "REJECT"]},
                "reviewer_notes": {"type": "string"},
                "rejection_reason": {"type": "string"}
            },
            "required": ["submission_ids", "action"]
        },
        "UpsertRuleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "enabled": {"type": "boolean"},
                "priority": {"type": "integer"},
                "min_trust_level": {"type": "integer"},
                "submission_types": {"type": "array", "items": {"type": "string"}},
                "max_value_change_percent": {"type": "number"},
                "require_source": {"type": "boolean"},
                "require_email_verified": {"type": "boolean"},
                "allowed_auth_providers": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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

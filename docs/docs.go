// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register an account",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/User"}},
                    "400": {"description": "Validation or conflict error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/auth/token": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange credentials for an access token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Token"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/auth/profile": {
            "get": {
                "tags": ["auth"],
                "security": [{"Bearer": []}],
                "summary": "Current account",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}
            }
        },
        "/invoices": {
            "get": {
                "tags": ["invoices"],
                "security": [{"Bearer": []}],
                "summary": "List visible invoices",
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["PENDING", "PAID"]},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InvoicePage"}}}
            },
            "post": {
                "tags": ["invoices"],
                "security": [{"Bearer": []}],
                "summary": "Create a PENDING invoice and its Sale transaction",
                "parameters": [
                    {"in": "header", "name": "Idempotency-Key", "type": "string"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInvoiceInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Invoice"}},
                    "400": {"description": "Validation or conflict error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/invoices/{id}": {
            "get": {
                "tags": ["invoices"],
                "security": [{"Bearer": []}],
                "summary": "Retrieve an invoice",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Invoice"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["invoices"],
                "security": [{"Bearer": []}],
                "summary": "Change invoice status; every other field is immutable",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/InvoiceUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Invoice"}},
                    "400": {"description": "Immutable field, invalid transition or validation error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/invoices/{id}/pay": {
            "patch": {
                "tags": ["invoices"],
                "security": [{"Bearer": []}],
                "summary": "Mark a PENDING invoice PAID and record its Payment transaction",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "header", "name": "Idempotency-Key", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Invoice"}},
                    "400": {"description": "Invoice is not PENDING", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/invoices/{id}/pdf": {
            "post": {
                "tags": ["invoices"],
                "security": [{"Bearer": []}],
                "summary": "Render the invoice as PDF and return a download link",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/DocumentLink"}}}
            }
        },
        "/transactions": {
            "get": {
                "tags": ["transactions"],
                "security": [{"Bearer": []}],
                "summary": "List visible ledger entries",
                "parameters": [
                    {"in": "query", "name": "invoice_id", "type": "string"},
                    {"in": "query", "name": "type", "type": "string", "enum": ["Sale", "Payment"]},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/TransactionPage"}}}
            }
        },
        "/transactions/{id}": {
            "get": {
                "tags": ["transactions"],
                "security": [{"Bearer": []}],
                "summary": "Retrieve a ledger entry",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Transaction"}}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "RegisterInput": {
            "type": "object",
            "required": ["username", "email", "password", "password_confirm"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "password_confirm": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "LoginInput": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "is_staff": {"type": "boolean"},
                "date_joined": {"type": "string"}
            }
        },
        "Token": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user": {"$ref": "#/definitions/User"}
            }
        },
        "InvoiceItemInput": {
            "type": "object",
            "required": ["name", "quantity", "price"],
            "properties": {
                "name": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1, "maximum": 2147483647},
                "price": {"type": "string"}
            }
        },
        "CreateInvoiceInput": {
            "type": "object",
            "required": ["reference", "customer_name", "items"],
            "properties": {
                "reference": {"type": "string"},
                "customer_name": {"type": "string"},
                "customer_email": {"type": "string"},
                "customer_phone": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/InvoiceItemInput"}}
            }
        },
        "InvoiceUpdate": {
            "type": "object",
            "properties": {"status": {"type": "string", "enum": ["PENDING", "PAID"]}}
        },
        "InvoiceItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "price": {"type": "string"},
                "subtotal": {"type": "string"}
            }
        },
        "Invoice": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "reference": {"type": "string"},
                "customer_name": {"type": "string"},
                "customer_email": {"type": "string"},
                "customer_phone": {"type": "string"},
                "total_amount": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "PAID"]},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/InvoiceItem"}}
            }
        },
        "InvoicePage": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/Invoice"}}
            }
        },
        "Transaction": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "invoice_id": {"type": "string"},
                "transaction_type": {"type": "string", "enum": ["Sale", "Payment"]},
                "amount": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "TransactionPage": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/Transaction"}}
            }
        },
        "DocumentLink": {
            "type": "object",
            "properties": {
                "pdf_url": {"type": "string"},
                "object_name": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "invoicedesk API",
	Description:      "Invoices, settlement and the Sale/Payment ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served under /swagger.
// Keep it in step with the handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/storefront/backend"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "description": "Exchange email and password for a bearer access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "operationId": "login",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/identity.LoginInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Revoke the presented access token",
                "operationId": "logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "operationId": "me",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/orders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List the caller's orders, newest first",
                "operationId": "listOrders",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Atomically reserves stock for every line and records the order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place an order",
                "operationId": "placeOrder",
                "parameters": [
                    {
                        "description": "Cart contents",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ordering.PlaceOrderRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get one of the caller's orders",
                "operationId": "getOrder",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/products": {
            "get": {
                "description": "Paginated listing of active products with optional search, category and price filters",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List active products",
                "operationId": "listProducts",
                "parameters": [
                    {"type": "string", "description": "Matches name or category", "name": "search", "in": "query"},
                    {"type": "string", "description": "Matches name", "name": "name", "in": "query"},
                    {"type": "string", "description": "Comma separated category list", "name": "category", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Category list", "name": "categories", "in": "query"},
                    {"type": "string", "description": "Minimum price inclusive", "name": "min_price", "in": "query"},
                    {"type": "string", "description": "Maximum price inclusive", "name": "max_price", "in": "query"},
                    {"minimum": 1, "type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"minimum": 1, "type": "integer", "description": "Page size", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Get product by ID",
                "operationId": "getProduct",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Product ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/system/info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system information",
                "operationId": "getSystemInfo",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/system/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "operationId": "ping",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "details": {},
                "retryable": {"type": "boolean"}
            }
        },
        "dto.Meta": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "count": {"type": "integer"},
                "per_page": {"type": "integer"},
                "current_page": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_more_pages": {"type": "boolean"}
            }
        },
        "dto.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "filters": {}
            }
        },
        "handler.SuccessResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Logged out"}
            }
        },
        "identity.LoginInput": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "test@example.com"},
                "password": {"type": "string", "example": "password"}
            }
        },
        "ordering.PlaceOrderLine": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string", "example": "3f1c9a8e-6f0e-4a57-9d8a-0c7b2f7f6d11"},
                "quantity": {"type": "integer", "example": 2}
            }
        },
        "ordering.PlaceOrderRequest": {
            "type": "object",
            "required": ["products"],
            "properties": {
                "products": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ordering.PlaceOrderLine"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Product catalog and order placement API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package auth registers the Swagger 2.0 document served under /swagger/. It
// mirrors the swag annotations on the internal/auth/http handlers and must be
// kept in step with them by hand.
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "otoshop team"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "description": "Authenticates a username or email with a password. Returns an access token and sets the refreshToken cookie.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.TokenResponse"}},
                    "400": {"description": "INVALID_REQUEST", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "403": {"description": "ACCOUNT_DISABLED", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "423": {"description": "ACCOUNT_LOCKED", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "429": {"description": "RATE_LIMIT_EXCEEDED", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Clears the refreshToken cookie. Issued tokens stay valid until they expire.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.APIResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "description": "Mints a new access token from the refreshToken cookie, or from the body when no cookie is sent. The refresh token is not reissued.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Refresh the access token",
                "parameters": [
                    {
                        "description": "Refresh token when no cookie is sent",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/authsdk.RefreshRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.TokenResponse"}},
                    "401": {"description": "INVALID_OR_EXPIRED_REFRESH_TOKEN", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "description": "Creates a USER account. An identifier shaped like an email registers an email account, anything else a username.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register an account",
                "parameters": [
                    {
                        "description": "Registration",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.RegisterRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.APIResponse"}},
                    "400": {"description": "INVALID_REQUEST", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "409": {"description": "USERNAME_ALREADY_EXISTS, EMAIL_ALREADY_EXISTS or PHONE_ALREADY_EXISTS", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Checks the credential store and that a signing key is loaded",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List accounts",
                "parameters": [
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AccountListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Provision an account",
                "parameters": [
                    {
                        "description": "Account",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.CreateAccountRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/authsdk.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AccountResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/users/me/password": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["Users"],
                "summary": "Change own password",
                "parameters": [
                    {
                        "description": "Passwords",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.ChangePasswordRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "INVALID_REQUEST or INVALID_CURRENT_PASSWORD", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/users/username/{username}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Find an account by username",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AccountResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get an account",
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AccountResponse"}},
                    "404": {"description": "ACCOUNT_NOT_FOUND", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Changes username, email, role, status or password. A new password is re-hashed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Update an account",
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.UpdateAccountRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Delete an account",
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.APIResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 200},
                "data": {},
                "message": {"type": "string", "example": "success"}
            }
        },
        "authsdk.AccountListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/authsdk.AccountResponse"}},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "authsdk.AccountResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "avatarUrl": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "id": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string", "example": "USER"},
                "status": {"type": "string", "example": "ACTIVE"},
                "updatedAt": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "authsdk.ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string"}
            }
        },
        "authsdk.CreateAccountRequest": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "password": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string", "example": "USER"},
                "status": {"type": "string", "example": "ACTIVE"},
                "username": {"type": "string"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "keys": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string", "example": "admin"},
                "password": {"type": "string", "example": "admin"}
            }
        },
        "authsdk.RefreshRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "authsdk.RegisterRequest": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "fullName": {"type": "string", "example": "Jane Doe"},
                "identifier": {"type": "string", "example": "jane@example.com"},
                "password": {"type": "string", "example": "s3cret"},
                "phone": {"type": "string", "example": "0901234567"}
            }
        },
        "authsdk.TokenResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "expiresIn": {"type": "integer", "example": 900},
                "refreshToken": {"type": "string"},
                "tokenType": {"type": "string", "example": "Bearer"}
            }
        },
        "authsdk.UpdateAccountRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "status": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "httpx.ErrorBody": {
            "type": "object",
            "properties": {
                "errorCode": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "timestamp": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "otoshop Authentication API",
	Description:      "Stateless JWT authentication and authorization for the otoshop dealership backend.\n\nAccess tokens are HS256 JWTs sent as \"Authorization: Bearer {token}\". The refresh token travels in the HttpOnly refreshToken cookie.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

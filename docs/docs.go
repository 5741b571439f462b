// Package docs registers the OpenAPI document served under /swagger.
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
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Register a customer account", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already in use"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in with email and password", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Exchange a refresh token for a new pair", "responses": {"200": {"description": "OK"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Current user profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/auth/forgot-password": {"post": {"tags": ["auth"], "summary": "Email a password reset link", "responses": {"200": {"description": "OK"}}}},
        "/auth/reset-password": {"post": {"tags": ["auth"], "summary": "Set a new password with a reset token", "responses": {"200": {"description": "OK"}, "400": {"description": "Token invalid or expired"}}}},
        "/auth/confirm-email/{pin}": {"get": {"tags": ["auth"], "summary": "Confirm the account email with the mailed PIN", "security": [{"BearerAuth": []}], "parameters": [{"name": "pin", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "400": {"description": "PIN invalid or expired"}}}},
        "/auth/resend-confirm-email": {"post": {"tags": ["auth"], "summary": "Mail a fresh confirmation PIN", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Email already confirmed"}}}},
        "/auth/profile": {"patch": {"tags": ["auth"], "summary": "Update name, description or photo", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Password fields are not accepted"}}}},
        "/tours": {
            "get": {"tags": ["tours"], "summary": "List active tours", "parameters": [
                {"name": "page", "in": "query", "type": "integer"},
                {"name": "limit", "in": "query", "type": "integer"},
                {"name": "search", "in": "query", "type": "string"}
            ], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["tours"], "summary": "Submit a tour for review (partner)", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/tours/{id}": {"get": {"tags": ["tours"], "summary": "Tour details", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/tours/{id}/remaining-slots": {"post": {"tags": ["bookings"], "summary": "Seats left on a departure", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/reviews": {"post": {"tags": ["reviews"], "summary": "Review a tour (customer, once per tour)", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "404": {"description": "Tour not found"}, "409": {"description": "Already reviewed"}}}},
        "/reviews/tour/{tourId}": {"get": {"tags": ["reviews"], "summary": "A tour's reviews, newest first", "parameters": [{"name": "tourId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/bookings": {"post": {"tags": ["bookings"], "summary": "Book seats without payment (customer)", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Not enough seats"}}}},
        "/bookings/my": {"get": {"tags": ["bookings"], "summary": "Caller's bookings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/bookings/checkout-session": {"post": {"tags": ["payments"], "summary": "Open a hosted checkout session (customer)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Not enough seats"}, "502": {"description": "Payment provider error"}}}},
        "/admin/users": {"get": {"tags": ["admin"], "summary": "List non-admin users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/partners": {"post": {"tags": ["admin"], "summary": "Create a partner account", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/admin/tours/pending": {"get": {"tags": ["admin"], "summary": "Tours awaiting review", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/tours/{id}/approve": {"patch": {"tags": ["admin"], "summary": "Approve or reject a pending tour", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Tour is not pending"}}}},
        "/admin/users/{id}/ban": {"patch": {"tags": ["admin"], "summary": "Deactivate a user", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Fvivu API",
	Description:      "Tour marketplace: catalog, bookings, checkout and partner administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs registers the OpenAPI description of the booking API with swag
// so gin-swagger can serve it under /swagger/*any.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/booking": {
            "post": {
                "description": "Validates the booking, emails it to the business inbox with reply-to set to the customer,\nthen sends the customer a confirmation. A failed confirmation does not fail the request.\nLimited to 5 requests per client address per 15 minutes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Booking"],
                "summary": "Submit a booking request",
                "operationId": "createBooking",
                "parameters": [
                    {
                        "type": "string",
                        "example": "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab",
                        "description": "Key for safe retries; a repeat with the same body returns the first result",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "example": "sl-SI,en;q=0.8",
                        "description": "Language of the confirmation email (en, sl)",
                        "name": "Accept-Language",
                        "in": "header"
                    },
                    {
                        "description": "Booking form payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/booking.Request"}
                    }
                ],
                "responses": {
                    "200": {"description": "Booking accepted", "schema": {"$ref": "#/definitions/handlers.BookingResponse"}},
                    "400": {"description": "Missing fields or invalid email", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Idempotency-Key reused with a different body", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Not configured, provider failure or malformed body", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "booking.Request": {
            "type": "object",
            "properties": {
                "carType": {"type": "string", "example": "VW Golf"},
                "date": {"type": "string", "example": "2025-03-25"},
                "distance": {"type": "string", "example": "Up to 10 km"},
                "email": {"type": "string", "example": "jo@example.com"},
                "locale": {"type": "string", "example": "sl"},
                "locationType": {"type": "string", "example": "mobile"},
                "message": {"type": "string", "example": "Please call ahead, parking is tight."},
                "name": {"type": "string", "example": "Jo"},
                "phone": {"type": "string", "example": "+386 40 123 456"},
                "service": {"type": "string", "example": "Valeting – Full valet (From £120)"},
                "serviceCategory": {"type": "string", "example": "Valeting"}
            }
        },
        "handlers.BookingResponse": {
            "type": "object",
            "properties": {
                "id": {"description": "ID is the email provider's message id; omitted when the provider sent none.", "type": "string", "example": "mBq0bR7ZQ8yN3p3x0mC1Vg"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Missing required fields: date, message"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "AShineMobile Booking API",
	Description:      "Booking intake for the AShineMobile car detailing site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

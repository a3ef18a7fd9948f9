// Package docs holds the Swagger 2.0 document served under /swagger.
// Keep it in step with the handler annotations when routes change.
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
        "/billing/customers/{customerID}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "List a customer's statements",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Customer ID",
                        "name": "customerID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/dto.StatementResponse"
                            }
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to list statements",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/billing/generate": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Creates or refreshes one statement per customer with sales in the month. Delivered statements are only replaced with force.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "Generate monthly bills",
                "parameters": [
                    {
                        "description": "Billing period",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.GenerateBillsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.GenerationReportResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid period",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to generate bills",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/billing/monthly": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Returns statement summaries for the given month and year",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "List statements for a month",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Month (1-12)",
                        "name": "month",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Year",
                        "name": "year",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/dto.StatementSummaryResponse"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid period",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to list statements",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/billing/send-notification": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "Send a statement to the customer",
                "parameters": [
                    {
                        "description": "Statement and recipient",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.SendNotificationRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.NotificationResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid address",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Statement not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Statement regenerated during delivery",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "502": {
                        "description": "Delivery failed",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/billing/statements/{statementID}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Returns the statement with its frozen lines and the current state of the sales it covers",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "Get a statement",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Statement ID",
                        "name": "statementID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.StatementDetailResponse"
                        }
                    },
                    "404": {
                        "description": "Statement not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to retrieve statement",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/billing/statements/{statementID}/export": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "Export a statement",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Statement ID",
                        "name": "statementID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "pdf or xlsx",
                        "name": "format",
                        "in": "query",
                        "enum": [
                            "pdf",
                            "xlsx"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Unsupported format",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Statement not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to export statement",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/billing/statements/{statementID}/payments": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Applies the amount to the statement's unpaid sales, oldest first, then reissues the statement",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "billing"
                ],
                "summary": "Record a payment against a statement",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Statement ID",
                        "name": "statementID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Payment",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.StatementPaymentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.StatementPaymentResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid amount",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Statement not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Concurrent modification",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to record payment",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/customers": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "customers"
                ],
                "summary": "List customers",
                "parameters": [
                    {
                        "type": "boolean",
                        "description": "Only active customers",
                        "name": "activeOnly",
                        "in": "query",
                        "default": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/dto.CustomerResponse"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to list customers",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "customers"
                ],
                "summary": "Register a customer",
                "parameters": [
                    {
                        "description": "Customer details",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateCustomerRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.CustomerResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to create customer",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/customers/reconcile": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "customers"
                ],
                "summary": "Recompute every customer's outstanding balance",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.ReconciliationResult"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to reconcile balances",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/customers/{customerID}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "customers"
                ],
                "summary": "Get a customer",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Customer ID",
                        "name": "customerID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.CustomerResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to retrieve customer",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/customers/{customerID}/reconcile": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "customers"
                ],
                "summary": "Recompute a customer's outstanding balance",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Customer ID",
                        "name": "customerID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ReconcileResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to reconcile balance",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/guest-sales": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Guest sales are paid in full and never appear on a statement",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "Record an anonymous counter sale",
                "parameters": [
                    {
                        "description": "Sale details",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateGuestSaleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.SaleResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to create sale",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports storage reachability.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "root"
                ],
                "summary": "Show the status of server.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/sales": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Newest first, paginated with an opaque token",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "List sales",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Filter by customer",
                        "name": "customerID",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page size",
                        "name": "limit",
                        "in": "query",
                        "maximum": 100,
                        "minimum": 1,
                        "default": 20
                    },
                    {
                        "type": "string",
                        "description": "Token from the previous page",
                        "name": "nextToken",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListSalesResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid query",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to list sales",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Line totals and the sale total are computed from the items",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "Record a sale to a registered customer",
                "parameters": [
                    {
                        "description": "Sale details",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateSaleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.SaleResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to create sale",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/sales/{saleID}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "Get a sale",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Sale ID",
                        "name": "saleID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SaleResponse"
                        }
                    },
                    "404": {
                        "description": "Sale not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to retrieve sale",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Refused once the sale is included in a statement",
                "tags": [
                    "sales"
                ],
                "summary": "Delete a sale",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Sale ID",
                        "name": "saleID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Sale not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Sale already billed",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to delete sale",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/sales/{saleID}/payment": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Sets the new cumulative paid amount. It may only increase and never exceed the total.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "Record a payment on a sale",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Sale ID",
                        "name": "saleID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Paid amount",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RecordSalePaymentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SaleResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid amount",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Sale not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Concurrent modification",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to record payment",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.GenerationResult": {
            "type": "object",
            "properties": {
                "attempts": {
                    "type": "integer"
                },
                "balanceDue": {
                    "type": "string"
                },
                "customerID": {
                    "type": "string"
                },
                "customerName": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "outcome": {
                    "type": "string",
                    "enum": [
                        "CREATED",
                        "REPLACED",
                        "UNCHANGED",
                        "LOCKED",
                        "FAILED",
                        "SKIPPED"
                    ]
                },
                "outstandingBalance": {
                    "type": "string"
                },
                "salesCount": {
                    "type": "integer"
                },
                "statementID": {
                    "type": "string"
                },
                "totalPaid": {
                    "type": "string"
                },
                "totalSales": {
                    "type": "string"
                }
            }
        },
        "domain.PaymentAllocation": {
            "type": "object",
            "properties": {
                "amount": {
                    "type": "string"
                },
                "saleID": {
                    "type": "string"
                }
            }
        },
        "domain.ReconciliationResult": {
            "type": "object",
            "properties": {
                "changed": {
                    "type": "boolean"
                },
                "customerID": {
                    "type": "string"
                },
                "customerName": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "outstandingBalance": {
                    "type": "string"
                },
                "previousBalance": {
                    "type": "string"
                }
            }
        },
        "dto.CreateCustomerRequest": {
            "type": "object",
            "required": [
                "name",
                "phone"
            ],
            "properties": {
                "address": {
                    "type": "string"
                },
                "creditLimit": {
                    "type": "string",
                    "example": "5000"
                },
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                }
            }
        },
        "dto.CreateGuestSaleRequest": {
            "type": "object",
            "required": [
                "items",
                "saleDate"
            ],
            "properties": {
                "guestName": {
                    "type": "string"
                },
                "items": {
                    "type": "array",
                    "minItems": 1,
                    "items": {
                        "$ref": "#/definitions/dto.SaleItemRequest"
                    }
                },
                "paymentMethod": {
                    "type": "string",
                    "enum": [
                        "cash",
                        "upi",
                        "card"
                    ]
                },
                "saleDate": {
                    "type": "string",
                    "example": "2024-03-05"
                }
            }
        },
        "dto.CreateSaleRequest": {
            "type": "object",
            "required": [
                "customerID",
                "items",
                "saleDate"
            ],
            "properties": {
                "customerID": {
                    "type": "string"
                },
                "items": {
                    "type": "array",
                    "minItems": 1,
                    "items": {
                        "$ref": "#/definitions/dto.SaleItemRequest"
                    }
                },
                "paidAmount": {
                    "type": "string",
                    "example": "0"
                },
                "paymentMethod": {
                    "type": "string",
                    "enum": [
                        "cash",
                        "upi",
                        "card",
                        "credit"
                    ]
                },
                "saleDate": {
                    "type": "string",
                    "example": "2024-03-05"
                }
            }
        },
        "dto.CustomerResponse": {
            "type": "object",
            "properties": {
                "address": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "creditLimit": {
                    "type": "string"
                },
                "customerID": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                },
                "lastUpdatedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "name": {
                    "type": "string"
                },
                "outstandingBalance": {
                    "type": "string"
                },
                "overCreditLimit": {
                    "type": "boolean"
                },
                "phone": {
                    "type": "string"
                }
            }
        },
        "dto.GenerateBillsRequest": {
            "type": "object",
            "required": [
                "month",
                "year"
            ],
            "properties": {
                "force": {
                    "type": "boolean"
                },
                "month": {
                    "type": "integer",
                    "maximum": 12,
                    "minimum": 1
                },
                "year": {
                    "type": "integer",
                    "maximum": 9999,
                    "minimum": 2000
                }
            }
        },
        "dto.GenerationReportResponse": {
            "type": "object",
            "properties": {
                "created": {
                    "type": "integer"
                },
                "failed": {
                    "type": "integer"
                },
                "locked": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "month": {
                    "type": "integer"
                },
                "replaced": {
                    "type": "integer"
                },
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GenerationResult"
                    }
                },
                "unchanged": {
                    "type": "integer"
                },
                "year": {
                    "type": "integer"
                }
            }
        },
        "dto.ListSalesResponse": {
            "type": "object",
            "properties": {
                "nextToken": {
                    "type": "string"
                },
                "sales": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.SaleResponse"
                    }
                }
            }
        },
        "dto.NotificationResponse": {
            "type": "object",
            "properties": {
                "notificationStatus": {
                    "type": "string",
                    "enum": [
                        "NOT_SENT",
                        "SENT",
                        "FAILED"
                    ]
                },
                "notifiedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "providerMessageID": {
                    "type": "string"
                },
                "recipient": {
                    "type": "string"
                },
                "statementID": {
                    "type": "string"
                }
            }
        },
        "dto.ReconcileResponse": {
            "type": "object",
            "properties": {
                "customerID": {
                    "type": "string"
                },
                "outstandingBalance": {
                    "type": "string"
                }
            }
        },
        "dto.RecordSalePaymentRequest": {
            "type": "object",
            "required": [
                "paidAmount"
            ],
            "properties": {
                "paidAmount": {
                    "type": "string",
                    "example": "300.00"
                }
            }
        },
        "dto.SaleItemRequest": {
            "type": "object",
            "required": [
                "productID",
                "productName",
                "quantity",
                "unit",
                "unitPrice"
            ],
            "properties": {
                "productID": {
                    "type": "string"
                },
                "productName": {
                    "type": "string"
                },
                "quantity": {
                    "type": "string",
                    "example": "2"
                },
                "unit": {
                    "type": "string"
                },
                "unitPrice": {
                    "type": "string",
                    "example": "62.50"
                }
            }
        },
        "dto.SaleItemResponse": {
            "type": "object",
            "properties": {
                "lineTotal": {
                    "type": "string"
                },
                "productID": {
                    "type": "string"
                },
                "productName": {
                    "type": "string"
                },
                "quantity": {
                    "type": "string",
                    "example": "2"
                },
                "unit": {
                    "type": "string"
                },
                "unitPrice": {
                    "type": "string",
                    "example": "62.50"
                }
            }
        },
        "dto.SaleResponse": {
            "type": "object",
            "properties": {
                "createdAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "createdBy": {
                    "type": "string"
                },
                "customerID": {
                    "type": "string"
                },
                "customerName": {
                    "type": "string"
                },
                "isGuest": {
                    "type": "boolean"
                },
                "isPaid": {
                    "type": "boolean"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.SaleItemResponse"
                    }
                },
                "paidAmount": {
                    "type": "string"
                },
                "paymentMethod": {
                    "type": "string"
                },
                "saleDate": {
                    "type": "string"
                },
                "saleID": {
                    "type": "string"
                },
                "totalAmount": {
                    "type": "string"
                }
            }
        },
        "dto.SendNotificationRequest": {
            "type": "object",
            "required": [
                "statementID"
            ],
            "properties": {
                "recipientEmail": {
                    "type": "string"
                },
                "statementID": {
                    "type": "string"
                }
            }
        },
        "dto.StatementDetailResponse": {
            "type": "object",
            "properties": {
                "sales": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.SaleResponse"
                    }
                },
                "statement": {
                    "$ref": "#/definitions/dto.StatementResponse"
                }
            }
        },
        "dto.StatementLineResponse": {
            "type": "object",
            "properties": {
                "billedAmount": {
                    "type": "string"
                },
                "paidAmount": {
                    "type": "string"
                },
                "saleDate": {
                    "type": "string"
                },
                "saleID": {
                    "type": "string"
                }
            }
        },
        "dto.StatementPaymentRequest": {
            "type": "object",
            "required": [
                "amount"
            ],
            "properties": {
                "amount": {
                    "type": "string",
                    "example": "300.00"
                }
            }
        },
        "dto.StatementPaymentResponse": {
            "type": "object",
            "properties": {
                "allocations": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.PaymentAllocation"
                    }
                },
                "outcome": {
                    "type": "string",
                    "enum": [
                        "CREATED",
                        "REPLACED",
                        "UNCHANGED",
                        "LOCKED",
                        "FAILED",
                        "SKIPPED"
                    ]
                },
                "outstandingBalance": {
                    "type": "string"
                },
                "statement": {
                    "$ref": "#/definitions/dto.StatementResponse"
                }
            }
        },
        "dto.StatementResponse": {
            "type": "object",
            "properties": {
                "balanceDue": {
                    "type": "string"
                },
                "customerID": {
                    "type": "string"
                },
                "customerName": {
                    "type": "string"
                },
                "generatedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "lines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.StatementLineResponse"
                    }
                },
                "month": {
                    "type": "integer"
                },
                "notificationError": {
                    "type": "string"
                },
                "notificationStatus": {
                    "type": "string",
                    "enum": [
                        "NOT_SENT",
                        "SENT",
                        "FAILED"
                    ]
                },
                "notifiedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "salesCount": {
                    "type": "integer"
                },
                "statementID": {
                    "type": "string"
                },
                "totalPaid": {
                    "type": "string"
                },
                "totalSales": {
                    "type": "string"
                },
                "version": {
                    "type": "integer"
                },
                "year": {
                    "type": "integer"
                }
            }
        },
        "dto.StatementSummaryResponse": {
            "type": "object",
            "properties": {
                "balanceDue": {
                    "type": "string"
                },
                "customerID": {
                    "type": "string"
                },
                "customerName": {
                    "type": "string"
                },
                "generatedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "month": {
                    "type": "integer"
                },
                "notificationStatus": {
                    "type": "string",
                    "enum": [
                        "NOT_SENT",
                        "SENT",
                        "FAILED"
                    ]
                },
                "salesCount": {
                    "type": "integer"
                },
                "statementID": {
                    "type": "string"
                },
                "totalPaid": {
                    "type": "string"
                },
                "totalSales": {
                    "type": "string"
                },
                "year": {
                    "type": "integer"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Dairy Billing API",
	Description:      "Monthly billing generation and balance reconciliation for a dairy retail portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Balju API",
        "description": "Purchase order management for small businesses",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and account management"},
        {"name": "Orders", "description": "Purchase orders and the review workflow"},
        {"name": "Suppliers", "description": "Supplier registry"},
        {"name": "Items", "description": "Item registry"},
        {"name": "Units", "description": "Measurement unit registry"},
        {"name": "Dashboard", "description": "Aggregated order statistics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by email and password",
                "responses": {
                    "200": {"description": "Tokens and user info"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange a refresh token for a new access token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the current refresh token",
                "responses": {
                    "204": {"description": "Logged out"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change the current user's password",
                "responses": {
                    "204": {"description": "Password changed"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "User info"}
                }
            }
        },
        "/orders": {
            "get": {
                "tags": ["Orders"],
                "summary": "List orders with status, month and keyword filters",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"}
                }
            },
            "post": {
                "tags": ["Orders"],
                "summary": "Create an order; the total is recomputed server-side",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "tags": ["Orders"],
                "summary": "Get one order",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Orders"],
                "summary": "Update an order; approved orders are immutable",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "409": {"description": "Already approved"}
                }
            },
            "delete": {
                "tags": ["Orders"],
                "summary": "Delete a pending order",
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Already reviewed"}
                }
            }
        },
        "/orders/{id}/approve": {
            "post": {
                "tags": ["Orders"],
                "summary": "Approve a pending or rejected order",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "409": {"description": "Already approved"}
                }
            }
        },
        "/orders/{id}/reject": {
            "post": {
                "tags": ["Orders"],
                "summary": "Reject a pending order with a reason",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/orders/bulk-approve": {
            "post": {
                "tags": ["Orders"],
                "summary": "Approve a batch of orders atomically",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "412": {"description": "Batch contains missing or reviewed orders"}
                }
            }
        },
        "/orders/bulk-reject": {
            "post": {
                "tags": ["Orders"],
                "summary": "Reject a batch of orders atomically with one reason",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "412": {"description": "Batch contains missing or reviewed orders"}
                }
            }
        },
        "/orders/bulk-delete": {
            "post": {
                "tags": ["Orders"],
                "summary": "Delete a batch of pending orders atomically",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "412": {"description": "Batch contains reviewed orders"}
                }
            }
        },
        "/orders/upload": {
            "post": {
                "tags": ["Orders"],
                "summary": "Import orders from an xlsx workbook",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "Imported"},
                    "422": {"description": "Row errors; nothing imported"}
                }
            }
        },
        "/orders/template": {
            "get": {
                "tags": ["Orders"],
                "summary": "Download the xlsx import template",
                "responses": {
                    "200": {"description": "Workbook"}
                }
            }
        },
        "/orders/export": {
            "get": {
                "tags": ["Orders"],
                "summary": "Export filtered orders as xlsx, csv or pdf",
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/suppliers": {
            "get": {
                "tags": ["Suppliers"],
                "summary": "List suppliers",
                "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}
            },
            "post": {
                "tags": ["Suppliers"],
                "summary": "Create a supplier",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate name"}
                }
            }
        },
        "/suppliers/{id}": {
            "get": {"tags": ["Suppliers"], "summary": "Get a supplier", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "put": {"tags": ["Suppliers"], "summary": "Update a supplier", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "delete": {
                "tags": ["Suppliers"],
                "summary": "Delete an unreferenced supplier",
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Referenced by orders"}
                }
            }
        },
        "/suppliers/bulk-delete": {
            "post": {
                "tags": ["Suppliers"],
                "summary": "Delete a batch of unreferenced suppliers",
                "responses": {
                    "200": {"$ref": "#/responses/EnvelopeOK"},
                    "412": {"description": "Batch contains referenced suppliers"}
                }
            }
        },
        "/items": {
            "get": {"tags": ["Items"], "summary": "List items", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "post": {"tags": ["Items"], "summary": "Create an item", "responses": {"201": {"description": "Created"}}}
        },
        "/items/{id}": {
            "get": {"tags": ["Items"], "summary": "Get an item", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "put": {"tags": ["Items"], "summary": "Update an item", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "delete": {"tags": ["Items"], "summary": "Delete an unreferenced item", "responses": {"204": {"description": "Deleted"}}}
        },
        "/items/bulk-delete": {
            "post": {"tags": ["Items"], "summary": "Delete a batch of unreferenced items", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}}
        },
        "/units": {
            "get": {"tags": ["Units"], "summary": "List units", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "post": {"tags": ["Units"], "summary": "Create a unit", "responses": {"201": {"description": "Created"}}}
        },
        "/units/{id}": {
            "get": {"tags": ["Units"], "summary": "Get a unit", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "put": {"tags": ["Units"], "summary": "Update a unit", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}},
            "delete": {"tags": ["Units"], "summary": "Delete an unreferenced unit", "responses": {"204": {"description": "Deleted"}}}
        },
        "/units/bulk-delete": {
            "post": {"tags": ["Units"], "summary": "Delete a batch of unreferenced units", "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}}
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Cached dashboard summary",
                "responses": {"200": {"$ref": "#/responses/EnvelopeOK"}}
            }
        }
    },
    "responses": {
        "EnvelopeOK": {
            "description": "Success",
            "schema": {"$ref": "#/definitions/ResponseEnvelope"}
        }
    },
    "definitions": {
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

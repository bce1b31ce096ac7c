package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fleet Ops API",
        "description": "Administration API for school transport fleet operations",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "System", "description": "Probes and metrics"},
        {"name": "Auth", "description": "Admin login and tokens"},
        {"name": "Employees", "description": "Drivers, passenger assistants and office staff"},
        {"name": "Vehicles", "description": "Fleet vehicles and supplier updates"},
        {"name": "Schools", "description": "Schools served by routes"},
        {"name": "Routes", "description": "Routes and pickup sequencing"},
        {"name": "Passengers", "description": "Passengers and parent contacts"},
        {"name": "Call Logs", "description": "Inbound and outbound calls"},
        {"name": "Incidents", "description": "Incident reports"},
        {"name": "Certificates", "description": "Certificate expiry tracking"},
        {"name": "Dashboard", "description": "Fleet overview"},
        {"name": "Documents", "description": "Uploaded documents and requirements"},
        {"name": "Notifications", "description": "Expiry notifications and summaries"},
        {"name": "Audit", "description": "Audit trail"},
        {"name": "Portal", "description": "Token gated portals"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness probe (database and cache)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh access token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RefreshRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke refresh token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RefreshRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/employees": {
            "get": {
                "tags": ["Employees"],
                "summary": "List employees",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Employees"],
                "summary": "Create employee",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/EmployeeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/employees/{id}": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get employee",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Employees"],
                "summary": "Update employee",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/EmployeeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Employees"],
                "summary": "Delete employee",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/vehicles": {
            "get": {
                "tags": ["Vehicles"],
                "summary": "List vehicles",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "off_road", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Vehicles"],
                "summary": "Create vehicle",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/VehicleRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/vehicles/{id}": {
            "get": {
                "tags": ["Vehicles"],
                "summary": "Get vehicle",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Vehicles"],
                "summary": "Update vehicle",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/VehicleRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Vehicles"],
                "summary": "Delete vehicle",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/schools": {
            "get": {
                "tags": ["Schools"],
                "summary": "List schools",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Schools"],
                "summary": "Create school",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SchoolRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/schools/{id}": {
            "get": {
                "tags": ["Schools"],
                "summary": "Get school",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Schools"],
                "summary": "Update school",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SchoolRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Schools"],
                "summary": "Delete school",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/routes": {
            "get": {
                "tags": ["Routes"],
                "summary": "List routes",
                "parameters": [
                    {"name": "school_id", "in": "query", "type": "string"},
                    {"name": "driver_id", "in": "query", "type": "string"},
                    {"name": "vehicle_id", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Routes"],
                "summary": "Create route",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RouteRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/routes/{id}": {
            "get": {
                "tags": ["Routes"],
                "summary": "Get route",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Routes"],
                "summary": "Update route",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RouteRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Routes"],
                "summary": "Delete route",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/passengers": {
            "get": {
                "tags": ["Passengers"],
                "summary": "List passengers",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "school_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Passengers"],
                "summary": "Create passenger",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PassengerRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/passengers/{id}": {
            "get": {
                "tags": ["Passengers"],
                "summary": "Get passenger",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Passengers"],
                "summary": "Update passenger",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PassengerRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Passengers"],
                "summary": "Delete passenger",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/call-logs": {
            "get": {
                "tags": ["Call Logs"],
                "summary": "List call logs",
                "parameters": [
                    {"name": "caller_type", "in": "query", "type": "string"},
                    {"name": "route_id", "in": "query", "type": "string"},
                    {"name": "action_required", "in": "query", "type": "boolean"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Call Logs"],
                "summary": "Create call log",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CallLogRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/call-logs/{id}": {
            "get": {
                "tags": ["Call Logs"],
                "summary": "Get call log",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Call Logs"],
                "summary": "Update call log",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CallLogRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Call Logs"],
                "summary": "Delete call log",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/incidents": {
            "get": {
                "tags": ["Incidents"],
                "summary": "List incidents",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "severity", "in": "query", "type": "string"},
                    {"name": "route_id", "in": "query", "type": "string"},
                    {"name": "vehicle_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Incidents"],
                "summary": "Create incident",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/IncidentRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/incidents/{id}": {
            "get": {
                "tags": ["Incidents"],
                "summary": "Get incident",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Incidents"],
                "summary": "Update incident",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/IncidentRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Incidents"],
                "summary": "Delete incident",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/document-requirements": {
            "get": {
                "tags": ["Documents"],
                "summary": "List document requirements",
                "parameters": [
                    {"name": "subject_type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Create document requirement",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/DocumentRequirementRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/document-requirements/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Get document requirement",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Documents"],
                "summary": "Update document requirement",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/DocumentRequirementRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Documents"],
                "summary": "Delete document requirement",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/employees/{id}/driver": {
            "put": {
                "tags": ["Employees"],
                "summary": "Upsert driver profile",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/DriverProfileRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/employees/{id}/assistant": {
            "put": {
                "tags": ["Employees"],
                "summary": "Upsert passenger assistant profile",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AssistantProfileRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/employees/{id}/assistant/qr-token": {
            "post": {
                "tags": ["Employees"],
                "summary": "Rotate assistant portal token",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/vehicles/{id}/qr-token": {
            "post": {
                "tags": ["Vehicles"],
                "summary": "Rotate supplier portal token",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/vehicles/{id}/breakdown": {
            "post": {
                "tags": ["Vehicles"],
                "summary": "Report breakdown and take vehicle off road",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BreakdownRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/vehicles/{id}/updates": {
            "post": {"tags": ["Vehicles"], "summary": "Add vehicle note", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PortalVehicleRequest"}}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "get": {
                "tags": ["Vehicles"],
                "summary": "List vehicle updates",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/routes/form-options": {
            "get": {
                "tags": ["Routes"],
                "summary": "Drivers, assistants, vehicles and schools for the route form",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/routes/plan": {
            "post": {
                "tags": ["Routes"],
                "summary": "Preview stop sequencing after an assistant or time change",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RoutePlanRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/routes/{id}/geometry": {
            "get": {
                "tags": ["Routes"],
                "summary": "Route stops as GeoJSON",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "produces": ["application/geo+json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/certificates/expiring": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Certificates in an expiry window",
                "parameters": [
                    {"name": "window", "in": "query", "type": "string", "required": true},
                    {"name": "kind", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/certificates/summary": {
            "get": {
                "tags": ["Certificates"],
                "summary": "All expiry windows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/certificates/counts": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Expiry window counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/certificates/export": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Export an expiry window",
                "parameters": [
                    {"name": "window", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Fleet overview counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List documents for an owner",
                "parameters": [
                    {"name": "owner_type", "in": "query", "type": "string", "required": true},
                    {"name": "owner_id", "in": "query", "type": "string", "required": true},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Get document with signed download URL",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Documents"],
                "summary": "Delete document",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/documents/{id}/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download document",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "produces": ["application/octet-stream"],
                "responses": {"200": {"description": "File"}, "401": {"description": "Invalid token"}}
            }
        },
        "/api/v1/uploads/{target}/{ownerId}": {
            "post": {
                "tags": ["Documents"],
                "summary": "Upload and link files",
                "parameters": [
                    {"name": "target", "in": "path", "type": "string", "required": true},
                    {"name": "ownerId", "in": "path", "type": "string", "required": true},
                    {"name": "document_type", "in": "formData", "type": "string"},
                    {"name": "files[]", "in": "formData", "type": "file", "required": true}
                ],
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "subject_kind", "in": "query", "type": "string"},
                    {"name": "subject_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/notifications/{id}": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Get notification",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/notifications/{id}/resolve": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Resolve notification",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/notifications/expiry-sweep": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Queue an expiry sweep",
                "responses": {
                    "202": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/notifications/summaries": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List email summaries",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Notifications"],
                "summary": "Bundle pending notifications into a summary",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SummaryRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/audit-logs": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit logs",
                "parameters": [
                    {"name": "user_id", "in": "query", "type": "string"},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "resource", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Audit"],
                "summary": "Record audit entry",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AuditLogRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/metrics/snapshot": {
            "get": {
                "tags": ["System"],
                "summary": "JSON metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/portal/assistants/{token}": {
            "get": {
                "tags": ["Portal"],
                "summary": "Assistant portal summary",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portal/assistants/{token}/documents": {
            "post": {
                "tags": ["Portal"],
                "summary": "Assistant document upload",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {"name": "document_type", "in": "formData", "type": "string"},
                    {"name": "files[]", "in": "formData", "type": "file", "required": true}
                ],
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portal/vehicles/{token}": {
            "get": {
                "tags": ["Portal"],
                "summary": "Supplier vehicle status",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portal/vehicles/{token}/notes": {
            "post": {
                "tags": ["Portal"],
                "summary": "Add vehicle note",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PortalVehicleRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portal/vehicles/{token}/updates": {
            "post": {
                "tags": ["Portal"],
                "summary": "Post vehicle status update",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PortalVehicleRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portal/vehicles/{token}/breakdown": {
            "post": {
                "tags": ["Portal"],
                "summary": "Report breakdown",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PortalVehicleRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portal/documents/{token}": {
            "get": {
                "tags": ["Portal"],
                "summary": "Document request summary",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Portal"],
                "summary": "Upload requested document",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {"name": "document_type", "in": "formData", "type": "string"},
                    {"name": "files[]", "in": "formData", "type": "file", "required": true}
                ],
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "RefreshRequest": {"type": "object", "properties": {"refresh_token": {"type": "string"}}},
        "EmployeeRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "role": {"type": "string"},
                "employment_status": {"type": "string"},
                "can_work": {"type": "boolean"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "postcode": {"type": "string"},
                "home_latitude": {"type": "number"},
                "home_longitude": {"type": "number"},
                "start_date": {"type": "string"}
            }
        },
        "DriverProfileRequest": {
            "type": "object",
            "properties": {
                "tas_badge_number": {"type": "string"},
                "taxi_badge_number": {"type": "string"},
                "dbs_number": {"type": "string"},
                "driving_licence_number": {"type": "string"},
                "tas_badge_expiry": {"type": "string"},
                "dbs_expiry": {"type": "string"},
                "driving_licence_expiry": {"type": "string"}
            }
        },
        "AssistantProfileRequest": {
            "type": "object",
            "properties": {
                "tas_badge_number": {"type": "string"},
                "dbs_number": {"type": "string"},
                "tas_badge_expiry": {"type": "string"},
                "dbs_expiry": {"type": "string"},
                "auto_home_stop": {"type": "boolean"}
            }
        },
        "VehicleRequest": {
            "type": "object",
            "properties": {
                "registration": {"type": "string"},
                "fleet_number": {"type": "string"},
                "make": {"type": "string"},
                "model": {"type": "string"},
                "colour": {"type": "string"},
                "seats": {"type": "integer"},
                "vehicle_type": {"type": "string"},
                "off_road": {"type": "boolean"},
                "mot_expiry": {"type": "string"},
                "tax_expiry": {"type": "string"},
                "insurance_expiry": {"type": "string"}
            }
        },
        "BreakdownRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}, "mileage": {"type": "integer"}, "submitted_by": {"type": "string"}}
        },
        "PortalVehicleRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "mileage": {"type": "integer"},
                "submitted_by": {"type": "string"}
            }
        },
        "SchoolRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "address": {"type": "string"},
                "postcode": {"type": "string"},
                "phone": {"type": "string"},
                "contact_name": {"type": "string"}
            }
        },
        "RoutePoint": {
            "type": "object",
            "properties": {
                "point_name": {"type": "string"},
                "address": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "am_pickup_time": {"type": "string"},
                "pm_dropoff_time": {"type": "string"},
                "passenger_id": {"type": "string"},
                "origin": {"type": "string"}
            }
        },
        "PassengerRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "school_id": {"type": "string"},
                "address": {"type": "string"},
                "postcode": {"type": "string"},
                "mobility_needs": {"type": "string"}
            }
        },
        "CallLogRequest": {
            "type": "object",
            "properties": {
                "caller_name": {"type": "string"},
                "caller_type": {"type": "string"},
                "route_id": {"type": "string"},
                "subject": {"type": "string"},
                "notes": {"type": "string"},
                "action_required": {"type": "boolean"}
            }
        },
        "IncidentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "severity": {"type": "string"},
                "status": {"type": "string"},
                "route_id": {"type": "string"},
                "vehicle_id": {"type": "string"},
                "occurred_at": {"type": "string"}
            }
        },
        "DocumentRequirementRequest": {
            "type": "object",
            "properties": {
                "subject_type": {"type": "string"},
                "document_type": {"type": "string"},
                "required": {"type": "boolean"},
                "has_expiry": {"type": "boolean"},
                "badge_colour": {"type": "string"}
            }
        },
        "SummaryRequest": {
            "type": "object",
            "properties": {"recipients": {"type": "array", "items": {"type": "string"}}, "subject": {"type": "string"}}
        },
        "AuditLogRequest": {
            "type": "object",
            "properties": {"action": {"type": "string"}, "resource": {"type": "string"}, "resource_id": {"type": "string"}}
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
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
        },
        "RouteRequest": {
            "type": "object",
            "properties": {
                "route_number": {"type": "string"},
                "school_id": {"type": "string"},
                "driver_id": {"type": "string"},
                "vehicle_id": {"type": "string"},
                "am_start_time": {"type": "string"},
                "pm_start_time": {"type": "string"},
                "days_of_week": {"type": "array", "items": {"type": "string"}},
                "active": {"type": "boolean"},
                "assistant_ids": {"type": "array", "items": {"type": "string"}},
                "points": {"type": "array", "items": {"$ref": "#/definitions/RoutePoint"}}
            }
        },
        "RoutePlanRequest": {
            "type": "object",
            "properties": {
                "assistant_ids": {"type": "array", "items": {"type": "string"}},
                "am_start_time": {"type": "string"},
                "pm_start_time": {"type": "string"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/RoutePoint"}}
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

// Package docs registers the OpenAPI document served at /swagger/. It is kept
// in step with the handler annotations by hand.
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
        "/api/query-log/": {
            "get": {
                "description": "Every stored log in id order, each with the predictor's suggestion.",
                "produces": ["application/json"],
                "tags": ["query-log"],
                "summary": "List query logs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.QueryLogView"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Validates and stores one log, then returns it with an optimization suggestion.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["query-log"],
                "summary": "Ingest a query log",
                "parameters": [
                    {"description": "query log", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateQueryLogRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.CreateQueryLogResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/query-log/upload": {
            "post": {
                "description": "Accepts multipart/form-data with field \"file\" (.log or .txt) in the line format exec_time=<s>;records=<n>;indexes=<text>;columns=<a,b>;sql=<query>. Valid lines are stored; malformed lines are reported.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["query-log"],
                "summary": "Upload a query log file",
                "parameters": [
                    {"type": "file", "description": "query log file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/query-log/slow": {
            "get": {
                "description": "Logs with execution_time >= min_execution_time, slowest first, each with the predictor's suggestion.",
                "produces": ["application/json"],
                "tags": ["query-log"],
                "summary": "Scan for slow queries",
                "parameters": [
                    {"type": "number", "default": 1, "description": "Threshold in seconds", "name": "min_execution_time", "in": "query"},
                    {"maximum": 1000, "minimum": 1, "type": "integer", "default": 20, "description": "Maximum number of items", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SlowQueriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/query-log/report": {
            "get": {
                "description": "Totals, average and max execution time, and the slow queries (execution_time >= slow_seconds) with suggestions. format=csv and format=pdf download attachments.",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "tags": ["query-log"],
                "summary": "Slow query report",
                "parameters": [
                    {"enum": ["json", "csv", "pdf"], "type": "string", "default": "json", "description": "json, csv or pdf", "name": "format", "in": "query"},
                    {"type": "string", "description": "Start time (RFC3339 or YYYY-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "End time (RFC3339 or YYYY-MM-DD)", "name": "to", "in": "query"},
                    {"type": "number", "default": 1, "description": "Slow threshold in seconds", "name": "slow_seconds", "in": "query"},
                    {"maximum": 5000, "minimum": 1, "type": "integer", "default": 500, "description": "Max slow queries to list", "name": "limit", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 10, "description": "Most frequent normalized query patterns to include", "name": "top_patterns", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/querylog.ReportData"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/schema-suggestions/": {
            "get": {
                "description": "One suggestion per distinct column seen in columns_accessed, in first-seen order.",
                "produces": ["application/json"],
                "tags": ["schema"],
                "summary": "Index suggestions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SchemaSuggestionsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/schema-suggestions/columns": {
            "get": {
                "description": "How many logs referenced each column, sorted by column name.",
                "produces": ["application/json"],
                "tags": ["schema"],
                "summary": "Column usage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ColumnStatsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/ai-analysis/": {
            "get": {
                "description": "Advice per slow log from OpenAI when OPENAI_API_KEY is set, otherwise from a local WHERE-clause heuristic.",
                "produces": ["application/json"],
                "tags": ["ai"],
                "summary": "AI analysis of slow queries",
                "parameters": [
                    {"type": "number", "default": 1, "description": "Threshold in seconds", "name": "min_execution_time", "in": "query"},
                    {"maximum": 1000, "minimum": 1, "type": "integer", "default": 20, "description": "Maximum number of logs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AnalysisResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.AnalysisResult"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.AnalysisResult"}}
                }
            }
        },
        "/api/model/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Coefficients, sample count and holdout diagnostics of the cached model.",
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Current model",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ModelStatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/model/retrain": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Trains on every stored log, persists the artifact and swaps the cached model.",
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Retrain the model",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ModelStatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["platform"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok", "schema": {"type": "string"}}}
            }
        },
        "/readyz": {
            "get": {
                "description": "Reports ready once the database answers a ping.",
                "tags": ["platform"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "ready", "schema": {"type": "string"}},
                    "503": {"description": "not ready", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "details": {"type": "string"}}
        },
        "handlers.CreateQueryLogRequest": {
            "type": "object",
            "properties": {
                "query_text": {"type": "string"},
                "execution_time": {"type": "number"},
                "records_processed": {"type": "integer"},
                "indexes_used": {"type": "string"},
                "columns_accessed": {"type": "string"}
            }
        },
        "handlers.CreateQueryLogResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "optimization_suggestion": {"type": "string"}
            }
        },
        "handlers.QueryLogView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "query_text": {"type": "string"},
                "execution_time": {"type": "number"},
                "records_processed": {"type": "integer"},
                "indexes_used": {"type": "string"},
                "columns_accessed": {"type": "string"},
                "created_at": {"type": "string"},
                "optimization_suggestion": {"type": "string"}
            }
        },
        "handlers.UploadResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "total_lines": {"type": "integer"},
                "inserted": {"type": "integer"},
                "skipped": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "filename": {"type": "string"}
            }
        },
        "handlers.SlowQueriesResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "total": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/handlers.QueryLogView"}}
            }
        },
        "handlers.SchemaSuggestionsResponse": {
            "type": "object",
            "properties": {"suggestions": {"type": "array", "items": {"type": "string"}}}
        },
        "handlers.ColumnStatsResponse": {
            "type": "object",
            "properties": {"columns": {"type": "array", "items": {"$ref": "#/definitions/schema.ColumnStat"}}}
        },
        "handlers.AnalysisResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/handlers.QueryAnalysis"}}
            }
        },
        "handlers.QueryAnalysis": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "query_text": {"type": "string"},
                "execution_time": {"type": "number"},
                "records_processed": {"type": "integer"},
                "suggestions": {"type": "string"},
                "source": {"type": "string"}
            }
        },
        "handlers.ModelStatusResponse": {
            "type": "object",
            "properties": {
                "model": {"$ref": "#/definitions/predictor.Model"},
                "threshold": {"type": "number"},
                "retrain_policy": {"type": "string"},
                "checked_at": {"type": "string"}
            }
        },
        "predictor.Model": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "trained_at": {"type": "string"},
                "sample_count": {"type": "integer"},
                "intercept": {"type": "number"},
                "coefficients": {"type": "array", "items": {"type": "number"}},
                "degenerate": {"type": "boolean"},
                "diagnostics": {"$ref": "#/definitions/predictor.Diagnostics"}
            }
        },
        "predictor.Diagnostics": {
            "type": "object",
            "properties": {
                "train_size": {"type": "integer"},
                "holdout_size": {"type": "integer"},
                "mse": {"type": "number"},
                "r2": {"type": "number"}
            }
        },
        "querylog.ReportData": {
            "type": "object",
            "properties": {
                "generated_at": {"type": "string"},
                "summary": {"$ref": "#/definitions/querylog.ReportSummary"},
                "slow_queries": {"type": "array", "items": {"$ref": "#/definitions/querylog.SlowQuery"}},
                "top_patterns": {"type": "array", "items": {"$ref": "#/definitions/querylog.PatternStat"}}
            }
        },
        "querylog.PatternStat": {
            "type": "object",
            "properties": {"pattern": {"type": "string"}, "occurrences": {"type": "integer"}}
        },
        "querylog.ReportSummary": {
            "type": "object",
            "properties": {
                "total_queries": {"type": "integer"},
                "slow_count": {"type": "integer"},
                "avg_execution_time": {"type": "number"},
                "max_execution_time": {"type": "number"},
                "slow_seconds": {"type": "number"},
                "from": {"type": "string"},
                "to": {"type": "string"}
            }
        },
        "querylog.SlowQuery": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "query_text": {"type": "string"},
                "execution_time": {"type": "number"},
                "records_processed": {"type": "integer"},
                "indexes_used": {"type": "string"},
                "columns_accessed": {"type": "string"},
                "optimization_suggestion": {"type": "string"}
            }
        },
        "schema.ColumnStat": {
            "type": "object",
            "properties": {"column": {"type": "string"}, "count": {"type": "integer"}}
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
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "query-advisor API",
	Description:      "Collects executed query logs and suggests query and index optimizations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

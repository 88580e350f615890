package hive

import "github.com/hiveops/hive-agent-go/internal/llm"

// Catalog returns the tool definitions exposed to the model. Each tool maps
// 1:1 to a Hive REST API endpoint, and its name matches a dispatch key in
// Execute. The set is fixed; the model cannot invent operations.
func Catalog() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        "delete_table",
			Description: "Delete a Hive table. (DELETE /api/hive/table)",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schema": map[string]any{
						"type":        "string",
						"description": "Schema/database the table belongs to (e.g. public)",
					},
					"table_name": map[string]any{
						"type":        "string",
						"description": "Name of the table to delete (e.g. measure)",
					},
				},
				"required": []string{"schema", "table_name"},
			},
		},
		{
			Name:        "create_table",
			Description: "Create a Hive table. (POST /api/hive/table)",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schema": map[string]any{
						"type":        "string",
						"description": "Schema/database to create the table in",
					},
					"table_name": map[string]any{
						"type":        "string",
						"description": "Name of the table to create",
					},
					"columns": map[string]any{
						"type":        "array",
						"description": "Column definitions",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"name": map[string]any{
									"type":        "string",
									"description": "Column name",
								},
								"type": map[string]any{
									"type":        "string",
									"description": "Column type (e.g. STRING, INT, DOUBLE)",
								},
							},
							"required": []string{"name", "type"},
						},
					},
				},
				"required": []string{"schema", "table_name", "columns"},
			},
		},
		{
			Name:        "get_table_info",
			Description: "Fetch details of a Hive table. (GET /api/hive/table)",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schema": map[string]any{
						"type":        "string",
						"description": "Schema/database name",
					},
					"table_name": map[string]any{
						"type":        "string",
						"description": "Name of the table to inspect",
					},
				},
				"required": []string{"schema", "table_name"},
			},
		},
		{
			Name:        "list_tables",
			Description: "List the Hive tables in a schema. (GET /api/hive/tables)",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schema": map[string]any{
						"type":        "string",
						"description": "Schema/database to list tables from",
					},
				},
				"required": []string{"schema"},
			},
		},
		{
			Name:        "list_databases",
			Description: "List all Hive databases/schemas. (GET /api/hive/databases)",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
	}
}

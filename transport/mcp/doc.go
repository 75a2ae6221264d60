// Package mcp exposes the office simulation to AI agents over the Model
// Context Protocol.
//
// The client is a thin proxy: every tool call is translated into a REST
// request against a running server, so agents and the web view share the
// same offices.
//
// MCP Tools:
//   - create_office, list_offices, get_office, delete_office
//   - add_agent, remove_agent, agent_event
//   - office_view: ASCII rendering of the grid and characters
//   - place_furniture, move_furniture, remove_furniture
//   - list_layouts, furniture_catalog
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

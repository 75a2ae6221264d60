// Package api provides HTTP REST API handlers for the office simulation.
//
// The api package implements:
//   - Office lifecycle endpoints
//   - Agent event endpoints that drive the character state machine
//   - Layout editing endpoints for furniture placement
//   - Stored layout and catalog endpoints
//   - WebSocket upgrade handling for snapshot streaming
//
// Endpoints:
//
// Offices:
//   - POST /api/offices - Create an office, optionally from {"layout": "name"}
//   - GET /api/offices - List offices (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/offices/{id} - Get office info and agents
//   - DELETE /api/offices/{id} - Stop and delete an office
//   - GET /api/offices/{id}/snapshot - Current render snapshot
//
// Agents:
//   - POST /api/offices/{id}/agents - Add an agent: {"id": 3, "desk": "desk-2"}
//   - DELETE /api/offices/{id}/agents/{agent} - Remove an agent
//   - POST /api/offices/{id}/agents/{agent}/active - {"active": true}
//   - POST /api/offices/{id}/agents/{agent}/tool - {"tool": "Read"}; "" clears
//   - POST /api/offices/{id}/agents/{agent}/events - {"active": false, "tool": "Bash"}
//
// Layout:
//   - GET /api/offices/{id}/layout - Current layout document
//   - PUT /api/offices/{id}/layout - Replace the layout
//   - POST /api/offices/{id}/furniture - Place furniture; an empty id is minted
//   - PUT /api/offices/{id}/furniture/{fid} - Move: {"x": 4, "y": 2, "rotation": 90}
//   - DELETE /api/offices/{id}/furniture/{fid} - Remove furniture
//
// Stored layouts:
//   - GET /api/layouts - List layout files
//   - GET /api/layouts/{name} - Load a layout file
//   - POST /api/layouts - Save {"name": "...", "layout": {...}}
//   - GET /api/catalog - Furniture catalog feed
//
// Streaming:
//   - GET /ws?office={id} - Initial snapshot, then one message per tick
//
// Error Handling:
//
// Errors are returned as JSON with the status derived from the error kind:
// 404 for unknown offices, agents, furniture and layouts, 409 for rejected
// placements and duplicates, 422 for malformed layouts and unknown types.
//
//	{
//	  "error": "error message",
//	  "code": 409
//	}
package api

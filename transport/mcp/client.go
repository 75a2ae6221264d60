package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Agent Office",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Agent Office - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each office is a tile grid with furniture. Every agent is a character that
walks to its desk when active, types or reads depending on the tool it
uses, and wanders back to its break spot when idle.

AVAILABLE TOOLS:
- create_office / list_offices / get_office / delete_office
- add_agent / remove_agent: spawn or remove a character
- agent_event: report activity (active flag and/or current tool)
- office_view: ASCII rendering of the office with every agent
- place_furniture / move_furniture / remove_furniture: edit the layout
- list_layouts: stored layouts usable by create_office
- furniture_catalog: furniture types and footprints`),
	)

	c.registerTools()
}

func officeIDProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Office ID",
	}
}

func (c *Client) registerTools() {
	// Office management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_office",
		Description: "Create a new office, optionally from a stored layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout": map[string]interface{}{
					"type":        "string",
					"description": "Name of the stored layout (optional)",
				},
			},
		},
	}, c.handleCreateOffice)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_offices",
		Description: "List all running offices",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListOffices)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_office",
		Description: "Get office details and the state of every agent",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"office_id": officeIDProp()},
			Required:   []string{"office_id"},
		},
	}, c.handleGetOffice)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_office",
		Description: "Stop and delete an office",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"office_id": officeIDProp()},
			Required:   []string{"office_id"},
		},
	}, c.handleDeleteOffice)

	// Agents
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_agent",
		Description: "Spawn a character for an agent",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"office_id": officeIDProp(),
				"agent_id": map[string]interface{}{
					"type":        "integer",
					"description": "Agent ID",
				},
				"desk": map[string]interface{}{
					"type":        "string",
					"description": "Preferred desk ID (optional)",
				},
			},
			Required: []string{"office_id", "agent_id"},
		},
	}, c.handleAddAgent)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_agent",
		Description: "Remove an agent's character and free its desk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"office_id": officeIDProp(),
				"agent_id": map[string]interface{}{
					"type":        "integer",
					"description": "Agent ID",
				},
			},
			Required: []string{"office_id", "agent_id"},
		},
	}, c.handleRemoveAgent)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "agent_event",
		Description: "Report agent activity. Active agents walk to their desk; the tool decides typing or reading.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"office_id": officeIDProp(),
				"agent_id": map[string]interface{}{
					"type":        "integer",
					"description": "Agent ID",
				},
				"active": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether the agent is working (optional)",
				},
				"tool": map[string]interface{}{
					"type":        "string",
					"description": "Tool in use, e.g. Read or Bash; empty clears it (optional)",
				},
			},
			Required: []string{"office_id", "agent_id"},
		},
	}, c.handleAgentEvent)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "office_view",
		Description: "Render the office as ASCII with every agent",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"office_id": officeIDProp()},
			Required:   []string{"office_id"},
		},
	}, c.handleOfficeView)

	// Layout editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_furniture",
		Description: "Place a furniture instance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"office_id": officeIDProp(),
				"type_id": map[string]interface{}{
					"type":        "string",
					"description": "Catalog type, e.g. desk or plant",
				},
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Instance ID (optional, generated when empty)",
				},
				"x":        map[string]interface{}{"type": "integer"},
				"y":        map[string]interface{}{"type": "integer"},
				"rotation": map[string]interface{}{"type": "integer", "enum": []int{0, 90, 180, 270}},
			},
			Required: []string{"office_id", "type_id", "x", "y"},
		},
	}, c.handlePlaceFurniture)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_furniture",
		Description: "Move or rotate a furniture instance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"office_id":    officeIDProp(),
				"furniture_id": map[string]interface{}{"type": "string"},
				"x":            map[string]interface{}{"type": "integer"},
				"y":            map[string]interface{}{"type": "integer"},
				"rotation":     map[string]interface{}{"type": "integer", "enum": []int{0, 90, 180, 270}},
			},
			Required: []string{"office_id", "furniture_id", "x", "y"},
		},
	}, c.handleMoveFurniture)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_furniture",
		Description: "Remove a furniture instance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"office_id":    officeIDProp(),
				"furniture_id": map[string]interface{}{"type": "string"},
			},
			Required: []string{"office_id", "furniture_id"},
		},
	}, c.handleRemoveFurniture)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_layouts",
		Description: "List stored layouts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLayouts)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "furniture_catalog",
		Description: "List furniture types with footprints and placement rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleCatalog)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleCreateOffice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if name := stringArg(args, "layout"); name != "" {
		body["layout"] = name
	}

	var info service.OfficeInfo
	if err := c.apiCall(ctx, "POST", "/api/offices", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created office: %s\nLayout: %s (%dx%d, %d desks)\n",
		info.ID, info.LayoutName, info.Cols, info.Rows, info.Desks)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListOffices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                  `json:"count"`
		Offices []service.OfficeInfo `json:"offices"`
	}
	if err := c.apiCall(ctx, "GET", "/api/offices", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Offices (%d):\n\n", response.Count)
	for _, o := range response.Offices {
		result += fmt.Sprintf("- %s (Layout: %s, Agents: %d, Created: %s)\n",
			o.ID, o.LayoutName, len(o.Agents), o.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetOffice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	officeID := stringArg(request.GetArguments(), "office_id")

	var info service.OfficeInfo
	if err := c.apiCall(ctx, "GET", "/api/offices/"+officeID, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatOfficeInfo(&info)), nil
}

func (c *Client) handleDeleteOffice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	officeID := stringArg(request.GetArguments(), "office_id")

	if err := c.apiCall(ctx, "DELETE", "/api/offices/"+officeID, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Office %s deleted", officeID)), nil
}

func (c *Client) handleAddAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	agentID, ok := intArg(args, "agent_id")
	if !ok {
		return mcp.NewToolResultError("agent_id must be an integer"), nil
	}

	body := map[string]interface{}{"id": agentID}
	if desk := stringArg(args, "desk"); desk != "" {
		body["desk"] = desk
	}

	var view engine.AgentView
	path := fmt.Sprintf("/api/offices/%s/agents", stringArg(args, "office_id"))
	if err := c.apiCall(ctx, "POST", path, body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Added " + formatAgent(view)), nil
}

func (c *Client) handleRemoveAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	agentID, ok := intArg(args, "agent_id")
	if !ok {
		return mcp.NewToolResultError("agent_id must be an integer"), nil
	}

	path := fmt.Sprintf("/api/offices/%s/agents/%d", stringArg(args, "office_id"), agentID)
	if err := c.apiCall(ctx, "DELETE", path, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Agent %d removed", agentID)), nil
}

func (c *Client) handleAgentEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	agentID, ok := intArg(args, "agent_id")
	if !ok {
		return mcp.NewToolResultError("agent_id must be an integer"), nil
	}

	var ev service.AgentEvent
	if active, ok := args["active"].(bool); ok {
		ev.Active = &active
	}
	if tool, ok := args["tool"].(string); ok {
		ev.Tool = &tool
	}
	if ev.Active == nil && ev.Tool == nil {
		return mcp.NewToolResultError("agent_event needs active or tool"), nil
	}

	var view engine.AgentView
	path := fmt.Sprintf("/api/offices/%s/agents/%d/events", stringArg(args, "office_id"), agentID)
	if err := c.apiCall(ctx, "POST", path, ev, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAgent(view)), nil
}

func (c *Client) handleOfficeView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	officeID := stringArg(request.GetArguments(), "office_id")

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", "/api/offices/"+officeID+"/snapshot", nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(renderOffice(&snap)), nil
}

func (c *Client) handlePlaceFurniture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y must be integers"), nil
	}
	rotation, _ := intArg(args, "rotation")

	p := layout.Placement{
		ID:       stringArg(args, "id"),
		TypeID:   stringArg(args, "type_id"),
		X:        x,
		Y:        y,
		Rotation: rotation,
	}

	var res service.PlacementResult
	path := fmt.Sprintf("/api/offices/%s/furniture", stringArg(args, "office_id"))
	if err := c.apiCall(ctx, "POST", path, p, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Placed %s (%s) at (%d,%d)",
		res.Placement.ID, res.Placement.TypeID, res.Placement.X, res.Placement.Y)), nil
}

func (c *Client) handleMoveFurniture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y must be integers"), nil
	}
	rotation, _ := intArg(args, "rotation")
	fid := stringArg(args, "furniture_id")

	path := fmt.Sprintf("/api/offices/%s/furniture/%s", stringArg(args, "office_id"), fid)
	mv := service.FurnitureMove{X: x, Y: y, Rotation: rotation}
	if err := c.apiCall(ctx, "PUT", path, mv, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved %s to (%d,%d) rotation %d", fid, x, y, rotation)), nil
}

func (c *Client) handleRemoveFurniture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fid := stringArg(args, "furniture_id")

	path := fmt.Sprintf("/api/offices/%s/furniture/%s", stringArg(args, "office_id"), fid)
	if err := c.apiCall(ctx, "DELETE", path, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %s", fid)), nil
}

func (c *Client) handleListLayouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var layouts []service.LayoutInfo
	if err := c.apiCall(ctx, "GET", "/api/layouts", nil, &layouts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Layouts (%d):\n\n", len(layouts))
	for _, l := range layouts {
		marker := ""
		if l.IsDefault {
			marker = " [default]"
		}
		result += fmt.Sprintf("- %s%s: %dx%d, %d furniture, %d desks\n",
			l.Name, marker, l.Cols, l.Rows, l.Furniture, l.Desks)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var feed struct {
		Catalog []struct {
			ID                 string `json:"id"`
			FootprintW         int    `json:"footprintW"`
			FootprintH         int    `json:"footprintH"`
			IsDesk             bool   `json:"isDesk"`
			CanPlaceOnWalls    bool   `json:"canPlaceOnWalls"`
			CanPlaceOnSurfaces bool   `json:"canPlaceOnSurfaces"`
		} `json:"catalog"`
	}
	if err := c.apiCall(ctx, "GET", "/api/catalog", nil, &feed); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Furniture types (%d):\n\n", len(feed.Catalog))
	for _, e := range feed.Catalog {
		var tags []string
		if e.IsDesk {
			tags = append(tags, "desk")
		}
		if e.CanPlaceOnWalls {
			tags = append(tags, "wall")
		}
		if e.CanPlaceOnSurfaces {
			tags = append(tags, "surface")
		}
		fmt.Fprintf(&sb, "- %s %dx%d", e.ID, e.FootprintW, e.FootprintH)
		if len(tags) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(tags, ", "))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// Formatting

func formatOfficeInfo(info *service.OfficeInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Office: %s\n", info.ID)
	fmt.Fprintf(&sb, "Layout: %s (%dx%d, %d desks)\n", info.LayoutName, info.Cols, info.Rows, info.Desks)
	fmt.Fprintf(&sb, "Tick: %d  Running: %v\n", info.Tick, info.Running)
	fmt.Fprintf(&sb, "Agents (%d):\n", len(info.Agents))
	for _, a := range info.Agents {
		sb.WriteString("  " + formatAgent(a) + "\n")
	}
	return sb.String()
}

func formatAgent(a engine.AgentView) string {
	s := fmt.Sprintf("agent %d: %s at (%d,%d) facing %s", a.ID, a.State, a.Pos.X, a.Pos.Y, a.Facing)
	if a.DeskID != "" {
		s += ", desk " + a.DeskID
	} else {
		s += ", no desk"
	}
	if a.Tool != "" {
		s += ", tool " + a.Tool
	}
	if a.Active {
		s += " [active]"
	}
	return s
}

// renderOffice draws walls as #, floor as ., desks as D, other floor
// furniture as + and agents by the last digit of their id.
func renderOffice(snap *engine.Snapshot) string {
	if snap.Cols <= 0 || snap.Rows <= 0 || len(snap.Tiles) != snap.Cols*snap.Rows {
		return "empty office"
	}

	grid := make([][]byte, snap.Rows)
	for y := range grid {
		grid[y] = make([]byte, snap.Cols)
		for x := range grid[y] {
			if snap.Tiles[y*snap.Cols+x] == layout.TileWall {
				grid[y][x] = '#'
			} else {
				grid[y][x] = '.'
			}
		}
	}

	for _, f := range snap.Furniture {
		if f.OnWall || f.OnSurface {
			continue
		}
		mark := byte('+')
		if f.IsDesk {
			mark = 'D'
		}
		for y := f.Y; y < f.Y+f.Height && y < snap.Rows; y++ {
			for x := f.X; x < f.X+f.Width && x < snap.Cols; x++ {
				grid[y][x] = mark
			}
		}
	}

	agents := append([]engine.AgentView(nil), snap.Characters...)
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	for _, a := range agents {
		if a.Pos.Y >= 0 && a.Pos.Y < snap.Rows && a.Pos.X >= 0 && a.Pos.X < snap.Cols {
			d := a.ID % 10
			if d < 0 {
				d = -d
			}
			grid[a.Pos.Y][a.Pos.X] = byte('0' + d)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tick %d\n", snap.Tick)
	for _, row := range grid {
		sb.Write(row)
		sb.WriteString("\n")
	}
	sb.WriteString("\nLegend: # wall, . floor, D desk, + furniture, digits are agents\n")
	for _, a := range agents {
		sb.WriteString(formatAgent(a) + "\n")
	}
	return sb.String()
}

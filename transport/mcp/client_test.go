package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12", "tick": 7})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/offices/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "agent 1 already exists", "code": 409})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "POST", "/api/offices/x/agents", map[string]int{"id": 1}, nil)
		if err == nil || err.Error() != "agent 1 already exists" {
			t.Errorf("Expected server message, got %v", err)
		}
	})

	t.Run("plain body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got %v", err)
		}
	})
}

func TestClient_createOffice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/offices" {
			t.Errorf("Expected POST /api/offices, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["layout"] != "open-plan" {
			t.Errorf("Expected layout open-plan, got %q", body["layout"])
		}
		json.NewEncoder(w).Encode(service.OfficeInfo{ID: "c0de", LayoutName: "open-plan", Cols: 20, Rows: 12, Desks: 6})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateOffice(context.Background(), callTool("create_office", map[string]interface{}{"layout": "open-plan"}))
	if err != nil {
		t.Fatalf("create_office failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"c0de", "open-plan", "20x12", "6 desks"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_agentEvent(t *testing.T) {
	var got service.AgentEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/offices/c0de/agents/3/events" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(engine.AgentView{ID: 3, State: character.Walking, DeskID: "desk-1", Tool: "Grep", Active: true})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleAgentEvent(ctx, callTool("agent_event", map[string]interface{}{
		"office_id": "c0de",
		"agent_id":  float64(3),
		"active":    true,
		"tool":      "Grep",
	}))
	if err != nil {
		t.Fatalf("agent_event failed: %v", err)
	}
	if got.Active == nil || !*got.Active || got.Tool == nil || *got.Tool != "Grep" {
		t.Errorf("Event not forwarded: %+v", got)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "walking") || !strings.Contains(text, "desk-1") {
		t.Errorf("Unexpected agent summary: %s", text)
	}

	result, _ = client.handleAgentEvent(ctx, callTool("agent_event", map[string]interface{}{
		"office_id": "c0de",
		"agent_id":  float64(3),
	}))
	if !result.IsError {
		t.Error("Expected an error result for an empty event")
	}

	result, _ = client.handleAgentEvent(ctx, callTool("agent_event", map[string]interface{}{
		"office_id": "c0de",
		"agent_id":  "three",
		"active":    true,
	}))
	if !result.IsError {
		t.Error("Expected an error result for a non-numeric agent id")
	}
}

func TestClient_placeFurniture_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "invalid furniture placement: overlaps desk-1", "code": 409})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handlePlaceFurniture(context.Background(), callTool("place_furniture", map[string]interface{}{
		"office_id": "c0de",
		"type_id":   "plant",
		"x":         float64(4),
		"y":         float64(4),
	}))
	if err != nil {
		t.Fatalf("Handler should report failures in the result, got %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "overlaps desk-1") {
		t.Errorf("Expected placement error in result, got %+v", result)
	}
}

func TestRenderOffice(t *testing.T) {
	const cols, rows = 5, 4
	tiles := make([]layout.TileKind, cols*rows)
	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			tiles[y*cols+x] = layout.TileFloor
		}
	}

	snap := &engine.Snapshot{
		Tick:  42,
		Cols:  cols,
		Rows:  rows,
		Tiles: tiles,
		Furniture: []engine.FurnitureView{
			{Furniture: layout.Furniture{ID: "desk-1", TypeID: "desk", X: 1, Y: 1, Width: 2, Height: 1, IsDesk: true}},
			{Furniture: layout.Furniture{ID: "lamp-1", TypeID: "lamp", X: 1, Y: 1, Width: 1, Height: 1, OnSurface: true}},
		},
		Characters: []engine.AgentView{
			{ID: 12, Pos: layout.Position{X: 3, Y: 2}, State: character.Idle},
		},
	}

	out := renderOffice(snap)
	want := "Tick 42\n#####\n#DD.#\n#..2#\n#####\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("Unexpected rendering:\n%s\nwant prefix:\n%s", out, want)
	}
	if !strings.Contains(out, "agent 12: idle at (3,2)") {
		t.Errorf("Expected agent summary, got:\n%s", out)
	}

	if got := renderOffice(&engine.Snapshot{}); got != "empty office" {
		t.Errorf("Expected empty office, got %q", got)
	}
}

func TestFormatOfficeInfo(t *testing.T) {
	info := &service.OfficeInfo{
		ID:         "c0de",
		LayoutName: "default",
		Cols:       20,
		Rows:       12,
		Desks:      6,
		Tick:       300,
		Running:    true,
		Agents: []engine.AgentView{
			{ID: 1, State: character.Typing, DeskID: "desk-1", Tool: "Edit", Active: true},
			{ID: 2, State: character.Idle},
		},
	}

	out := formatOfficeInfo(info)
	for _, want := range []string{
		"Office: c0de",
		"Tick: 300",
		"Agents (2)",
		"agent 1: typing",
		"tool Edit [active]",
		"agent 2: idle at (0,0) facing down, no desk",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

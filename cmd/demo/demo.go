package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/inconshreveable/log15/v3"
)

// tools mixes typing and reading tools so both work states show up
var tools = []string{"Edit", "Write", "Bash", "Read", "Grep", "Glob", "WebFetch"}

// Event is one activity signal sent for an agent
type Event struct {
	Agent  int     `json:"-"`
	Active *bool   `json:"active,omitempty"`
	Tool   *string `json:"tool,omitempty"`
}

func (e Event) String() string {
	var parts []string
	if e.Active != nil {
		parts = append(parts, fmt.Sprintf("active=%v", *e.Active))
	}
	if e.Tool != nil {
		parts = append(parts, fmt.Sprintf("tool=%q", *e.Tool))
	}
	return fmt.Sprintf("agent %d: %s", e.Agent, strings.Join(parts, " "))
}

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Demo drives one office through the REST API
type Demo struct {
	baseURL    string
	httpClient *http.Client
	rng        *rand.Rand
	logger     log15.Logger

	officeID string
	agents   []int
	active   map[int]bool
}

// NewDemo creates a generator; the same seed yields the same event sequence
func NewDemo(baseURL string, seed int64) *Demo {
	return &Demo{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		rng:        rand.New(rand.NewSource(seed)),
		logger:     log15.New("module", "demo"),
		active:     make(map[int]bool),
	}
}

// OfficeID returns the office being driven
func (d *Demo) OfficeID() string {
	return d.officeID
}

// Setup creates the office when officeID is empty and spawns agents 1..n.
// Agents that already exist are reused.
func (d *Demo) Setup(ctx context.Context, officeID, layoutName string, n int) error {
	if officeID == "" {
		var info struct {
			ID string `json:"id"`
		}
		body := map[string]string{}
		if layoutName != "" {
			body["layout"] = layoutName
		}
		if err := d.call(ctx, "POST", "/api/offices", body, &info); err != nil {
			return fmt.Errorf("create office: %w", err)
		}
		officeID = info.ID
		d.logger.Info("office created", "office", officeID)
	}
	d.officeID = officeID

	for id := 1; id <= n; id++ {
		err := d.call(ctx, "POST", fmt.Sprintf("/api/offices/%s/agents", officeID), map[string]int{"id": id}, nil)
		var apiErr *APIError
		if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict) {
			return fmt.Errorf("add agent %d: %w", id, err)
		}
		d.agents = append(d.agents, id)
	}
	return nil
}

// Next picks the next event. Idle agents start working with a tool; working
// agents mostly switch tools and sometimes stop.
func (d *Demo) Next() Event {
	agent := d.agents[d.rng.Intn(len(d.agents))]
	tool := tools[d.rng.Intn(len(tools))]

	ev := Event{Agent: agent}
	switch {
	case !d.active[agent]:
		active := true
		ev.Active, ev.Tool = &active, &tool
	case d.rng.Intn(4) == 0:
		active, none := false, ""
		ev.Active, ev.Tool = &active, &none
	default:
		ev.Tool = &tool
	}
	return ev
}

// Step sends one event
func (d *Demo) Step(ctx context.Context) (Event, error) {
	ev := d.Next()
	path := fmt.Sprintf("/api/offices/%s/agents/%d/events", d.officeID, ev.Agent)
	if err := d.call(ctx, "POST", path, ev, nil); err != nil {
		return ev, err
	}
	if ev.Active != nil {
		d.active[ev.Agent] = *ev.Active
	}
	d.logger.Debug("event sent", "office", d.officeID, "event", ev.String())
	return ev, nil
}

// Run sends events every interval until ctx is done or limit events were
// sent. A zero limit means no limit.
func (d *Demo) Run(ctx context.Context, interval time.Duration, limit int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for sent := 0; ; {
		ev, err := d.Step(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", ev, err)
		}
		d.logger.Info("activity", "event", ev.String())
		if sent++; limit > 0 && sent >= limit {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (d *Demo) call(ctx context.Context, method, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}
	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

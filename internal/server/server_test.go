package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/image-transform-mcp/internal/imaging"
	"github.com/ironsheep/image-transform-mcp/internal/storage"
	"github.com/ironsheep/image-transform-mcp/internal/transform"
)

// newTestServer returns a server over an in-memory store writing PNG output.
func newTestServer(t *testing.T, opts ...Option) (*Server, *storage.FSStorage) {
	t.Helper()
	store := storage.NewMemStorage()
	engine := transform.New(
		imaging.NewSource(store, imaging.WithMarkCache(imaging.NewHandleCache())),
		imaging.NewWriter(store, imaging.WithOutputFormat(imaging.OutputPNG, 100)),
	)
	return New(engine, opts...), store
}

func TestNew(t *testing.T) {
	s, _ := newTestServer(t)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.engine == nil {
		t.Fatal("New() did not keep the engine")
	}
	if s.version != "0.1.0" {
		t.Errorf("default version: got %s", s.version)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s, _ := newTestServer(t, WithVersion("1.2.3"))
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != 1 {
		t.Errorf("ID: got %v, want 1", resp.ID)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	if _, ok := result["capabilities"]; !ok {
		t.Error("Missing capabilities")
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != Name {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
	if serverInfo["version"] != "1.2.3" {
		t.Errorf("serverInfo.version: got %v", serverInfo["version"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatalf("tools should be []Tool, got %T", result["tools"])
	}
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("got %d tools, want %d", len(tools), len(GetToolDefinitions()))
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
	if resp != nil {
		t.Errorf("notifications/initialized should not produce a response, got %+v", resp)
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error response")
	}
	if resp.Error.Code != codeMethodNotFound {
		t.Errorf("Error code: got %d, want %d", resp.Error.Code, codeMethodNotFound)
	}
	if resp.Error.Message != "Method not found: resources/list" {
		t.Errorf("Error message: got %q", resp.Error.Message)
	}
}

func decodeResponses(t *testing.T, out *bytes.Buffer) []MCPResponse {
	t.Helper()
	var resps []MCPResponse
	dec := json.NewDecoder(out)
	for dec.More() {
		var r MCPResponse
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		resps = append(resps, r)
	}
	return resps
}

func TestRun(t *testing.T) {
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`{not json`,
		`{"jsonrpc":"2.0","id":3,"method":"bogus"}`,
	}, "\n")

	var out bytes.Buffer
	s, _ := newTestServer(t, WithIO(strings.NewReader(in), &out))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	resps := decodeResponses(t, &out)
	if len(resps) != 4 {
		t.Fatalf("got %d responses, want 4", len(resps))
	}

	if resps[0].ID != float64(1) || resps[0].Error != nil {
		t.Errorf("initialize response: %+v", resps[0])
	}
	if resps[1].ID != float64(2) || resps[1].Error != nil {
		t.Errorf("ping response: %+v", resps[1])
	}
	if resps[2].Error == nil || resps[2].Error.Code != codeParseError {
		t.Errorf("expected parse error, got %+v", resps[2])
	}
	if resps[3].Error == nil || resps[3].Error.Code != codeMethodNotFound {
		t.Errorf("expected method not found, got %+v", resps[3])
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	s, _ := newTestServer(t, WithIO(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out))
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("no response expected after cancel, got %q", out.String())
	}
}

func TestRun_LogsParseFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	var out bytes.Buffer
	s, _ := newTestServer(t, WithLogger(zap.New(core)), WithIO(strings.NewReader("nope\n"), &out))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries := logs.FilterMessage("failed to parse request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d parse warnings, want 1", len(entries))
	}
	if entries[0].LoggerName != "server" {
		t.Errorf("logger name: got %q, want server", entries[0].LoggerName)
	}
}

package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeScriptPlugin creates an executable shell plugin in a temp dir.
func writeScriptPlugin(t *testing.T, name, script string, events ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Events:     events,
		},
		Path:       tmpDir,
		Executable: scriptPath,
	}
}

func answerRequest() *Request {
	return &Request{
		Event:     EventAnswer,
		SessionID: "s-1",
		NodeID:    "coffee",
		Prompt:    "Do you drink coffee in the morning?",
		Answer:    "yes",
		NextID:    "coffee-black",
		At:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := writeScriptPlugin(t, "test-plugin", `cat >/dev/null
echo '{"success":true,"data":{"message":"hello world"}}'
`)

	executor := NewExecutor(5000)
	response, err := executor.Execute(context.Background(), plugin, answerRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := writeScriptPlugin(t, "echo-plugin", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)
	plugin.Manifest.Config = json.RawMessage(`{"voice":"alex"}`)

	executor := NewExecutor(5000)
	response, err := executor.Execute(context.Background(), plugin, answerRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	received, ok := data["received"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'received' to be an object, got %T", data["received"])
	}

	if received["event"] != EventAnswer {
		t.Errorf("expected event 'answer', got %v", received["event"])
	}
	if received["answer"] != "yes" {
		t.Errorf("expected answer 'yes', got %v", received["answer"])
	}
	if received["node_id"] != "coffee" {
		t.Errorf("expected node_id 'coffee', got %v", received["node_id"])
	}
	config, _ := received["config"].(map[string]interface{})
	if config["voice"] != "alex" {
		t.Errorf("expected manifest config to be forwarded, got %v", received["config"])
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := writeScriptPlugin(t, "slow-plugin", `sleep 10
echo '{"success":true}'
`)

	executor := NewExecutor(100)
	_, err := executor.Execute(context.Background(), plugin, answerRequest())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := writeScriptPlugin(t, "error-plugin", `echo '{"success":false,"error":"something went wrong"}'
`)

	executor := NewExecutor(5000)
	response, err := executor.Execute(context.Background(), plugin, answerRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := writeScriptPlugin(t, "bad-plugin", `echo 'not valid json'
`)

	executor := NewExecutor(5000)
	if _, err := executor.Execute(context.Background(), plugin, answerRequest()); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := writeScriptPlugin(t, "exit-plugin", `echo "Error: something failed" >&2
exit 1
`)

	executor := NewExecutor(5000)
	if _, err := executor.Execute(context.Background(), plugin, answerRequest()); err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3000)
	if executor == nil {
		t.Fatal("NewExecutor() returned nil")
	}
	if executor.timeoutMs != 3000 {
		t.Errorf("expected timeoutMs=3000, got %d", executor.timeoutMs)
	}
}

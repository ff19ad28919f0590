package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_load",
		"plate_detect",
		"plate_annotate",
		"plate_crop",
		"image_edge_detect",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}
			if _, ok := props["path"]; !ok {
				t.Error("every tool takes a path")
			}

			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("InputSchema required should be a string slice")
			}
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required field %s has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_DetectionOverrides(t *testing.T) {
	tools := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		tools[tool.Name] = tool
	}

	props := tools["plate_detect"].InputSchema["properties"].(map[string]interface{})
	for _, name := range []string{"blur_kernel", "canny_low", "canny_high", "min_area"} {
		if _, ok := props[name]; !ok {
			t.Errorf("plate_detect missing %s", name)
		}
	}

	crop := tools["plate_crop"].InputSchema["properties"].(map[string]interface{})
	sel := crop["selection"].(map[string]interface{})
	enum := sel["enum"].([]string)
	if len(enum) != 3 {
		t.Errorf("selection enum: got %v", enum)
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}
	var decoded struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	if len(decoded.Tools) != len(GetToolDefinitions()) {
		t.Errorf("tools/list returned %d tools, want %d", len(decoded.Tools), len(GetToolDefinitions()))
	}
}

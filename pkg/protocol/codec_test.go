package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeDecodeRequest(t *testing.T) {
	req, err := NewRequest("echo", map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.ID == "" {
		t.Fatal("request should carry a correlation id")
	}

	data, err := Encode(req)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Type != TypeRequest {
		t.Errorf("Type = %q, want %q", got.Type, TypeRequest)
	}
	if got.ID != req.ID {
		t.Errorf("ID = %q, want %q", got.ID, req.ID)
	}
	if got.Method != "echo" {
		t.Errorf("Method = %q, want echo", got.Method)
	}

	var payload map[string]int
	if err := json.Unmarshal(got.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["a"] != 1 {
		t.Errorf("payload a = %d, want 1", payload["a"])
	}
}

func TestPublishHasNoID(t *testing.T) {
	pub, err := NewPublish("notify", "hello")
	if err != nil {
		t.Fatalf("NewPublish: %v", err)
	}
	if pub.ID != "" {
		t.Errorf("publish should carry no id, got %q", pub.ID)
	}

	data, err := Encode(pub)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Errorf("encoded publish should omit id field: %s", data)
	}
}

func TestNilPayloadOmitted(t *testing.T) {
	req, err := NewRequest("ping", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	data, err := Encode(req)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), `"data"`) {
		t.Errorf("encoded request should omit nil data: %s", data)
	}
}

func TestErrorResponse(t *testing.T) {
	resp := NewErrorResponse("abc", StatusNotFound, "method 'reverse' not found")
	data, err := Encode(resp)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Code != StatusNotFound {
		t.Errorf("Code = %d, want %d", got.Code, StatusNotFound)
	}
	if text := ErrorText(got.Data); text != "method 'reverse' not found" {
		t.Errorf("ErrorText = %q", text)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"not json", "{nope"},
		{"unknown type", `{"type":"bogus"}`},
		{"request without id", `{"type":"request","method":"m"}`},
		{"request without method", `{"type":"request","id":"x"}`},
		{"publish without method", `{"type":"publish"}`},
		{"response without ack", `{"type":"response","code":200}`},
		{"response with bad code", `{"type":"response","ack":"x","code":302}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.frame)); err == nil {
				t.Errorf("Decode(%s) should fail", tc.frame)
			}
		})
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate correlation id %q", id)
		}
		seen[id] = true
	}
}

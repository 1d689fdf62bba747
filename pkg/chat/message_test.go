package chat

import (
	"encoding/json"
	"testing"
)

func TestHistory_Window(t *testing.T) {
	var h History
	for i := 0; i < 4; i++ {
		h.Append(Message{Role: RoleUser, Content: string(rune('a' + i))})
	}

	tests := []struct {
		n    int
		want string
	}{
		{n: 0, want: ""},
		{n: 2, want: "cd"},
		{n: 4, want: "abcd"},
		{n: 10, want: "abcd"},
	}
	for _, tt := range tests {
		got := ""
		for _, m := range h.Window(tt.n) {
			got += m.Content
		}
		if got != tt.want {
			t.Errorf("Window(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestHistory_MessagesIsACopy(t *testing.T) {
	var h History
	h.Append(Message{Role: RoleAssistant, Content: "original"})

	msgs := h.Messages()
	msgs[0].Content = "changed"

	if h.Messages()[0].Content != "original" {
		t.Fatal("Expected Messages() to return a copy")
	}
	if h.Len() != 1 {
		t.Fatalf("Expected Len() 1, got %d", h.Len())
	}
}

func TestRequest_JSONShape(t *testing.T) {
	req := Request{
		Message: "Olá",
		History: []Message{{Role: RoleUser, Content: "Olá"}},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"message":"Olá","history":[{"role":"user","content":"Olá"}]}`
	if string(data) != want {
		t.Fatalf("Unexpected JSON:\n got: %s\nwant: %s", data, want)
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Fatal("Expected user and assistant to be valid")
	}
	if Role("system").Valid() {
		t.Fatal("Expected system to be invalid for the widget")
	}
}

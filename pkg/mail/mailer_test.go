package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPMailerSend(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m, err := NewHTTPMailer(ts.URL, "key-123", "alerts@example.com")
	if err != nil {
		t.Fatalf("NewHTTPMailer: %v", err)
	}
	err = m.Send(context.Background(), Message{
		To:      "ops@example.com",
		Subject: "cleanup failures",
		Text:    "10 objects could not be deleted",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer key-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["from"] != "alerts@example.com" || gotBody["subject"] != "cleanup failures" {
		t.Errorf("body = %v", gotBody)
	}
	to, ok := gotBody["to"].([]any)
	if !ok || len(to) != 1 || to[0] != "ops@example.com" {
		t.Errorf("to = %v", gotBody["to"])
	}
}

func TestHTTPMailerRejectsAPIFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	m, err := NewHTTPMailer(ts.URL, "key-123", "alerts@example.com")
	if err != nil {
		t.Fatalf("NewHTTPMailer: %v", err)
	}
	if err := m.Send(context.Background(), Message{To: "ops@example.com"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestHTTPMailerValidation(t *testing.T) {
	if _, err := NewHTTPMailer("", "key", "from@example.com"); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	if _, err := NewHTTPMailer("https://api.test", "", "from@example.com"); err == nil {
		t.Fatal("expected error for empty API key")
	}
	m, err := NewHTTPMailer("https://api.test", "key", "from@example.com")
	if err != nil {
		t.Fatalf("NewHTTPMailer: %v", err)
	}
	if err := m.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

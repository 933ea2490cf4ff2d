package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pr-reminder/internal/config"
	"pr-reminder/pkg/models"
)

var testChunk = models.MessageChunk{Lines: []string{
	"- <[Add tabs](https://github.com/ethereum/remix-project/pull/12)>, Reviewers: <@425335058652463117>",
	"- <[Fix terminal](https://github.com/ethereum/remix-project/pull/9)>, Reviewers: @joeizang",
}}

func TestNewTeamsNotifier(t *testing.T) {
	notifier := NewTeamsNotifier(config.Teams{WebhookURL: "https://webhook.url"})

	if notifier == nil {
		t.Fatal("Expected notifier to be created, got nil")
	}
	if notifier.webhookURL != "https://webhook.url" {
		t.Errorf("Expected webhook URL 'https://webhook.url', got '%s'", notifier.webhookURL)
	}
	if notifier.Name() != "teams" {
		t.Errorf("Expected name 'teams', got '%s'", notifier.Name())
	}
}

func TestTeamsNotifier_GenerateTeamsPayload(t *testing.T) {
	notifier := NewTeamsNotifier(config.Teams{})

	payload, err := notifier.generateTeamsPayload(testChunk)
	if err != nil {
		t.Fatalf("Expected no error generating Teams payload, got: %v", err)
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		t.Fatalf("Expected valid JSON payload, got error: %v", err)
	}

	if payloadMap["@type"] != "MessageCard" {
		t.Error("Expected @type to be 'MessageCard'")
	}
	if payloadMap["@context"] != "http://schema.org/extensions" {
		t.Error("Expected @context to be 'http://schema.org/extensions'")
	}
	if payloadMap["summary"] != testChunk.Lines[0] {
		t.Errorf("Expected summary to be the first line, got %v", payloadMap["summary"])
	}

	text := payloadMap["text"].(string)
	if strings.Count(text, "\n\n") != 1 {
		t.Errorf("Expected lines separated by a blank line, got %q", text)
	}
	if !strings.Contains(text, "Fix terminal") {
		t.Error("Expected text to contain every line")
	}
}

func TestTeamsNotifier_GenerateTeamsPayload_EmptyChunk(t *testing.T) {
	notifier := NewTeamsNotifier(config.Teams{})

	payload, err := notifier.generateTeamsPayload(models.MessageChunk{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(string(payload), `"summary":"Pull request reminder"`) {
		t.Errorf("Expected default summary, got %s", payload)
	}
}

func TestTeamsNotifier_Send_Success(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got '%s'", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewTeamsNotifier(config.Teams{WebhookURL: server.URL})
	if err := notifier.Send(context.Background(), testChunk); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if received["@type"] != "MessageCard" {
		t.Errorf("Expected MessageCard to be posted, got %v", received)
	}
}

func TestTeamsNotifier_Send_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Summary or Text is required."))
	}))
	defer server.Close()

	notifier := NewTeamsNotifier(config.Teams{WebhookURL: server.URL})
	err := notifier.Send(context.Background(), testChunk)
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "Summary or Text") {
		t.Errorf("Expected status and body in error, got: %v", err)
	}
}

func TestTeamsNotifier_Send_InvalidURL(t *testing.T) {
	notifier := NewTeamsNotifier(config.Teams{WebhookURL: "invalid-url"})

	if err := notifier.Send(context.Background(), testChunk); err == nil {
		t.Error("Expected error when using invalid webhook URL")
	}
}

func TestTeamsNotifier_Send_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	notifier := NewTeamsNotifier(config.Teams{WebhookURL: url})
	if err := notifier.Send(context.Background(), testChunk); err == nil {
		t.Error("Expected error when connecting to a closed server")
	}
}

package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

// fakeNotifier records displayed and dismissed notifications.
type fakeNotifier struct {
	shown     []Payload
	dismissed int
}

func (f *fakeNotifier) Show(ctx context.Context, payload Payload) error {
	f.shown = append(f.shown, payload)
	return nil
}

func (f *fakeNotifier) Dismiss(ctx context.Context) error {
	f.dismissed++
	return nil
}

// fakeOpener records opened URLs.
type fakeOpener struct {
	opened []string
}

func (f *fakeOpener) OpenURL(ctx context.Context, url string) error {
	f.opened = append(f.opened, url)
	return nil
}

func newTestHandler() (*Handler, *fakeNotifier, *fakeOpener) {
	notifier := &fakeNotifier{}
	opener := &fakeOpener{}
	return NewHandler(notifier, opener, "https://news.example.com/", zerolog.Nop()), notifier, opener
}

func TestHandlePush_DisplaysNotification(t *testing.T) {
	h, notifier, _ := newTestHandler()

	payload := `{
		"title": "Daily digest ready",
		"body": "Your 5 January digest is available.",
		"actions": [
			{"action": "listen", "title": "Listen now"},
			{"action": "download", "title": "Download"}
		]
	}`
	h.HandlePush(context.Background(), []byte(payload))

	if len(notifier.shown) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.shown))
	}
	shown := notifier.shown[0]
	if shown.Title != "Daily digest ready" {
		t.Errorf("Title = %q", shown.Title)
	}
	if len(shown.Actions) != 2 {
		t.Fatalf("Expected 2 actions, got %d", len(shown.Actions))
	}
	if shown.Actions[0].Action != ActionListen || shown.Actions[1].Action != ActionDownload {
		t.Errorf("Actions = %+v", shown.Actions)
	}
}

func TestHandlePush_MalformedPayloadIsSilentNoop(t *testing.T) {
	h, notifier, _ := newTestHandler()

	payloads := [][]byte{
		[]byte("not json at all"),
		[]byte(`{"title":`),
		[]byte(`{"body": "no title"}`),
		[]byte(``),
		nil,
	}

	for _, payload := range payloads {
		// Must not panic and must not display anything.
		h.HandlePush(context.Background(), payload)
	}

	if len(notifier.shown) != 0 {
		t.Errorf("Malformed payloads displayed %d notifications", len(notifier.shown))
	}
}

func TestHandlePush_UnknownActionsDropped(t *testing.T) {
	h, notifier, _ := newTestHandler()

	payload := `{
		"title": "Digest",
		"actions": [
			{"action": "share", "title": "Share"},
			{"action": "listen", "title": "Listen"},
			{"action": "dismiss", "title": "Dismiss"}
		]
	}`
	h.HandlePush(context.Background(), []byte(payload))

	if len(notifier.shown) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.shown))
	}
	actions := notifier.shown[0].Actions
	if len(actions) != 1 || actions[0].Action != ActionListen {
		t.Errorf("Actions = %+v, want only listen", actions)
	}
}

func TestHandleClick(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		expected string
	}{
		{"listen", ActionListen, "https://news.example.com/?action=listen"},
		{"download", ActionDownload, "https://news.example.com/?action=download"},
		{"body_click", "", "https://news.example.com/"},
		{"unknown_action", "share", "https://news.example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, notifier, opener := newTestHandler()

			if err := h.HandleClick(context.Background(), tt.action); err != nil {
				t.Fatalf("HandleClick failed: %v", err)
			}
			if notifier.dismissed != 1 {
				t.Errorf("Notification dismissed %d times, want 1", notifier.dismissed)
			}
			if len(opener.opened) != 1 || opener.opened[0] != tt.expected {
				t.Errorf("Opened %v, want %q", opener.opened, tt.expected)
			}
		})
	}
}

func TestHandleTick_IsNoop(t *testing.T) {
	h, notifier, opener := newTestHandler()

	if err := h.HandleTick(context.Background(), "refresh-content"); err != nil {
		t.Fatalf("HandleTick must resolve immediately: %v", err)
	}
	if len(notifier.shown) != 0 || notifier.dismissed != 0 || len(opener.opened) != 0 {
		t.Error("Deferred-work tick must have no side effects")
	}
}

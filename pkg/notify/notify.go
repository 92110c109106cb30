// Package notify implements the peripheral hooks: push-notification
// display and click routing, and the deferred-work tick.
package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Known notification actions. Anything else in a payload is dropped.
const (
	ActionListen   = "listen"
	ActionDownload = "download"
)

// maxActions caps how many actions a notification may carry.
const maxActions = 2

// Action is a named button on a notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the structured push payload.
type Payload struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Actions []Action `json:"actions"`
}

// Notifier displays and dismisses notifications on the host platform.
type Notifier interface {
	// Show displays a notification.
	Show(ctx context.Context, payload Payload) error

	// Dismiss closes the currently displayed notification.
	Dismiss(ctx context.Context) error
}

// Opener opens a URL in the host platform, e.g. focusing or creating a
// client window.
type Opener interface {
	OpenURL(ctx context.Context, url string) error
}

// Handler reacts to push deliveries, notification clicks, and deferred-work
// ticks.
type Handler struct {
	notifier Notifier
	opener   Opener
	rootURL  string
	logger   zerolog.Logger
}

// NewHandler creates a notification handler. rootURL is the site root
// opened on notification clicks.
func NewHandler(notifier Notifier, opener Opener, rootURL string, logger zerolog.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		opener:   opener,
		rootURL:  rootURL,
		logger:   logger,
	}
}

// HandlePush parses a push payload and displays a notification.
// A malformed payload is a silent no-op: no notification is shown and no
// error escapes.
func (h *Handler) HandlePush(ctx context.Context, data []byte) {
	payload, ok := parsePayload(data)
	if !ok {
		pushesTotal.WithLabelValues("malformed").Inc()
		h.logger.Debug().Msg("Ignoring malformed push payload")
		return
	}

	if err := h.notifier.Show(ctx, payload); err != nil {
		pushesTotal.WithLabelValues("error").Inc()
		h.logger.Warn().Err(err).Msg("Failed to display notification")
		return
	}
	pushesTotal.WithLabelValues("displayed").Inc()
}

// parsePayload decodes and sanitizes a push payload. It reports false for
// payloads that cannot be parsed or carry no title.
func parsePayload(data []byte) (Payload, bool) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, false
	}
	if payload.Title == "" {
		return Payload{}, false
	}

	// Keep only the known actions, at most two.
	actions := make([]Action, 0, maxActions)
	for _, action := range payload.Actions {
		if action.Action != ActionListen && action.Action != ActionDownload {
			continue
		}
		actions = append(actions, action)
		if len(actions) == maxActions {
			break
		}
	}
	payload.Actions = actions
	return payload, true
}

// HandleClick dismisses the notification and opens the URL variant for the
// clicked action. Clicking the notification body with no matching action
// opens the root URL.
func (h *Handler) HandleClick(ctx context.Context, action string) error {
	// Dismissal happens in all cases, before routing.
	if err := h.notifier.Dismiss(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to dismiss notification")
	}

	url := h.clickURL(action)
	h.logger.Info().Str("action", action).Str("url", url).Msg("Notification click")
	return h.opener.OpenURL(ctx, url)
}

// clickURL returns the URL variant signaling the clicked intent.
func (h *Handler) clickURL(action string) string {
	switch action {
	case ActionListen:
		return h.rootURL + "?action=listen"
	case ActionDownload:
		return h.rootURL + "?action=download"
	default:
		return h.rootURL
	}
}

// HandleTick acknowledges a deferred-work tick. This is an intentional
// no-op placeholder: the tick is resolved immediately with no side effect.
func (h *Handler) HandleTick(ctx context.Context, tag string) error {
	h.logger.Debug().Str("tag", tag).Msg("Deferred-work tick acknowledged")
	return nil
}

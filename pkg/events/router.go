// Package events routes the closed set of event kinds this layer reacts to
// into single-purpose handlers. Handlers return a discriminated outcome
// instead of signalling through deferred side effects.
package events

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/newsdigest/offline-client/pkg/lifecycle"
	"github.com/newsdigest/offline-client/pkg/notify"
	"github.com/newsdigest/offline-client/pkg/strategy"
)

// Kind identifies an event delivered to the router.
type Kind string

const (
	KindInstall             Kind = "install"
	KindActivate            Kind = "activate"
	KindIntercept           Kind = "intercept"
	KindDeferredTick        Kind = "deferred_tick"
	KindPushReceived        Kind = "push_received"
	KindNotificationClicked Kind = "notification_clicked"
)

// OutcomeKind discriminates what a handler decided.
type OutcomeKind string

const (
	// OutcomeServe means the layer produced a response to serve.
	OutcomeServe OutcomeKind = "serve"

	// OutcomePassThrough means the layer takes no action and yields to
	// default handling.
	OutcomePassThrough OutcomeKind = "pass_through"

	// OutcomeDone means the event was fully handled with nothing to serve.
	OutcomeDone OutcomeKind = "done"
)

// Outcome is the discriminated result of dispatching an event.
type Outcome struct {
	Kind     OutcomeKind
	Response *http.Response // set when Kind is OutcomeServe
}

// Serve wraps a response in an outcome.
func Serve(resp *http.Response) Outcome {
	return Outcome{Kind: OutcomeServe, Response: resp}
}

// PassThrough is the outcome for events the layer yields on.
func PassThrough() Outcome {
	return Outcome{Kind: OutcomePassThrough}
}

// Done is the outcome for fully handled non-request events.
func Done() Outcome {
	return Outcome{Kind: OutcomeDone}
}

// Event carries the data for one dispatch. Only the fields relevant to its
// Kind are set.
type Event struct {
	Kind    Kind
	Request *http.Request // KindIntercept
	Payload []byte        // KindPushReceived
	Action  string        // KindNotificationClicked
	Tag     string        // KindDeferredTick
}

// Router dispatches events to the lifecycle manager, the strategy
// executors, and the notification handler.
type Router struct {
	manager  *lifecycle.Manager
	executor *strategy.Executor
	notify   *notify.Handler
	origin   *url.URL
	logger   zerolog.Logger
}

// NewRouter creates an event router. origin is the base URL intercepted
// paths are resolved against.
func NewRouter(manager *lifecycle.Manager, executor *strategy.Executor, notifyHandler *notify.Handler, origin string, logger zerolog.Logger) (*Router, error) {
	originURL, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}

	return &Router{
		manager:  manager,
		executor: executor,
		notify:   notifyHandler,
		origin:   originURL,
		logger:   logger,
	}, nil
}

// Dispatch routes an event to its handler and returns the outcome.
func (r *Router) Dispatch(ctx context.Context, event Event) (Outcome, error) {
	switch event.Kind {
	case KindInstall:
		if err := r.manager.Install(ctx); err != nil {
			return Outcome{}, err
		}
		return Done(), nil

	case KindActivate:
		if err := r.manager.Activate(ctx); err != nil {
			return Outcome{}, err
		}
		return Done(), nil

	case KindIntercept:
		return r.intercept(ctx, event.Request)

	case KindDeferredTick:
		if err := r.notify.HandleTick(ctx, event.Tag); err != nil {
			return Outcome{}, err
		}
		return Done(), nil

	case KindPushReceived:
		r.notify.HandlePush(ctx, event.Payload)
		return Done(), nil

	case KindNotificationClicked:
		if err := r.notify.HandleClick(ctx, event.Action); err != nil {
			return Outcome{}, err
		}
		return Done(), nil

	default:
		return Outcome{}, fmt.Errorf("unknown event kind: %s", event.Kind)
	}
}

// intercept executes the strategy selected for a request.
func (r *Router) intercept(ctx context.Context, req *http.Request) (Outcome, error) {
	// A superseded instance dispatches nothing further.
	if r.manager.Phase() == lifecycle.PhaseRedundant {
		return PassThrough(), nil
	}

	switch strategy.Dispatch(req) {
	case strategy.DecisionIgnore:
		return PassThrough(), nil

	case strategy.DecisionCacheFirst:
		resp, err := r.executor.CacheFirst(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		return Serve(resp), nil

	case strategy.DecisionNetworkFirst:
		resp, err := r.executor.NetworkFirst(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		return Serve(resp), nil

	default: // DecisionBypass
		resp, err := r.executor.Bypass(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		return Serve(resp), nil
	}
}

// ServeHTTP adapts the router to the local proxy server: incoming paths
// are resolved against the origin, dispatched as intercept events, and the
// outcome is written back.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	outbound, err := r.outboundRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	outcome, err := r.Dispatch(req.Context(), Event{Kind: KindIntercept, Request: outbound})
	if err != nil {
		// The network error is observable by the caller.
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}

	if outcome.Kind == OutcomePassThrough {
		// Default handling in the proxy is a direct forward.
		resp, err := r.executor.Bypass(req.Context(), outbound)
		if err != nil {
			http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
			return
		}
		writeResponse(w, resp, r.logger)
		return
	}

	writeResponse(w, outcome.Response, r.logger)
}

// outboundRequest rebuilds an incoming proxy request against the origin.
func (r *Router) outboundRequest(req *http.Request) (*http.Request, error) {
	target := *r.origin
	target.Path = req.URL.Path
	target.RawQuery = req.URL.RawQuery

	outbound, err := http.NewRequestWithContext(req.Context(), req.Method, target.String(), req.Body)
	if err != nil {
		return nil, fmt.Errorf("build outbound request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			outbound.Header.Add(key, value)
		}
	}
	return outbound, nil
}

func writeResponse(w http.ResponseWriter, resp *http.Response, logger zerolog.Logger) {
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Warn().Err(err).Msg("Failed to write response body")
	}
}

// Package strategy implements the request interception strategies: it
// decides per request whether to serve cache-first, network-first, or to
// stay out of the way entirely.
package strategy

import (
	"net/http"

	"github.com/newsdigest/offline-client/pkg/classify"
)

// Decision selects how an intercepted request is executed.
type Decision string

const (
	// DecisionCacheFirst serves from the static generation, falling back
	// to the network.
	DecisionCacheFirst Decision = "cache_first"

	// DecisionNetworkFirst serves from the network, falling back to the
	// dynamic generation and then to the offline document.
	DecisionNetworkFirst Decision = "network_first"

	// DecisionBypass forwards the request directly with no cache
	// interaction on either side.
	DecisionBypass Decision = "bypass"

	// DecisionIgnore means the interception layer takes no action at all
	// and yields to default handling (e.g. non-network schemes).
	DecisionIgnore Decision = "ignore"
)

// Dispatch maps a request to an execution decision.
//
// Only GET requests participate in caching; every other method bypasses the
// layer. Requests whose scheme is not a network scheme are ignored entirely.
func Dispatch(req *http.Request) Decision {
	scheme := req.URL.Scheme
	if scheme != "" && scheme != "http" && scheme != "https" {
		return DecisionIgnore
	}

	if req.Method != http.MethodGet {
		return DecisionBypass
	}

	switch classify.Classify(req.URL.Path) {
	case classify.ClassStatic:
		return DecisionCacheFirst
	case classify.ClassAudio, classify.ClassDocument:
		return DecisionNetworkFirst
	default:
		return DecisionBypass
	}
}

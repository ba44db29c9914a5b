package bridge

import (
	"context"
	"strings"
)

// HandlerFunc executes one routed command.
type HandlerFunc func(ctx context.Context, b *Bridge, msg InboundMessage) error

// Matcher is a predicate over an inbound message.
type Matcher func(msg InboundMessage) bool

// Route binds a matcher to a handler. Routes are tried in order and the
// first match wins.
type Route struct {
	Name   string
	Match  Matcher
	Handle HandlerFunc
}

// Router selects the route for an inbound message.
type Router struct {
	routes []Route
}

// NewRouter creates a router over a fixed route table.
func NewRouter(routes []Route) *Router {
	table := make([]Route, len(routes))
	copy(table, routes)
	return &Router{routes: table}
}

// Match returns the first route whose matcher accepts msg.
func (r *Router) Match(msg InboundMessage) (Route, bool) {
	for _, route := range r.routes {
		if route.Match(msg) {
			return route, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the route table in priority order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Exact matches the whole address.
func Exact(address string) Matcher {
	return func(msg InboundMessage) bool {
		return msg.Address == address
	}
}

// HasPrefix matches addresses starting with prefix.
func HasPrefix(prefix string) Matcher {
	return func(msg InboundMessage) bool {
		return strings.HasPrefix(msg.Address, prefix)
	}
}

// Contains matches addresses containing sub anywhere.
func Contains(sub string) Matcher {
	return func(msg InboundMessage) bool {
		return strings.Contains(msg.Address, sub)
	}
}

// SegmentCount matches addresses with exactly n segments, counting the
// empty leading segment.
func SegmentCount(n int) Matcher {
	return func(msg InboundMessage) bool {
		return len(msg.Segments()) == n
	}
}

// SegmentEquals matches when segment i equals v.
func SegmentEquals(i int, v string) Matcher {
	return func(msg InboundMessage) bool {
		segs := msg.Segments()
		return i >= 0 && i < len(segs) && segs[i] == v
	}
}

// ArgCount matches messages with exactly n arguments.
func ArgCount(n int) Matcher {
	return func(msg InboundMessage) bool {
		return msg.ArgCount() == n
	}
}

// ArgKindAt matches when argument i exists and has the given kind.
func ArgKindAt(i int, kind ArgKind) Matcher {
	return func(msg InboundMessage) bool {
		a, ok := msg.Arg(i)
		return ok && a.Kind == kind
	}
}

// All matches when every matcher does.
func All(matchers ...Matcher) Matcher {
	return func(msg InboundMessage) bool {
		for _, m := range matchers {
			if !m(msg) {
				return false
			}
		}
		return true
	}
}

package ratelimit

import "strings"

// MatchEndpoint returns the rule covering method and path, or nil when the
// default limit applies. Rule paths ending in "/" are prefixes; an exact rule
// beats any prefix, and the longest prefix wins among the rest.
func MatchEndpoint(path, method string, rules []EndpointConfig) *EndpointConfig {
	var best *EndpointConfig
	for i := range rules {
		r := &rules[i]
		if r.Method != method {
			continue
		}
		if r.Path == path {
			return r
		}
		if !strings.HasSuffix(r.Path, "/") || !strings.HasPrefix(path, r.Path) {
			continue
		}
		if best == nil || len(r.Path) > len(best.Path) {
			best = r
		}
	}
	return best
}

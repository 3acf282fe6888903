package graph

import (
	"errors"
	"time"
)

// Category is the three-way failure taxonomy every component downstream of an
// upstream call reacts to. Classification happens once, at the call site;
// nothing re-inspects raw errors afterwards.
type Category int

const (
	// CategoryOther - transient or unknown; log and continue, the account is
	// not penalized.
	CategoryOther Category = iota
	// CategoryAuthFailure - the credential is permanently invalid; stop
	// retrying and disable the account.
	CategoryAuthFailure
	// CategoryRateLimit - temporary; back off for RetryAfter.
	CategoryRateLimit
)

func (c Category) String() string {
	switch c {
	case CategoryAuthFailure:
		return "auth_failure"
	case CategoryRateLimit:
		return "rate_limit"
	default:
		return "other"
	}
}

// DefaultRetryAfter is used when a rate-limited upstream supplies no
// retry-after hint.
const DefaultRetryAfter = 3600 * time.Second

// Classification is the result of mapping one upstream error.
type Classification struct {
	Category   Category
	RetryAfter time.Duration // Only meaningful for CategoryRateLimit
}

// Upstream error codes. These follow the graph API's conventions: 190 and
// OAuthException mean the token is dead; 4/17/32/613 are application, user
// and page level throttles.
var (
	authCodes      = map[int]bool{190: true, 102: true}
	rateLimitCodes = map[int]bool{4: true, 17: true, 32: true, 613: true}
	// Business-use-case throttle subcodes
	rateLimitSubcodes = map[int]bool{2207051: true}
)

// Classify maps a raw upstream error into a Classification. Pure function; no
// side effects. A nil error classifies as Other with no backoff, but callers
// only classify failures.
func Classify(err error) Classification {
	var graphErr *Error
	if !errors.As(err, &graphErr) {
		return Classification{Category: CategoryOther}
	}

	// Throttle codes are checked first: the upstream tags rate limits with
	// type OAuthException too, and those must not disable the account.
	if rateLimitCodes[graphErr.Code] || rateLimitSubcodes[graphErr.Subcode] {
		retryAfter := DefaultRetryAfter
		if graphErr.RetryAfter > 0 {
			retryAfter = time.Duration(graphErr.RetryAfter) * time.Second
		}
		return Classification{Category: CategoryRateLimit, RetryAfter: retryAfter}
	}

	if authCodes[graphErr.Code] || graphErr.Type == "OAuthException" {
		return Classification{Category: CategoryAuthFailure}
	}

	return Classification{Category: CategoryOther}
}

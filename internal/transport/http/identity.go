package http

import (
	"net/http"
	"strings"

	"github.com/cimillas/concert-ticketing/internal/domain"
)

const callerIdentityHeader = "X-Caller-Identity"

// CallerIdentity returns the opaque caller identity of r. It is empty when
// the header is missing or blank.
func CallerIdentity(r *http.Request) domain.Identity {
	return domain.Identity(strings.TrimSpace(r.Header.Get(callerIdentityHeader)))
}

// Package verify rejects forged or non-platform-originated webhook calls
// before any business logic runs. It is intentionally small and free of
// business state: the verifier looks only at request headers and the
// apparent source address, and its only side effect is logging.
package verify

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tiptophouse/diamond-webhook/internal/telegram"
)

// Options configures the verifier.
//
//   - Secret: compared against the platform secret-token header. Empty means
//     no secret was configured: requests pass with a warning log. That is a
//     deliberate backward-compatibility allowance, not a best practice.
//   - RequiredUserAgent: substring the request's User-Agent must contain.
//   - AllowedSourceRanges: CIDR allowlist for the apparent source address.
//     A non-matching address is logged but NOT rejected; the system favors
//     availability over this particular defense.
type Options struct {
	Secret              string
	RequiredUserAgent   string
	AllowedSourceRanges []netip.Prefix
}

// Result reports the verification outcome. Reason is set only when
// Valid is false.
type Result struct {
	Valid  bool
	Reason string
}

// Verifier validates inbound webhook requests.
type Verifier struct {
	opts Options
}

// New constructs a Verifier with the given options.
func New(opts Options) *Verifier {
	return &Verifier{opts: opts}
}

// Check validates the raw inbound request. The body is never read.
func (v *Verifier) Check(r *http.Request) Result {
	// 1) Secret token header.
	if v.opts.Secret == "" {
		log.Warn().Msg("webhook secret not configured; accepting request without token verification")
	} else {
		got := r.Header.Get(telegram.SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(v.opts.Secret)) != 1 {
			log.Warn().Str("remote_ip", clientIP(r)).Msg("webhook secret token mismatch")
			return Result{Valid: false, Reason: "secret token mismatch"}
		}
	}

	// 2) Client identity string.
	if req := v.opts.RequiredUserAgent; req != "" {
		ua := r.Header.Get("User-Agent")
		if !strings.Contains(ua, req) {
			log.Warn().Str("user_agent", ua).Msg("webhook user agent rejected")
			return Result{Valid: false, Reason: "unexpected user agent"}
		}
	}

	// 3) Source address containment. Best-effort signal only.
	if len(v.opts.AllowedSourceRanges) > 0 {
		if ip := clientIP(r); ip != "" {
			if addr, err := netip.ParseAddr(ip); err == nil && !v.contains(addr) {
				log.Warn().Str("remote_ip", ip).Msg("webhook source address outside allowed ranges")
			}
		}
	}

	return Result{Valid: true}
}

func (v *Verifier) contains(addr netip.Addr) bool {
	for _, p := range v.opts.AllowedSourceRanges {
		if p.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// clientIP returns the apparent source address: the first X-Forwarded-For
// entry when present (reverse-proxy deployments), otherwise the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

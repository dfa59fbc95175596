package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"landingsvc/internal/domain"
)

type subjectKey struct{}

// TokenFromRequest extracts the caller's token. Precedence is fixed: the
// Authorization bearer header, then bodyToken (the "token" field of a JSON
// body, if the handler decoded one), then the "token" query parameter.
func TokenFromRequest(r *http.Request, bodyToken string) string {
	if r == nil {
		return strings.TrimSpace(bodyToken)
	}
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if v := strings.TrimSpace(value); v != "" {
				return v
			}
		}
	}
	if v := strings.TrimSpace(bodyToken); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authorizer accepts either the shared API token or an HS256 JWT signed with
// the configured secret. With neither configured every request is allowed.
type Authorizer struct {
	apiTokenSum [32]byte
	hasAPIToken bool
	jwtSecret   string
}

func NewAuthorizer(apiToken, jwtSecret string) *Authorizer {
	a := &Authorizer{jwtSecret: jwtSecret}
	if apiToken = strings.TrimSpace(apiToken); apiToken != "" {
		a.apiTokenSum = sha256.Sum256([]byte(apiToken))
		a.hasAPIToken = true
	}
	return a
}

// Enabled reports whether tokens are checked at all.
func (a *Authorizer) Enabled() bool {
	return a != nil && (a.hasAPIToken || a.jwtSecret != "")
}

// Authorize validates token and returns the caller subject.
func (a *Authorizer) Authorize(token string) (string, error) {
	if !a.Enabled() {
		return "anonymous", nil
	}
	if token == "" {
		return "", fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	if a.hasAPIToken {
		sum := sha256.Sum256([]byte(token))
		if subtle.ConstantTimeCompare(sum[:], a.apiTokenSum[:]) == 1 {
			return "api-token", nil
		}
	}
	if a.jwtSecret != "" {
		claims, err := VerifyJWT(a.jwtSecret, token)
		if err == nil {
			if claims.Sub == "" {
				return "jwt", nil
			}
			return claims.Sub, nil
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return "", fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
}

// Require guards routes that carry no JSON body; tokens come from the header
// or the query string.
func (a *Authorizer) Require(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := a.Authorize(TokenFromRequest(r, ""))
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		})
	}
}

func ContextWithSubject(ctx context.Context, subject string) context.Context {
	if strings.TrimSpace(subject) == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey{}, subject)
}

func SubjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(subjectKey{}).(string); ok {
		return v
	}
	return ""
}

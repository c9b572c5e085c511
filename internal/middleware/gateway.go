package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-task-manager/internal/authclient"
	"go-task-manager/internal/model"
)

type verifyRecorder interface {
	RecordVerify(outcome string, duration time.Duration)
}

type contextKey string

const identityContextKey contextKey = "identity"

var (
	errMissingHeader = errors.New("missing authorization header")
	errBadScheme     = errors.New("authorization header is not a bearer token")
)

// Gateway authenticates every request against the identity service before
// it reaches a task handler. Any failure denies the request.
type Gateway struct {
	verifier authclient.Verifier
	metrics  verifyRecorder
}

func NewGateway(verifier authclient.Verifier, metrics verifyRecorder) *Gateway {
	return &Gateway{verifier: verifier, metrics: metrics}
}

func (g *Gateway) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r.Header.Get("Authorization"))
		switch {
		case errors.Is(err, errMissingHeader):
			writeJSONError(w, http.StatusUnauthorized, "MISSING_AUTHORIZATION", "No authorization header")
			return
		case err != nil:
			writeJSONError(w, http.StatusUnauthorized, "INVALID_AUTHORIZATION", "Authorization header must be a Bearer token")
			return
		}

		started := time.Now()
		claims, err := g.verifier.Verify(r.Context(), token)
		outcome := authclient.Outcome(err)
		if g.metrics != nil {
			g.metrics.RecordVerify(outcome, time.Since(started))
		}

		if err != nil {
			if errors.Is(err, authclient.ErrTokenRejected) {
				writeJSONError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
				return
			}

			slog.Warn("token verification failed", "outcome", outcome, "error", err, "path", r.URL.Path)
			writeJSONError(w, http.StatusUnauthorized, "VERIFICATION_FAILED", "Token verification failed")
			return
		}

		ctx := WithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok && identity.UserID > 0
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingHeader
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", errBadScheme
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errBadScheme
	}
	return token, nil
}

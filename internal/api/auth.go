package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"oracleAMM/internal/model"
)

type contextKey string

const contextKeyCaller contextKey = "amm.caller"

// authenticator validates HMAC bearer tokens; the subject claim is the caller principal.
type authenticator struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
	logger    *zap.Logger
}

func newAuthenticator(secret, issuer string, logger *zap.Logger) *authenticator {
	return &authenticator{
		secret:    []byte(strings.TrimSpace(secret)),
		issuer:    issuer,
		clockSkew: 2 * time.Minute,
		logger:    logger,
	}
}

func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r.Header.Get("Authorization"))
		if tokenString == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token", 0)
			return
		}
		caller, err := a.parse(tokenString)
		if err != nil {
			a.logger.Debug("token validation failed", zap.Error(err))
			writeJSONError(w, http.StatusUnauthorized, "invalid token", 0)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *authenticator) parse(tokenString string) (model.Principal, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithLeeway(a.clockSkew), jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token invalid")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return model.Principal(claims.Subject), nil
}

func callerFrom(ctx context.Context) (model.Principal, bool) {
	caller, ok := ctx.Value(contextKeyCaller).(model.Principal)
	return caller, ok && caller != ""
}

func extractBearer(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

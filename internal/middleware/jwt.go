package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicedesk/internal/common"
	"invoicedesk/internal/logger"
	"invoicedesk/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const tokenContextKey = "user"

// JWTAuth verifies bearer tokens. Tokens are HS256 signed with the shared
// secret unless a JWKS endpoint is configured, in which case keys are looked
// up by kid.
type JWTAuth struct {
	secret []byte
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

// NewJWTAuth verifies tokens issued by Login (HS256, invoicedesk issuer and
// audience) or, when jwksURL is set, tokens from that identity provider.
func NewJWTAuth(ctx context.Context, secret, jwksURL string) (*JWTAuth, error) {
	auth := &JWTAuth{secret: []byte(secret)}
	if jwksURL == "" {
		auth.parser = jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(services.TokenIssuer),
			jwt.WithAudience(services.TokenAudience),
			jwt.WithExpirationRequired(),
		)
		return auth, nil
	}
	auth.parser = jwt.NewParser(jwt.WithExpirationRequired())

	log := logger.WithComponent("jwks")
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Str("url", jwksURL).Msg("JWKS refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	auth.jwks = jwks
	return auth, nil
}

// Close stops the background JWKS refresh
func (a *JWTAuth) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

func (a *JWTAuth) keyFunc(token *jwt.Token) (interface{}, error) {
	if a.jwks != nil {
		return a.jwks.Keyfunc(token)
	}
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
	}
	return a.secret, nil
}

func (a *JWTAuth) parseToken(c echo.Context, auth string) (interface{}, error) {
	token, err := a.parser.ParseWithClaims(auth, new(services.AccessClaims), a.keyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

// Middleware rejects requests without a valid bearer token and puts the
// caller into the request context
func (a *JWTAuth) Middleware() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:     tokenContextKey,
		ParseTokenFunc: a.parseToken,
		ErrorHandler: func(c echo.Context, err error) error {
			log := logger.FromContext(c.Request().Context())
			log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
			return common.SendUnauthorizedError(c)
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(actorFromToken(next))
	}
}

// actorFromToken turns verified claims into a models.Actor
func actorFromToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return common.SendUnauthorizedError(c)
		}
		claims, ok := token.Claims.(*services.AccessClaims)
		if !ok {
			return common.SendUnauthorizedError(c)
		}
		actor, err := claims.Actor()
		if err != nil {
			return common.SendUnauthorizedError(c)
		}

		ctx := common.WithActor(c.Request().Context(), actor)
		l := logger.FromContext(ctx).With().Str("actor_id", actor.ID.String()).Logger()
		c.SetRequest(c.Request().WithContext(logger.Into(ctx, l)))
		return next(c)
	}
}

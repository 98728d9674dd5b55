package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"filevault/internal/domain"
)

// OrgClaim членство в организации внутри токена
type OrgClaim struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims токен провайдера идентификации
type Claims struct {
	Name  string     `json:"name,omitempty"`
	Image string     `json:"image,omitempty"`
	OrgID string     `json:"org_id,omitempty"`
	Orgs  []OrgClaim `json:"orgs,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(cfg *Config) *Verifier {
	return &Verifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

// VerifyToken проверяет подпись и срок действия токена и возвращает пользователя
func (v *Verifier) VerifyToken(tokenString string) (*domain.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	identity := &domain.Identity{
		UserID:      claims.Subject,
		Name:        claims.Name,
		Image:       claims.Image,
		ActiveOrgID: claims.OrgID,
		Memberships: make([]domain.OrgMembership, 0, len(claims.Orgs)),
	}
	for _, org := range claims.Orgs {
		if org.ID == "" {
			continue
		}
		identity.Memberships = append(identity.Memberships, domain.OrgMembership{
			OrgID: org.ID,
			Role:  domain.ParseRole(org.Role),
		})
	}

	return identity, nil
}

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity кладет пользователя в контекст
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext возвращает nil для анонимного запроса
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityContextKey).(*domain.Identity)
	return identity
}

// Middleware разбирает заголовок Authorization. Без заголовка запрос остается
// анонимным и сервисы сами ответят Unauthenticated; битый токен отклоняется сразу.
func Middleware(verifier *Verifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				logger.Debug().Str("path", r.URL.Path).Msg("invalid authorization header format")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.VerifyToken(tokenString)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("authorization failed")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

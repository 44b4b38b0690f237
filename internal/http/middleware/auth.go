package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cargobooking/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

var (
	errBadClaims = errors.New("claim user_id tidak valid")
	errNoSecret  = errors.New("jwt secret belum diatur")
)

// RequireActor validates the HS256 bearer token and stores the acting user
// (claims user_id and role) on the context. Requests without a valid token get 401.
func RequireActor(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c, "token tidak ditemukan")
			return
		}
		actor, err := ParseActorToken(raw, secret)
		if err != nil {
			abortUnauthorized(c, "token tidak valid")
			return
		}
		c.Set(userIDKey, int64(actor.UserID))
		c.Set(userRoleKey, actor.Role)
		c.Next()
	}
}

// ParseActorToken verifies raw and returns the actor it names.
func ParseActorToken(raw string, secret []byte) (domain.ActorContext, error) {
	if len(secret) == 0 {
		return domain.ActorContext{}, errNoSecret
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.ActorContext{}, err
	}

	var id int64
	switch v := claims["user_id"].(type) {
	case float64:
		id = int64(v)
	case string:
		id, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	if id <= 0 {
		return domain.ActorContext{}, errBadClaims
	}
	role, _ := claims["role"].(string)
	return domain.ActorContext{UserID: domain.ID(id), Role: strings.TrimSpace(role)}, nil
}

// Actor returns the acting user stored by RequireActor.
func Actor(c *gin.Context) domain.ActorContext {
	return domain.ActorContext{
		UserID: domain.ID(c.GetInt64(userIDKey)),
		Role:   c.GetString(userRoleKey),
	}
}

func bearerToken(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}

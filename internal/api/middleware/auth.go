package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/recipehub/pkg/response"
)

const userIDKey = "user_id"

// Auth 校验外部签发的 HS256 bearer token，sub 即用户 ID
type Auth struct {
	secret []byte
	issuer string
}

func NewAuth(secret, issuer string) *Auth {
	return &Auth{secret: []byte(secret), issuer: issuer}
}

// Optional 没有 token 时按匿名访问放行；token 无效时仍然返回 401
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}
		if !a.authenticate(c, raw) {
			return
		}
		c.Next()
	}
}

// Required 必须携带有效 token
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			response.Unauthorized(c, "authentication credentials were not provided")
			return
		}
		if !a.authenticate(c, raw) {
			return
		}
		c.Next()
	}
}

func (a *Auth) authenticate(c *gin.Context, raw string) bool {
	sub, err := a.parse(raw)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return false
	}
	c.Set(userIDKey, sub)
	return true
}

func (a *Auth) parse(raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CurrentUser 返回当前用户 ID；匿名访问时 ok 为 false
func CurrentUser(c *gin.Context) (string, bool) {
	id := c.GetString(userIDKey)
	return id, id != ""
}

package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const SessionCookie = "elit21_session"

// SessionCfg holds configuration for the JWT cookie session layer.
type SessionCfg struct {
	Secret string
	Secure bool
	TTL    time.Duration
}

type SessionClaims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CurrentUserInfo is what handlers see of the authenticated buyer.
type CurrentUserInfo struct {
	ID    uint64
	Email string
	Role  string
}

const ctxKeyUser = "current_user"

// Session parses the signed session cookie, if any, and puts the buyer
// context on the request. Invalid or expired cookies are dropped
// silently; RequireAuth decides whether that matters.
func Session(cfg SessionCfg) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(SessionCookie)
		if err != nil || tokenStr == "" {
			c.Next()
			return
		}

		claims, err := parseSessionToken(cfg.Secret, tokenStr)
		if err != nil {
			c.SetCookie(SessionCookie, "", -1, "/", "", cfg.Secure, true)
			c.Next()
			return
		}

		c.Set(ctxKeyUser, CurrentUserInfo{ID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (CurrentUserInfo, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return CurrentUserInfo{}, false
	}
	u, ok := v.(CurrentUserInfo)
	return u, ok
}

// IssueSession signs a session token and sets the cookie.
func IssueSession(c *gin.Context, cfg SessionCfg, userID uint64, email, role string) error {
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return err
	}
	c.SetCookie(SessionCookie, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
	return nil
}

func ClearSession(c *gin.Context, cfg SessionCfg) {
	c.SetCookie(SessionCookie, "", -1, "/", "", cfg.Secure, true)
}

func parseSessionToken(secret, tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

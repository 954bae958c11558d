package auth

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/golang-jwt/jwt/v5"
)

// JWT configuration
var JWTSecret []byte

// InitializeJWTSecret should be called during app initialization (Register or WhenReady)
func InitializeJWTSecret() {
	secret := settings.Get("JWT.SECRET").String()
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		// Development fallback - should be changed in production
		log.Warning("JWT_SECRET not set, using development key. Change this in production!")
		secret = "your-secret-key-change-this-in-production"
	}
	JWTSecret = []byte(secret)
}

// Claims carries the installation identity inside the JWT
type Claims struct {
	InstallationID string `json:"installation_id"`
	Platform       string `json:"platform"`
	jwt.RegisteredClaims
}

// GenerateInstallationToken issues a long-lived token for a device installation.
// Installations are anonymous devices, not user accounts, so the token does not
// rotate; losing it means re-registering.
func GenerateInstallationToken(installationID, platform string) (string, error) {
	claims := Claims{
		InstallationID: installationID,
		Platform:       platform,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(365 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ParseInstallationToken validates a bearer token and returns its claims
func ParseInstallationToken(tokenString string) (*Claims, error) {
	if len(JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is not initialized")
	}

	jwtToken, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !jwtToken.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	claims, ok := jwtToken.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return claims, nil
}

// GetAuthToken retrieves the raw bearer token from the request.
// It checks the "X-Authorization" header, then "Authorization", then the
// "Authorization" cookie, and strips the "Bearer " prefix.
func GetAuthToken(request *evo.Request) (string, bool) {
	var token = request.Header("X-Authorization")
	if token == "" {
		token = request.Header("Authorization")
	}
	if token == "" {
		token = request.Cookie("Authorization")
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

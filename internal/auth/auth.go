package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"old-maid-server/internal/apperr"
	"old-maid-server/internal/entities"
	"time"
)

// Claims identify the viewer of one game. A session only subscribes a socket
// to broadcasts; every mutation still requires the player's own token.
type Claims struct {
	GameID entities.GameID `json:"gid"`
	jwt.RegisteredClaims
}

func (c Claims) PlayerID() entities.PlayerID {
	return entities.PlayerID(c.Subject)
}

type Issuer struct {
	secretKey []byte
	ttl       time.Duration
}

func NewIssuer(secretKey string, ttl time.Duration) *Issuer {
	return &Issuer{secretKey: []byte(secretKey), ttl: ttl}
}

func (i *Issuer) GenerateToken(playerID entities.PlayerID, gameID entities.GameID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		GameID: gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(playerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "sign session")
	}
	return tokenString, nil
}

func (i *Issuer) CheckToken(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return i.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperr.Wrap(apperr.KindIllegalAuthenticationToken, err, "invalid session")
	}
	if !token.Valid || claims.Subject == "" || claims.GameID == "" {
		return Claims{}, apperr.New(apperr.KindIllegalAuthenticationToken, "invalid session")
	}
	return claims, nil
}

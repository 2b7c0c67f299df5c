package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether the access token carries an exp claim in
// the past. The signature is not verified here; the server remains the
// authority and will reject a bad token during the authenticate
// handshake. This check only lets the client classify failures and skip
// dialing with a token it already knows is dead.
func TokenExpired(tokenString string) bool {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

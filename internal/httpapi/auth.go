package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

type authError struct {
	status  int
	code    string
	message string
}

func (e *authError) Error() string {
	return e.message
}

type tokenClaims struct {
	UserID string
	Device string
	Scopes map[string]struct{}
	Exp    int64
}

// tokenPayload is the wire shape of the JWT claims this service
// accepts. Scopes must be a JSON array; space-separated scope strings
// are not supported.
type tokenPayload struct {
	UserID string   `json:"user_id"`
	Device string   `json:"device"`
	Aud    string   `json:"aud"`
	Exp    int64    `json:"exp"`
	Scopes []string `json:"scopes"`
}

func authorizeBearer(authHeader, jwtSecret, requiredScope string, now time.Time) (tokenClaims, *authError) {
	claims, err := parseBearer(authHeader, jwtSecret, now)
	if err != nil {
		return tokenClaims{}, err
	}
	if requiredScope != "" {
		if _, ok := claims.Scopes[requiredScope]; !ok {
			return tokenClaims{}, &authError{
				status:  403,
				code:    "forbidden",
				message: "token lacks scope " + requiredScope,
			}
		}
	}
	return claims, nil
}

func parseBearer(authHeader, jwtSecret string, now time.Time) (tokenClaims, *authError) {
	unauthorized := func(message string) *authError {
		return &authError{status: 401, code: "unauthorized", message: message}
	}

	raw, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return tokenClaims{}, unauthorized("bearer token required")
	}
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return tokenClaims{}, unauthorized("token is not a jwt")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return tokenClaims{}, unauthorized("undecodable jwt header")
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return tokenClaims{}, unauthorized("undecodable jwt header")
	}
	if header.Alg != "HS256" {
		return tokenClaims{}, unauthorized("token algorithm must be HS256")
	}

	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return tokenClaims{}, unauthorized("undecodable token signature")
	}
	mac := hmac.New(sha256.New, []byte(jwtSecret))
	_, _ = mac.Write([]byte(parts[0] + "." + parts[1]))
	if !hmac.Equal(sigBytes, mac.Sum(nil)) {
		return tokenClaims{}, unauthorized("token signature mismatch")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return tokenClaims{}, unauthorized("undecodable token payload")
	}
	var payload tokenPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return tokenClaims{}, unauthorized("undecodable token payload")
	}

	switch {
	case payload.UserID == "":
		return tokenClaims{}, unauthorized("token has no user_id")
	case payload.Device == "":
		return tokenClaims{}, unauthorized("token has no device")
	case payload.Exp == 0:
		return tokenClaims{}, unauthorized("token has no expiry")
	case now.Unix() >= payload.Exp:
		return tokenClaims{}, unauthorized("token expired")
	case payload.Aud != "fieldcheck":
		return tokenClaims{}, unauthorized("token audience is not fieldcheck")
	}

	scopes := make(map[string]struct{}, len(payload.Scopes))
	for _, scope := range payload.Scopes {
		if scope != "" {
			scopes[scope] = struct{}{}
		}
	}
	if len(scopes) == 0 {
		return tokenClaims{}, &authError{status: 403, code: "forbidden", message: "token grants no scopes"}
	}

	return tokenClaims{
		UserID: payload.UserID,
		Device: payload.Device,
		Scopes: scopes,
		Exp:    payload.Exp,
	}, nil
}

package jwthandling

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Information a licence session token encodes
type LicenceClaims struct {
	LicenceID  string `json:"licence_id,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
	jwt.RegisteredClaims
}

func GenerateNewLicenceToken(expiresIn time.Duration, licenceID string, instanceID string, secretKey string) (tokenString string, err error) {
	claims := LicenceClaims{
		licenceID,
		instanceID,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(secretKey))
	return
}

func ValidateLicenceToken(tokenString string, secretKey string) (claims *LicenceClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &LicenceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*LicenceClaims)
	valid = valid && token.Valid
	return
}

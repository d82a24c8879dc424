package auth

import (
	"errors"
	"strconv"
	"time"

	"zenzspa.app/models"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims erişim token'ının içeriği. Sub kullanıcı ID'sidir.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID Sub alanını sayısal ID'ye çevirir.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Sub, 10, 64)
	if err != nil {
		return 0, errors.New("geçersiz kullanıcı kimliği")
	}
	return uint(id), nil
}

// CreateAccessToken kullanıcı için HS256 imzalı erişim token'ı üretir.
func CreateAccessToken(userID uint, role models.UserRole, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		Sub:  strconv.FormatUint(uint64(userID), 10),
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseValidate token'ı doğrular ve claim'leri döndürür.
func ParseValidate(tokenStr, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("beklenmeyen imza yöntemi")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errors.New("geçersiz token")
	}
	return claims, nil
}

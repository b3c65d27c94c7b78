package sessions

import (
	"crypto/sha256"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	snapshotKeyInfo   = "dashboard auth_user snapshot v1"
	snapshotKeyLength = 32
)

// snapshotClaims carries the user record inside the auth_user cookie
type snapshotClaims struct {
	User users.User `json:"usr"`
	jwt.RegisteredClaims
}

// SnapshotSigner signs and verifies the auth_user cookie. A tampered cookie is
// treated as missing.
type SnapshotSigner struct {
	key     []byte
	nowTime func() time.Time
}

// NewSnapshotSigner derives the HMAC key from the application secret
func NewSnapshotSigner(secret string) (*SnapshotSigner, error) {
	if secret == "" {
		return nil, errors.New("[NewSnapshotSigner] secret is required")
	}

	key := make([]byte, snapshotKeyLength)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(snapshotKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, errors.Wrap(err, "[NewSnapshotSigner] failed to derive key")
	}
	return &SnapshotSigner{key: key, nowTime: time.Now}, nil
}

// Sign encodes the user as a compact HS256 token
func (s *SnapshotSigner) Sign(user *users.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", errors.Wrap(err, "[Sign] invalid user")
	}

	claims := snapshotClaims{
		User: *user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.Login,
			IssuedAt: jwt.NewNumericDate(s.nowTime()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", errors.Wrap(err, "[Sign] failed to sign snapshot")
	}
	return signed, nil
}

// Parse verifies the token and returns the embedded user
func (s *SnapshotSigner) Parse(raw string) (*users.User, error) {
	claims := snapshotClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, dasherrors.Wrapf(dasherrors.ErrInvalidSnapshot, "[Parse] %s", err.Error())
	}
	if !token.Valid {
		return nil, dasherrors.ErrInvalidSnapshot
	}
	user := claims.User
	if err := user.Validate(); err != nil {
		return nil, dasherrors.Wrapf(dasherrors.ErrInvalidSnapshot, "[Parse] %s", err.Error())
	}
	return &user, nil
}

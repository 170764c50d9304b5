package service

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// AdminGate authorizes catalog mutations against a single shared secret. The
// secret can be configured in plain text or as a bcrypt hash; hashes are
// recognized by their "$2a$"/"$2b$"/"$2y$" prefix.
type AdminGate struct {
	secret   string
	isBcrypt bool
}

func NewAdminGate(secret string) *AdminGate {
	return &AdminGate{
		secret:   secret,
		isBcrypt: isBcryptHash(secret),
	}
}

// Authorize returns utils.ErrUnauthorized unless key matches the shared
// secret. An empty key never authorizes, and an empty configured secret
// denies everyone.
func (g *AdminGate) Authorize(key string) error {
	if key == "" || g.secret == "" {
		return fmt.Errorf("%w: admin key required", utils.ErrUnauthorized)
	}

	if g.isBcrypt {
		if err := bcrypt.CompareHashAndPassword([]byte(g.secret), []byte(key)); err != nil {
			log.Warn().Msg("Admin key verification failed")
			return fmt.Errorf("%w: invalid admin key", utils.ErrUnauthorized)
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(g.secret), []byte(key)) != 1 {
		log.Warn().Msg("Admin key verification failed")
		return fmt.Errorf("%w: invalid admin key", utils.ErrUnauthorized)
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

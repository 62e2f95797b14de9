package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// User is the wallet owner. UUID is the opaque identity handed to us by the
// authentication layer; Coin is only ever changed by conditional updates in the
// wallet repository.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UUID       string    `gorm:"column:uuid;type:varchar(64);not null;uniqueIndex" json:"uuid" validate:"required,max=64"`
	Name       string    `gorm:"type:varchar(150);default:''" json:"name" validate:"max=150"`
	Coin       int64     `gorm:"not null;default:0;check:chk_users_coin,coin >= 0" json:"coin" validate:"gte=0"`
	VipTierID  *uint     `gorm:"column:vip_tier_id;index" json:"vip_tier_id,omitempty"`
	APIKeyHash string    `gorm:"column:api_key_hash;type:char(64);default:'';index" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "pw_"

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// HasActiveAPIKey reports whether the user can authenticate with an API key.
func (u *User) HasActiveAPIKey() bool {
	return u != nil && u.APIKeyHash != ""
}

// IssueAPIKey generates a new API key, stores its hash on the struct and returns
// the raw secret. Callers must persist the user afterwards.
func (u *User) IssueAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := apiKeyPrefix + strings.ToLower(apiKeyEncoding.EncodeToString(b))
	u.APIKeyHash = HashAPIKey(raw)
	return raw, nil
}

// RevokeAPIKey clears the stored hash.
func (u *User) RevokeAPIKey() {
	u.APIKeyHash = ""
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

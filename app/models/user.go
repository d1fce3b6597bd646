package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// Subscription tiers. The tier alone does not grant entitlements; the
// subscription status must be entitling too (see SubscriptionEntitles).
const (
	TIER_FREE       = "free"
	TIER_PRO        = "pro"
	TIER_ENTERPRISE = "enterprise"
)

const (
	SUB_STATUS_ACTIVE   = "active"
	SUB_STATUS_CANCELED = "canceled"
	SUB_STATUS_PAST_DUE = "past_due"
	SUB_STATUS_TRIALING = "trialing"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password           string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role               string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status             string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	SubscriptionTier   string         `gorm:"type:varchar(50);default:'free';index" json:"subscription_tier" validate:"oneof=free pro enterprise"`
	SubscriptionStatus string         `gorm:"type:varchar(50);default:'active'" json:"subscription_status" validate:"oneof=active canceled past_due trialing"`
	BillingCustomerRef string         `gorm:"type:varchar(191);default:null;index" json:"-"` // billing provider customer id
	APIKeyHash         string         `gorm:"type:varchar(64);default:null;index" json:"-"`
	APIKeyRevokedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	ActivationToken    string         `gorm:"type:varchar(100);index" json:"-"`
	ActivationSentAt   *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	ResetToken         string         `gorm:"type:varchar(100);default:null;index" json:"-"`
	ResetSentAt        *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt        *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:               username,
		Email:              email,
		Password:           pw,
		Role:               ROLE_USER,
		Status:             STATUS_INACTIVE,
		SubscriptionTier:   TIER_FREE,
		SubscriptionStatus: SUB_STATUS_ACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// GenerateActivationToken creates a random token and sets ActivationSentAt
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	now := time.Now()
	u.ActivationSentAt = &now
	return nil
}

// GenerateResetToken creates a random token for password reset and sets ResetSentAt
func (u *User) GenerateResetToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ResetToken = hex.EncodeToString(b)
	now := time.Now()
	u.ResetSentAt = &now
	return nil
}

// IsResetTokenValid checks the reset token and its 24h expiry window
func (u *User) IsResetTokenValid(token string) bool {
	if u.ResetToken == "" || u.ResetSentAt == nil {
		return false
	}
	if u.ResetToken != token {
		return false
	}
	return time.Since(*u.ResetSentAt) < 24*time.Hour
}

// IsActive reports whether the user account status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// SubscriptionEntitles reports whether the subscription status grants
// paid-tier entitlements. A canceled or past_due subscription is denied
// even if SubscriptionTier still names a paid tier.
func (u *User) SubscriptionEntitles() bool {
	return u.SubscriptionStatus == SUB_STATUS_ACTIVE || u.SubscriptionStatus == SUB_STATUS_TRIALING
}

// HashAPIKey returns the hex SHA-256 digest stored for API key lookup. The
// raw key is shown to the user once and never persisted.
func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey creates a new random API key and stores its hash on the
// user. The returned plaintext key must be handed to the user immediately.
func (u *User) GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	key := "dfx_" + hex.EncodeToString(b)
	u.APIKeyHash = HashAPIKey(key)
	u.APIKeyRevokedAt = nil
	return key, nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

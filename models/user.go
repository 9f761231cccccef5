package models

import (
	"strings"
	"time"

	"natours/db"
	"natours/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DefaultPhoto   = "default.jpg"
	resetTokenSize = 32
)

// PasswordCost is the bcrypt cost used for new passwords
var PasswordCost = 12

type User struct {
	ID                   uint64     `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time  `json:"-"`
	UpdatedAt            time.Time  `json:"-"`
	Name                 string     `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Email                string     `gorm:"type:varchar(150);index:uniq_email,unique;not null" json:"email" validate:"required,email"`
	Photo                string     `gorm:"type:varchar(255);not null" json:"photo"`
	Role                 Role       `gorm:"type:varchar(20);not null" json:"role" validate:"oneof=user guide lead-guide admin"`
	Password             string     `gorm:"type:varchar(128);not null" json:"-"`
	PasswordChangedAt    *time.Time `json:"passwordChangedAt,omitempty"`
	PasswordResetToken   *string    `gorm:"type:varchar(64);index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `gorm:"not null" json:"-"`
}

// PasswordInput is the password + confirmation pair sent on signup, reset and
// password update.
type PasswordInput struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (u *User) SetDefaults() {
	u.Role = RoleUser
	u.Photo = DefaultPhoto
	u.Active = true
}

func (u *User) Validate() error {
	return ValidateStruct(u)
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// SetPassword hashes the password. For existing users the change time is
// moved one second into the past so tokens issued right after stay valid.
func (u *User) SetPassword(plainTextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), PasswordCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	if u.ID != 0 {
		changedAt := time.Now().Add(-time.Second)
		u.PasswordChangedAt = &changedAt
	}
	return nil
}

func (u *User) CorrectPassword(plainTextPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainTextPassword)) == nil
}

// ChangedPasswordAfter reports whether the password changed after a token
// was issued at iat.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// CreatePasswordResetToken returns the plain token to send to the user and
// keeps only its hash.
func (u *User) CreatePasswordResetToken(ttl time.Duration) string {
	token := utils.RandHex(resetTokenSize)
	hashed := utils.Sha256String(token)
	expires := time.Now().Add(ttl)
	u.PasswordResetToken = &hashed
	u.PasswordResetExpires = &expires
	return token
}

func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) FirstName() string {
	return strings.SplitN(u.Name, " ", 2)[0]
}

func UserByEmail(email string) (u User, err error) {
	err = db.Instance.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	return
}

// UserByResetToken finds the user owning a plain reset token that has not
// expired yet.
func UserByResetToken(token string) (u User, err error) {
	err = db.Instance.
		Where("password_reset_token = ? AND password_reset_expires > ?", utils.Sha256String(token), time.Now()).
		First(&u).Error
	return
}

// PurgeExpiredResetTokens clears reset tokens past their expiry.
func PurgeExpiredResetTokens() (int64, error) {
	res := db.Instance.Model(&User{}).
		Where("password_reset_expires IS NOT NULL AND password_reset_expires < ?", time.Now()).
		UpdateColumns(map[string]interface{}{"password_reset_token": nil, "password_reset_expires": nil})
	return res.RowsAffected, res.Error
}

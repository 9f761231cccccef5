package models

import (
	"testing"
	"time"

	"natours/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("pass1234"))
	assert.Nil(t, u.PasswordChangedAt, "new users have no change time")
	assert.True(t, u.CorrectPassword("pass1234"))
	assert.False(t, u.CorrectPassword("pass12345"))

	u.ID = 1
	require.NoError(t, u.SetPassword("another-one"))
	require.NotNil(t, u.PasswordChangedAt)
	assert.True(t, u.PasswordChangedAt.Before(time.Now()))
}

func TestChangedPasswordAfter(t *testing.T) {
	changed := time.Now()
	tests := []struct {
		name      string
		changedAt *time.Time
		iat       time.Time
		want      bool
	}{
		{"never changed", nil, time.Now(), false},
		{"token issued before change", &changed, changed.Add(-time.Hour), true},
		{"token issued after change", &changed, changed.Add(time.Hour), false},
		{"same second", &changed, changed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{PasswordChangedAt: tt.changedAt}
			assert.Equal(t, tt.want, u.ChangedPasswordAfter(tt.iat))
		})
	}
}

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		message string
	}{
		{"valid", User{Name: "Jonas", Email: "jonas@example.com", Role: RoleUser}, ""},
		{"missing name", User{Email: "jonas@example.com", Role: RoleUser}, "Invalid input data. name is required"},
		{"bad email", User{Name: "Jonas", Email: "jonas", Role: RoleUser}, "Invalid input data. Please provide a valid email"},
		{"bad role", User{Name: "Jonas", Email: "jonas@example.com", Role: "root"}, "Invalid input data. role is either: user, guide, lead-guide, admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestPasswordInputValidate(t *testing.T) {
	err := ValidateStruct(&PasswordInput{Password: "pass1234", PasswordConfirm: "pass4321"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Passwords are not the same!")

	err = ValidateStruct(&PasswordInput{Password: "short", PasswordConfirm: "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password must have more or equal than 8 characters")

	assert.NoError(t, ValidateStruct(&PasswordInput{Password: "pass1234", PasswordConfirm: "pass1234"}))
}

func TestPasswordResetToken(t *testing.T) {
	setupDB(t)
	u := createUser(t, "Reset Me", "Reset@Example.com", RoleUser)
	assert.Equal(t, "reset@example.com", u.Email)

	token := u.CreatePasswordResetToken(10 * time.Minute)
	assert.Len(t, token, 64)
	require.NotNil(t, u.PasswordResetToken)
	assert.NotEqual(t, token, *u.PasswordResetToken)
	require.NoError(t, db.Instance.Save(u).Error)

	found, err := UserByResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = UserByResetToken("not-the-token")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// expired tokens are not accepted and get purged
	past := time.Now().Add(-time.Minute)
	u.PasswordResetExpires = &past
	require.NoError(t, db.Instance.Save(u).Error)
	_, err = UserByResetToken(token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	purged, err := PurgeExpiredResetTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestInactiveUsersAreHidden(t *testing.T) {
	setupDB(t)
	active := createUser(t, "Active User", "active@example.com", RoleUser)
	gone := createUser(t, "Gone User", "gone@example.com", RoleUser)
	require.NoError(t, db.Instance.Model(gone).Update("active", false).Error)

	var users []User
	require.NoError(t, db.Instance.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, active.ID, users[0].ID)

	_, err := UserByEmail("gone@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Instance.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, IncludeHidden(db.Instance).Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Leo", (&User{Name: "Leo J. Gillespie"}).FirstName())
	assert.Equal(t, "Leo", (&User{Name: "Leo"}).FirstName())
}

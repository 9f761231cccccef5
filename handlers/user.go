package handlers

import (
	"net/http"
	"strings"

	"natours/auth"
	"natours/config"
	"natours/db"
	"natours/errs"
	"natours/mail"
	"natours/models"
	"natours/processing"
	"natours/query"
	"natours/storage"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var userFields = query.FieldMap{
	"createdAt": {Column: "created_at", Kind: query.Time},
	"name":      {Column: "name"},
	"email":     {Column: "email"},
	"role":      {Column: "role", Repeatable: true},
	"photo":     {Column: "photo"},
}

// Users is the admin API over user accounts. Passwords never go through it.
var Users = &Resource[models.User, *models.User]{
	Singular: "user",
	Plural:   "users",
	Fields:   userFields,
	Prepare: func(c *gin.Context, u *models.User, b Body) error {
		b.without("password", "passwordConfirm", "passwordChangedAt")
		return nil
	},
}

func Signup(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	var password models.PasswordInput
	if err = b.only("password", "passwordConfirm").decodeInto(&password); err != nil {
		fail(c, err)
		return
	}
	user := &models.User{}
	user.SetDefaults()
	if err = b.only("name", "email").decodeInto(user); err != nil {
		fail(c, err)
		return
	}
	if err = models.ValidateStruct(&password); err != nil {
		fail(c, err)
		return
	}
	if err = user.Validate(); err != nil {
		fail(c, err)
		return
	}
	if err = user.SetPassword(password.Password); err != nil {
		fail(c, err)
		return
	}
	if err = db.Instance.WithContext(c.Request.Context()).Create(user).Error; err != nil {
		fail(c, err)
		return
	}
	if welcomeSender != nil {
		welcomeSender.SendWelcome(c.Request.Context(), mail.NewEmail(user, baseURL(c)+"/me"))
	}
	auth.SendToken(c, user, http.StatusCreated)
}

func Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	_ = b.only("email", "password").decodeInto(&credentials)
	if credentials.Email == "" || credentials.Password == "" {
		fail(c, errs.BadRequest("Please provide email and password!"))
		return
	}
	user, err := models.UserByEmail(credentials.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, err)
		return
	}
	if err != nil || !user.CorrectPassword(credentials.Password) {
		fail(c, errs.Unauthorized("Incorrect email or password"))
		return
	}
	auth.SendToken(c, &user, http.StatusOK)
}

func Logout(c *gin.Context) {
	auth.Logout(c)
}

// ForgotPassword mails a reset link. The token is dropped again when the
// email cannot be sent.
func ForgotPassword(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	user, err := models.UserByEmail(b.str("email"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, errs.NotFound("There is no user with that email address."))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	validFor := config.Current.PasswordResetExpiration
	token := user.CreatePasswordResetToken(validFor)
	if err = saveResetToken(c, &user); err != nil {
		fail(c, err)
		return
	}

	resetURL := baseURL(c) + "/api/v1/users/resetPassword/" + token
	if err = mail.NewEmail(&user, resetURL).SendPasswordReset(c.Request.Context(), mailer, validFor); err != nil {
		zap.L().Error("sending password reset", zap.Uint64("user_id", user.ID), zap.Error(err))
		user.ClearPasswordReset()
		if err = saveResetToken(c, &user); err != nil {
			zap.L().Error("clearing password reset", zap.Uint64("user_id", user.ID), zap.Error(err))
		}
		fail(c, errs.New("There was an error sending the email. Try again later!", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"message": "Token sent to email!",
	})
}

func saveResetToken(c *gin.Context, user *models.User) error {
	return db.Instance.WithContext(c.Request.Context()).Model(user).UpdateColumns(map[string]interface{}{
		"password_reset_token":   user.PasswordResetToken,
		"password_reset_expires": user.PasswordResetExpires,
	}).Error
}

func ResetPassword(c *gin.Context) {
	user, err := models.UserByResetToken(c.Param("token"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, errs.BadRequest("Token is invalid or has expired"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if err = changePassword(c, &user); err != nil {
		fail(c, err)
		return
	}
	auth.SendToken(c, &user, http.StatusOK)
}

func UpdateMyPassword(c *gin.Context, user *models.User) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	if !user.CorrectPassword(b.str("passwordCurrent")) {
		fail(c, errs.Unauthorized("Your current password is wrong."))
		return
	}
	if err = changePassword(c, user, b); err != nil {
		fail(c, err)
		return
	}
	auth.SendToken(c, user, http.StatusOK)
}

// changePassword validates the password pair of the body and stores it, the
// reset token is cleared on the way.
func changePassword(c *gin.Context, user *models.User, body ...Body) error {
	var b Body
	if len(body) > 0 {
		b = body[0]
	} else {
		var err error
		if b, err = readBody(c); err != nil {
			return err
		}
	}
	var password models.PasswordInput
	if err := b.only("password", "passwordConfirm").decodeInto(&password); err != nil {
		return err
	}
	if err := models.ValidateStruct(&password); err != nil {
		return err
	}
	if err := user.SetPassword(password.Password); err != nil {
		return err
	}
	user.ClearPasswordReset()
	return db.Instance.WithContext(c.Request.Context()).Model(user).
		Select("password", "password_changed_at", "password_reset_token", "password_reset_expires").
		Updates(user).Error
}

func Me(c *gin.Context, user *models.User) {
	sendOne(c, http.StatusOK, "user", user)
}

// UpdateMe changes name, email and photo of the caller
func UpdateMe(c *gin.Context, user *models.User) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	if b.has("password", "passwordConfirm") {
		fail(c, errs.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}
	if err = b.only("name", "email").decodeInto(user); err != nil {
		fail(c, err)
		return
	}
	if form := c.Request.MultipartForm; form != nil && len(form.File["photo"]) > 0 {
		photo, err := processing.SaveUserPhoto(storage.Default(), user.ID, form.File["photo"][0])
		if err != nil {
			fail(c, err)
			return
		}
		user.Photo = photo
	}
	if err = UpdateProfile(c, user); err != nil {
		fail(c, err)
		return
	}
	sendOne(c, http.StatusOK, "user", user)
}

// UpdateProfile validates and stores the self-service fields of a user
func UpdateProfile(c *gin.Context, user *models.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if err := user.Validate(); err != nil {
		return err
	}
	return db.Instance.WithContext(c.Request.Context()).Model(user).
		Select("name", "email", "photo").
		Updates(user).Error
}

func DeleteMe(c *gin.Context, user *models.User) {
	if err := db.Instance.WithContext(c.Request.Context()).Model(user).UpdateColumn("active", false).Error; err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func CreateUser(c *gin.Context) {
	fail(c, errs.New("This route is not defined! Please use /signup instead", http.StatusInternalServerError))
}

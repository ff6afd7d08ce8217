package models

import (
	"errors"
	"time"

	emailverifier "github.com/AfterShip/email-verifier"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrEmailInvalid = errors.New("email is invalid")

func init() {
	registerModel(&User{})
}

type User struct {
	gorm.Model
	FirstName string
	LastName  string
	Email     string `gorm:"unique;size:255"`
	Role      string `gorm:"size:32;default:user"`
	Verified  bool   `gorm:"default:false;"`
	LastLogin *time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return verifyEmail(u.Email)
}

func (u *User) BeforeUpdate(tx *gorm.DB) error {
	var email string
	var changed bool

	switch dest := tx.Statement.Dest.(type) {
	case *User:
		email = dest.Email
		changed = tx.Statement.Changed("Email")
	case map[string]interface{}:
		if e, ok := dest["email"]; ok {
			if emailStr, ok := e.(string); ok {
				email = emailStr
				changed = true
			}
		}
	default:
		return nil
	}

	if changed {
		return verifyEmail(email)
	}

	return nil
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}

func verifyEmail(email string) error {
	if email == "" {
		return nil
	}

	// Syntax only; MX and SMTP probing stay off so writes never touch the network.
	if !getEmailVerifier().ParseAddress(email).Valid {
		return ErrEmailInvalid
	}

	return nil
}

func getEmailVerifier() *emailverifier.Verifier {
	verifier := emailverifier.NewVerifier()

	verifier.DisableSMTPCheck()
	verifier.DisableGravatarCheck()
	verifier.DisableDomainSuggest()
	verifier.DisableAutoUpdateDisposable()

	return verifier
}

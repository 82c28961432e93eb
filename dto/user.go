package dto

import (
	"time"

	"github.com/cppla/articles/models"
)

// UserFields is the visibility table of a user. Flags and the password are write-only.
var UserFields = Fields{
	"id":              {Readable: true},
	"username":        {Readable: true, Writable: true, Required: true},
	"email":           {Readable: true, Writable: true, Required: true},
	"password":        {Writable: true, Required: true},
	"first_name":      {Readable: true, Writable: true},
	"last_name":       {Readable: true, Writable: true},
	"gender":          {Readable: true, Writable: true, Required: true},
	"birth":           {Readable: true, Writable: true, Required: true},
	"level":           {Readable: true, Writable: true, Required: true},
	"is_staff":        {Writable: true},
	"is_active":       {Writable: true},
	"is_superuser":    {Writable: true},
	"confirmed_email": {Writable: true},
	"created":         {Readable: true},
	"updated":         {Readable: true},
}

// UserInput is the decoded user body. Nil means the field was not sent.
type UserInput struct {
	Username       *string `json:"username" validate:"omitempty,notblank,max=30"`
	Email          *string `json:"email" validate:"omitempty,notblank,email,max=255"`
	Password       *string `json:"password" validate:"omitempty,notblank,max=128"`
	FirstName      *string `json:"first_name" validate:"omitempty,max=30"`
	LastName       *string `json:"last_name" validate:"omitempty,max=30"`
	Gender         *string `json:"gender" validate:"omitempty,oneof=M F O"`
	Birth          *string `json:"birth" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Level          *string `json:"level" validate:"omitempty,oneof=JR MID SR"`
	IsStaff        *bool   `json:"is_staff"`
	IsActive       *bool   `json:"is_active"`
	IsSuperuser    *bool   `json:"is_superuser"`
	ConfirmedEmail *bool   `json:"confirmed_email"`
}

// StaffFlags reports whether the input sets is_staff or is_superuser.
func (in *UserInput) StaffFlags() bool {
	return in.IsStaff != nil || in.IsSuperuser != nil
}

// AccountFlags reports whether the input sets is_active or confirmed_email.
func (in *UserInput) AccountFlags() bool {
	return in.IsActive != nil || in.ConfirmedEmail != nil
}

// Privileged reports whether the input touches any flag only an admin may set.
func (in *UserInput) Privileged() bool {
	return in.StaffFlags() || in.AccountFlags()
}

// Apply copies the sent fields onto u. The password is left to the caller so it can be hashed.
func (in *UserInput) Apply(u *models.User) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Gender != nil {
		u.Gender = *in.Gender
	}
	if in.Birth != nil {
		// Format was checked by the validator.
		if t, err := time.Parse(time.RFC3339, *in.Birth); err == nil {
			u.Birth = &t
		}
	}
	if in.Level != nil {
		u.Level = *in.Level
	}
	if in.IsStaff != nil {
		u.IsStaff = *in.IsStaff
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}
	if in.ConfirmedEmail != nil {
		u.ConfirmedEmail = *in.ConfirmedEmail
	}
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Gender    string     `json:"gender"`
	Birth     *time.Time `json:"birth"`
	Level     string     `json:"level"`
	Created   time.Time  `json:"created"`
	Updated   time.Time  `json:"updated"`
}

// ToUser maps a user to its representation.
func ToUser(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Gender:    u.Gender,
		Birth:     u.Birth,
		Level:     u.Level,
		Created:   u.CreatedAt,
		Updated:   u.UpdatedAt,
	}
}

// ToUsers maps a slice of users.
func ToUsers(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUser(&users[i]))
	}
	return out
}

// LoginFields is the table of the login body.
var LoginFields = Fields{
	"username": {Writable: true, Required: true},
	"password": {Writable: true, Required: true},
}

// LoginInput is the decoded login body.
type LoginInput struct {
	Username *string `json:"username" validate:"omitempty,notblank"`
	Password *string `json:"password" validate:"omitempty,notblank"`
}

// LoginResponse carries the opaque token and a short-lived access JWT.
type LoginResponse struct {
	Token     string    `json:"token"`
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expires_at"`
}

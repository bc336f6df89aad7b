package backend

import (
	"encoding/json"
	"io"
)

// User is the backend's user record. It is displayed and forwarded, never persisted here.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts either "id" or the Mongo-style "_id"
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	Data    User   `json:"data"`
}

// ForgotPasswordResponse carries an optional development-mode reset token
type ForgotPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// ProfileRequest is the editable part of the caller's own profile
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MessageResponse is the generic {message} envelope
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the {message, data} envelope around one user
type UserResponse struct {
	Message string `json:"message"`
	Data    *User  `json:"data"`
}

// UsersResponse is the {data:[...]} envelope of the user list
type UsersResponse struct {
	Data []User `json:"data"`
}

// Upload is a file attached to a multipart user form
type Upload struct {
	Filename string
	Content  io.Reader
}

// UserForm is the admin create/update payload, sent as multipart form data.
// Password and Image are only sent when set.
type UserForm struct {
	Name     string
	Email    string
	Password string
	Role     string
	Image    *Upload
}

package forms

// RegisterInput is the sign-up form
type RegisterInput struct {
	Name            string `form:"name" label:"Name" validate:"required,min=2"`
	Email           string `form:"email" label:"Email" validate:"required,email"`
	Password        string `form:"password" label:"Password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" label:"Confirm password" validate:"required,eqfield=Password"`
}

// LoginInput is the sign-in form
type LoginInput struct {
	Email    string `form:"email" label:"Email" validate:"required,email"`
	Password string `form:"password" label:"Password" validate:"required"`
}

// ForgotPasswordInput asks for a reset link
type ForgotPasswordInput struct {
	Email string `form:"email" label:"Email" validate:"required,email"`
}

// ResetPasswordInput redeems a reset link. Token comes from the link, not the user.
type ResetPasswordInput struct {
	Token           string `form:"token"`
	Password        string `form:"password" label:"Password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" label:"Confirm password" validate:"required,min=6,eqfield=Password"`
}

// ProfileInput edits the caller's own profile
type ProfileInput struct {
	Name  string `form:"name" label:"Name" validate:"required"`
	Email string `form:"email" label:"Email" validate:"required,email"`
}

// CreateUserInput is the admin create-user form
type CreateUserInput struct {
	Name     string `form:"name" label:"Name" validate:"required"`
	Email    string `form:"email" label:"Email" validate:"required,email"`
	Password string `form:"password" label:"Password" validate:"required,min=6"`
	Role     string `form:"role" label:"Role" validate:"required,oneof=user admin"`
}

// EditUserInput is the admin edit-user form. An empty password keeps the current one.
type EditUserInput struct {
	Name     string `form:"name" label:"Name" validate:"required"`
	Email    string `form:"email" label:"Email" validate:"required,email"`
	Password string `form:"password" label:"Password" validate:"omitempty,min=6"`
	Role     string `form:"role" label:"Role" validate:"required,oneof=user admin"`
}

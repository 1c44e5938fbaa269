package dto

// Field names follow the JSON payload; the mapstructure tags are what the
// handlers decode with.

type CreateUserDTO struct {
	FirstName    string `mapstructure:"firstName"    validate:"required"`
	LastName     string `mapstructure:"lastName"     validate:"required"`
	Phone        string `mapstructure:"phone"        validate:"required,len=10"`
	Password     string `mapstructure:"password"     validate:"required"`
	TOSAgreement bool   `mapstructure:"tosAgreement" validate:"required"`
}

type GetUserDTO struct {
	Phone string `mapstructure:"phone" validate:"required,len=10"`
	Token string `mapstructure:"-"`
}

// UpdateUserDTO carries optional fields; an empty string means "leave as is".
type UpdateUserDTO struct {
	Phone     string `mapstructure:"phone"     validate:"required,len=10"`
	FirstName string `mapstructure:"firstName"`
	LastName  string `mapstructure:"lastName"`
	Password  string `mapstructure:"password"`
	Token     string `mapstructure:"-"`
}

func (d UpdateUserDTO) HasChanges() bool {
	return d.FirstName != "" || d.LastName != "" || d.Password != ""
}

type DeleteUserDTO struct {
	Phone string `mapstructure:"phone" validate:"required,len=10"`
	Token string `mapstructure:"-"`
}

type LoginDTO struct {
	Phone    string `mapstructure:"phone"    validate:"required,len=10"`
	Password string `mapstructure:"password" validate:"required"`
}

type TokenIDDTO struct {
	ID string `mapstructure:"id" validate:"required,len=20"`
}

type ExtendTokenDTO struct {
	ID     string `mapstructure:"id"     validate:"required,len=20"`
	Extend bool   `mapstructure:"extend" validate:"required"`
}

package model

import "time"

const (
	UsersCollection  = "users"
	TokensCollection = "tokens"

	PhoneLength   = 10
	TokenIDLength = 20
)

// User is stored in the users collection under its phone number.
type User struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone"`
	HashedPassword string `json:"hashedPassword,omitempty"`
	TOSAgreement   bool   `json:"tosAgreement"`
}

// Public returns a copy safe to hand to a client.
func (u User) Public() User {
	u.HashedPassword = ""
	return u
}

// Token is a bearer credential stored in the tokens collection under its id.
// Phone refers to the owner by value; deleting the user leaves the token behind.
type Token struct {
	ID      string `json:"id"`
	Phone   string `json:"phone"`
	Expires int64  `json:"expires"` // unix milliseconds
}

func (t Token) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expires)
}

// ActiveAt reports whether the token is still usable at now. There is no grace
// period: a token expiring exactly at now is already dead.
func (t Token) ActiveAt(now time.Time) bool {
	return t.Expires > now.UnixMilli()
}

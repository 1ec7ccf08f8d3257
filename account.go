package civ5client

import (
	"errors"
	"net/http"
)

// ErrAccountTaken is returned when registration is rejected, most commonly
// because the email or username is already in use.
var ErrAccountTaken = errors.New("civ5client: account already taken")

// Credentials identify the account behind an access token.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterAccount asks the server to create an account. The access token
// arrives by email, so no Client exists yet at this point.
func RegisterAccount(serverAddress, username, email string) error {
	c := NewClient(serverAddress, "")
	res, err := c.PostJSON("/user-accounts/register", map[string]string{
		"username": username,
		"email":    email,
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return ErrAccountTaken
	}
	return nil
}

// RequestCredentials fetches the account details the client's access token
// belongs to.
func RequestCredentials(c *Client) (Credentials, error) {
	res, err := c.Get("/user-accounts/current")
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := DecodeResponse(res, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

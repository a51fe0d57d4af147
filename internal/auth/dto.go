package auth

import (
	"strings"

	"github.com/frahmantamala/crm/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

func (d *LoginDTO) Normalize() {
	d.Account = strings.TrimSpace(d.Account)
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("account", d.Account).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	DepartID    int64  `json:"dept_id"`
	DepartName  string `json:"dept_name"`
}

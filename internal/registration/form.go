// Package registration validates trademark registration forms and prepares
// the pinned metadata a wallet needs to mint and register the trademark as
// an IP Asset.
package registration

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joelkehle/mark3/internal/apperr"
)

// Form is the trademark registration form. LegalOwner is filled from the
// connected wallet.
type Form struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Author      string `json:"author" validate:"required"`
	ImageIPFSID string `json:"imageIpfsId" validate:"required"`
	LegalOwner  string `json:"legalOwner" validate:"required,eth_addr"`
}

// FormError lists every problem with a form in field order.
type FormError struct {
	Problems []string
}

func (e *FormError) Error() string {
	return strings.Join(e.Problems, "; ")
}

var fieldMessages = map[string]string{
	"Name":        "Trademark name is required",
	"Description": "Description is required",
	"Author":      "Author is required",
	"ImageIPFSID": "IPFS image ID is required",
	"LegalOwner":  "Legal owner must be a wallet address",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (f Form) normalized() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Author = strings.TrimSpace(f.Author)
	f.ImageIPFSID = strings.TrimSpace(f.ImageIPFSID)
	f.LegalOwner = strings.TrimSpace(f.LegalOwner)
	return f
}

// Validate checks f after trimming whitespace. The returned error is an
// apperr validation error wrapping a *FormError.
func (f Form) Validate() error {
	err := validate.Struct(f.normalized())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("could not validate the form", err)
	}
	fe := &FormError{}
	for _, v := range verrs {
		msg, ok := fieldMessages[v.StructField()]
		if !ok {
			msg = v.Field() + " is invalid"
		}
		fe.Problems = append(fe.Problems, msg)
	}
	ae := apperr.Validation(fe.Error())
	ae.Err = fe
	return ae
}

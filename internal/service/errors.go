package service

import (
	"errors"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrConflict           = errors.New("conflict")            // 409
	ErrInvalidTransition  = errors.New("invalid transition")  // 409
	ErrInsufficientPoints = errors.New("insufficient points") // 400
	ErrOfferNotValid      = errors.New("offer not valid")     // 400
)

// Requester is the resolved principal acting on an operation.
type Requester struct {
	UserID uint
	Role   string
}

func (r Requester) IsStaff() bool {
	return r.Role == models.RoleBarista || r.Role == models.RoleAdmin
}

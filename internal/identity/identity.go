// Package identity validates the self-reported learner identifier that gates
// every other part of a session.
package identity

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// LearnerID is a validated 4-digit learner identifier.
type LearnerID string

func (id LearnerID) String() string { return string(id) }

// ValidationError reports a rejected identifier. It never leaves the client.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid learner id %q: %s", e.Input, e.Reason)
}

// number matches ^[0-9]+$, so non-ASCII digits are rejected too.
type submission struct {
	ID string `validate:"len=4,number"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Parse checks that s is exactly four ASCII digits.
func Parse(s string) (LearnerID, error) {
	if err := validatorInstance().Struct(submission{ID: s}); err != nil {
		return "", &ValidationError{Input: s, Reason: reasonFor(err)}
	}
	return LearnerID(s), nil
}

func reasonFor(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Tag() {
	case "len":
		return "must be exactly 4 characters"
	case "number":
		return "must contain only digits"
	}
	return verrs[0].Error()
}

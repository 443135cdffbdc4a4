package mission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DraftParams holds the editable fields of a mission.
type DraftParams struct {
	Subject          string `validate:"required,max=255"`
	Destination      string `validate:"required,max=255"`
	Purpose          string `validate:"max=4000"`
	TransportMode    string `validate:"max=100"`
	StartDate        *time.Time
	EndDate          *time.Time
	RequestedAdvance *decimal.Decimal
}

// DraftUpdate changes only the fields that are set.
type DraftUpdate struct {
	Subject          *string
	Destination      *string
	Purpose          *string
	TransportMode    *string
	StartDate        *time.Time
	EndDate          *time.Time
	RequestedAdvance *decimal.Decimal
}

func (u DraftUpdate) applyTo(p *DraftParams) {
	if u.Subject != nil {
		p.Subject = *u.Subject
	}

	if u.Destination != nil {
		p.Destination = *u.Destination
	}

	if u.Purpose != nil {
		p.Purpose = *u.Purpose
	}

	if u.TransportMode != nil {
		p.TransportMode = *u.TransportMode
	}

	if u.StartDate != nil {
		p.StartDate = u.StartDate
	}

	if u.EndDate != nil {
		p.EndDate = u.EndDate
	}

	if u.RequestedAdvance != nil {
		p.RequestedAdvance = u.RequestedAdvance
	}
}

func draftOf(m *Mission) DraftParams {
	return DraftParams{
		Subject:          m.Subject,
		Destination:      m.Destination,
		Purpose:          m.Purpose,
		TransportMode:    m.TransportMode,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		RequestedAdvance: m.RequestedAdvance,
	}
}

func (p DraftParams) writeTo(m *Mission) {
	m.Subject = strings.TrimSpace(p.Subject)
	m.Destination = strings.TrimSpace(p.Destination)
	m.Purpose = p.Purpose
	m.TransportMode = p.TransportMode
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate

	if p.RequestedAdvance != nil {
		amount := p.RequestedAdvance.Round(2)
		m.RequestedAdvance = &amount
	} else {
		m.RequestedAdvance = nil
	}
}

func validateDraft(p DraftParams) error {
	p.Subject = strings.TrimSpace(p.Subject)
	p.Destination = strings.TrimSpace(p.Destination)

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errorf(KindValidation, "%s", describe(verrs))
		}

		return fmt.Errorf("validating draft: %w", err)
	}

	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return errorf(KindValidation, "end date must not be before start date")
	}

	if p.RequestedAdvance != nil && p.RequestedAdvance.IsNegative() {
		return errorf(KindValidation, "requested advance must not be negative")
	}

	return nil
}

func validatePayment(p *PaymentParams) error {
	p.Amount = p.Amount.Round(2)

	if !p.Amount.IsPositive() {
		return errorf(KindValidation, "payment amount must be positive")
	}

	if p.OperationDate.IsZero() {
		return errorf(KindValidation, "operation date is required")
	}

	if len(p.Reference) > 100 {
		return errorf(KindValidation, "payment reference is too long")
	}

	return nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}

	return strings.Join(msgs, "; ")
}

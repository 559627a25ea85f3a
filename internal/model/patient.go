package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient of a diagnostics branch. PatientNumber
// is the human-facing registration number (e.g. OMC-2026-000153).
type Patient struct {
	Base
	Tenancy
	PatientNumber      string     `json:"patient_number" db:"patient_number"`
	FirstName          string     `json:"first_name" db:"first_name"`
	LastName           string     `json:"last_name" db:"last_name"`
	Phone              string     `json:"phone" db:"phone"`
	Email              string     `json:"email,omitempty" db:"email"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender             string     `json:"gender,omitempty" db:"gender"`
	Address            string     `json:"address,omitempty" db:"address"`
	ReferralProviderID *uuid.UUID `json:"referral_provider_id,omitempty" db:"referral_provider_id"`
}

// FullName joins the name parts for display and search.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// RegisterPatientRequest is the intake payload.
type RegisterPatientRequest struct {
	FirstName          string `json:"first_name" binding:"required"`
	LastName           string `json:"last_name" binding:"required"`
	Phone              string `json:"phone" binding:"required"`
	Email              string `json:"email" binding:"omitempty,email"`
	DateOfBirth        string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender             string `json:"gender" binding:"omitempty,oneof=male female other"`
	Address            string `json:"address"`
	ReferralProviderID string `json:"referral_provider_id" binding:"omitempty,uuid"`
}

// PatientFilter narrows patient listings and search.
type PatientFilter struct {
	Search string `form:"search"`
	Pagination
}

// Package domain defines the submission models accepted by the recruitment
// site: the four application variants, contact messages, and their stored
// forms. Applications form a closed tagged union discriminated by Category.
package domain

import (
	"encoding/json"
	"time"
)

// Category discriminates the application variants.
type Category string

const (
	CategoryRetired     Category = "retired"
	CategoryHousewife   Category = "housewife"
	CategoryTelecalling Category = "telecalling"
	CategoryField       Category = "field"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryRetired, CategoryHousewife, CategoryTelecalling, CategoryField}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryRetired, CategoryHousewife, CategoryTelecalling, CategoryField:
		return true
	}
	return false
}

// Label returns the human-readable name used in notifications.
func (c Category) Label() string {
	switch c {
	case CategoryRetired:
		return "Retired Professional"
	case CategoryHousewife:
		return "Housewife (35+)"
	case CategoryTelecalling:
		return "Telecalling (Female, 20-25)"
	case CategoryField:
		return "Field Executive (20-30)"
	}
	return string(c)
}

// ExperienceBucket is the coarse years-of-experience answer for retired
// professionals.
type ExperienceBucket string

const (
	Experience5  ExperienceBucket = "5+"
	Experience10 ExperienceBucket = "10+"
	Experience15 ExperienceBucket = "15+"
	Experience25 ExperienceBucket = "25+"
)

// Applicant holds the fields shared by every application category.
// Email is empty when the applicant chose not to provide one.
type Applicant struct {
	Name                   string `json:"name"`
	DateOfBirth            string `json:"dateOfBirth"`
	ContactNumber          string `json:"contactNumber"`
	Email                  string `json:"email"`
	EducationQualification string `json:"educationQualification"`
}

// Application is implemented only by the variant types in this package.
type Application interface {
	Category() Category
	Details() Applicant
	isApplication()
}

// RetiredApplication is submitted by retired professionals and carries their
// last role and experience.
type RetiredApplication struct {
	Applicant
	LastDesignationTitle string           `json:"lastDesignationTitle"`
	YearsOfExperience    ExperienceBucket `json:"yearsOfExperience"`
}

// HousewifeApplication is the 35+ homemakers track.
type HousewifeApplication struct{ Applicant }

// TelecallingApplication is the telecalling track.
type TelecallingApplication struct{ Applicant }

// FieldApplication is the field executive track.
type FieldApplication struct{ Applicant }

func (RetiredApplication) Category() Category     { return CategoryRetired }
func (HousewifeApplication) Category() Category   { return CategoryHousewife }
func (TelecallingApplication) Category() Category { return CategoryTelecalling }
func (FieldApplication) Category() Category       { return CategoryField }

func (a RetiredApplication) Details() Applicant     { return a.Applicant }
func (a HousewifeApplication) Details() Applicant   { return a.Applicant }
func (a TelecallingApplication) Details() Applicant { return a.Applicant }
func (a FieldApplication) Details() Applicant       { return a.Applicant }

func (RetiredApplication) isApplication()     {}
func (HousewifeApplication) isApplication()   {}
func (TelecallingApplication) isApplication() {}
func (FieldApplication) isApplication()       {}

// NewApplication builds the variant selected by category. Retired-only
// fields are ignored for every other category. It returns nil for an
// unknown category.
func NewApplication(category Category, a Applicant, lastDesignation string, years ExperienceBucket) Application {
	switch category {
	case CategoryRetired:
		return RetiredApplication{Applicant: a, LastDesignationTitle: lastDesignation, YearsOfExperience: years}
	case CategoryHousewife:
		return HousewifeApplication{Applicant: a}
	case CategoryTelecalling:
		return TelecallingApplication{Applicant: a}
	case CategoryField:
		return FieldApplication{Applicant: a}
	}
	return nil
}

// Contact is a message left through the contact form.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// StoredApplication is an accepted application with its generated identity.
// It is never mutated after creation.
type StoredApplication struct {
	ID          string
	SubmittedAt time.Time
	Application Application
}

// applicationJSON is the flat wire shape of a StoredApplication.
type applicationJSON struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	Category    Category  `json:"category"`
	Applicant
	LastDesignationTitle string           `json:"lastDesignationTitle,omitempty"`
	YearsOfExperience    ExperienceBucket `json:"yearsOfExperience,omitempty"`
}

// MarshalJSON flattens the variant into a single object carrying the
// category discriminant. Retired-only keys appear only for retired records.
func (s StoredApplication) MarshalJSON() ([]byte, error) {
	v := applicationJSON{ID: s.ID, SubmittedAt: s.SubmittedAt}
	if s.Application != nil {
		v.Category = s.Application.Category()
		v.Applicant = s.Application.Details()
		if r, ok := s.Application.(RetiredApplication); ok {
			v.LastDesignationTitle = r.LastDesignationTitle
			v.YearsOfExperience = r.YearsOfExperience
		}
	}
	return json.Marshal(v)
}

// StoredContact is an accepted contact message with its generated identity.
type StoredContact struct {
	ID string `json:"id"`
	Contact
	SubmittedAt time.Time `json:"submittedAt"`
}

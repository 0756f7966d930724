// Package validation turns raw form payloads into typed domain records.
//
// Rules are expressed as go-playground/validator struct tags on private rule
// structs, one per shape. The rule struct is chosen by the category
// discriminant, so fields belonging to another category are never read and
// never reach the resulting record. Every failing field is reported, in
// declaration order, with the message shown next to the form input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/skiline-backend/internal/domain"
)

var (
	contactNumberRe = regexp.MustCompile(`^\d{10,15}$`)
	basicEmailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRe        = regexp.MustCompile(`^\d+$`)
)

// ApplicationInput is the untyped join-us payload. All values arrive as
// strings; Category selects which of them are meaningful.
type ApplicationInput struct {
	Category               string `json:"category"`
	Name                   string `json:"name"`
	DateOfBirth            string `json:"dateOfBirth"`
	ContactNumber          string `json:"contactNumber"`
	Email                  string `json:"email"`
	EducationQualification string `json:"educationQualification"`
	LastDesignationTitle   string `json:"lastDesignationTitle"`
	YearsOfExperience      string `json:"yearsOfExperience"`
}

// ContactInput is the untyped contact form payload.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// FieldError names one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every failing field of a rejected submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// WrongType reports a field whose JSON value was not a string. Every form
// field is text, so this is the only shape error a decoder can attribute to
// a single field.
func WrongType(field string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: field + " must be a string"}}}
}

// ---- rule sets ----

type applicantRules struct {
	Name                   string `json:"name" validate:"min=2"`
	DateOfBirth            string `json:"dateOfBirth" validate:"required"`
	ContactNumber          string `json:"contactNumber" validate:"contactnumber"`
	Email                  string `json:"email" validate:"omitempty,basicemail"`
	EducationQualification string `json:"educationQualification" validate:"required"`
}

type retiredRules struct {
	applicantRules
	LastDesignationTitle string `json:"lastDesignationTitle" validate:"required"`
	YearsOfExperience    string `json:"yearsOfExperience" validate:"oneof=5+ 10+ 15+ 25+"`
}

type contactRules struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"omitempty,basicemail"`
	Phone   string `json:"phone" validate:"min=10,max=10,digits"`
	Message string `json:"message" validate:"min=10"`
}

// messages maps "field/tag" to the user-facing text.
var messages = map[string]string{
	"name/min":                        "Name must be at least 2 characters",
	"dateOfBirth/required":            "Date of birth is required",
	"contactNumber/contactnumber":     "Please enter a valid contact number",
	"email/basicemail":                "Please enter a valid email address",
	"educationQualification/required": "Education qualification is required",
	"lastDesignationTitle/required":   "Last designation is required",
	"yearsOfExperience/oneof":         "Please select years of experience",
	"phone/min":                       "Phone number must be at least 10 digits",
	"phone/max":                       "Phone number cannot exceed 10 digits",
	"phone/digits":                    "Phone number can only contain digits",
	"message/min":                     "Message must be at least 10 characters",
}

const invalidCategoryMessage = "Please select a valid category"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "contactnumber", contactNumberRe)
	mustRegister(v, "basicemail", basicEmailRe)
	mustRegister(v, "digits", digitsRe)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// ValidateApplication checks in against the rule set selected by its
// category and returns the matching domain variant.
func ValidateApplication(in ApplicationInput) (domain.Application, error) {
	cat := domain.Category(strings.TrimSpace(in.Category))
	if !cat.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "category", Message: invalidCategoryMessage}}}
	}

	base := applicantRules{
		Name:                   text(in.Name),
		DateOfBirth:            text(in.DateOfBirth),
		ContactNumber:          in.ContactNumber,
		Email:                  in.Email,
		EducationQualification: text(in.EducationQualification),
	}

	var rules any = base
	var retired retiredRules
	if cat == domain.CategoryRetired {
		retired = retiredRules{
			applicantRules:       base,
			LastDesignationTitle: text(in.LastDesignationTitle),
			YearsOfExperience:    strings.TrimSpace(in.YearsOfExperience),
		}
		rules = retired
	}
	if err := check(rules); err != nil {
		return nil, err
	}

	a := domain.Applicant{
		Name:                   base.Name,
		DateOfBirth:            base.DateOfBirth,
		ContactNumber:          base.ContactNumber,
		Email:                  base.Email,
		EducationQualification: base.EducationQualification,
	}
	return domain.NewApplication(cat, a, retired.LastDesignationTitle, domain.ExperienceBucket(retired.YearsOfExperience)), nil
}

// ValidateContact checks a contact form payload.
func ValidateContact(in ContactInput) (domain.Contact, error) {
	r := contactRules{
		Name:    text(in.Name),
		Email:   in.Email,
		Phone:   in.Phone,
		Message: text(in.Message),
	}
	if err := check(r); err != nil {
		return domain.Contact{}, err
	}
	return domain.Contact{Name: r.Name, Email: r.Email, Phone: r.Phone, Message: r.Message}, nil
}

// text trims and NFC-normalizes free text so length rules count what the
// user typed rather than its byte encoding.
func text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func check(rules any) error {
	err := validate.Struct(rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe.Field(), fe.Tag())})
	}
	return out
}

func message(field, tag string) string {
	if m, ok := messages[field+"/"+tag]; ok {
		return m
	}
	return field + " is invalid"
}

package domain

import "time"

// ApplicationRecord is the GORM row for a stored application. Retired-only
// columns are NULL for the other categories.
type ApplicationRecord struct {
	ID                     string    `gorm:"type:char(36);primaryKey"`
	Category               string    `gorm:"type:varchar(16);not null;index;check:category IN ('retired','housewife','telecalling','field')"`
	Name                   string    `gorm:"type:varchar(255);not null"`
	DateOfBirth            string    `gorm:"type:varchar(32);not null"`
	ContactNumber          string    `gorm:"type:varchar(20);not null"`
	Email                  string    `gorm:"type:varchar(255);not null;default:''"`
	EducationQualification string    `gorm:"type:varchar(255);not null"`
	LastDesignationTitle   *string   `gorm:"type:varchar(255)"`
	YearsOfExperience      *string   `gorm:"type:varchar(8)"`
	SubmittedAt            time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for ApplicationRecord.
func (ApplicationRecord) TableName() string { return "applications" }

// NewApplicationRecord maps a stored application onto its row.
func NewApplicationRecord(s StoredApplication) ApplicationRecord {
	d := s.Application.Details()
	rec := ApplicationRecord{
		ID:                     s.ID,
		Category:               string(s.Application.Category()),
		Name:                   d.Name,
		DateOfBirth:            d.DateOfBirth,
		ContactNumber:          d.ContactNumber,
		Email:                  d.Email,
		EducationQualification: d.EducationQualification,
		SubmittedAt:            s.SubmittedAt,
	}
	if r, ok := s.Application.(RetiredApplication); ok {
		title, years := r.LastDesignationTitle, string(r.YearsOfExperience)
		rec.LastDesignationTitle = &title
		rec.YearsOfExperience = &years
	}
	return rec
}

// Stored rebuilds the tagged union from the row. ok is false when the row
// carries a category this build does not know.
func (r ApplicationRecord) Stored() (StoredApplication, bool) {
	a := Applicant{
		Name:                   r.Name,
		DateOfBirth:            r.DateOfBirth,
		ContactNumber:          r.ContactNumber,
		Email:                  r.Email,
		EducationQualification: r.EducationQualification,
	}
	var title, years string
	if r.LastDesignationTitle != nil {
		title = *r.LastDesignationTitle
	}
	if r.YearsOfExperience != nil {
		years = *r.YearsOfExperience
	}
	app := NewApplication(Category(r.Category), a, title, ExperienceBucket(years))
	if app == nil {
		return StoredApplication{}, false
	}
	return StoredApplication{ID: r.ID, SubmittedAt: r.SubmittedAt.UTC(), Application: app}, true
}

// ContactRecord is the GORM row for a stored contact message.
type ContactRecord struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Email       string    `gorm:"type:varchar(255);not null;default:''"`
	Phone       string    `gorm:"type:varchar(10);not null"`
	Message     string    `gorm:"type:text;not null"`
	SubmittedAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for ContactRecord.
func (ContactRecord) TableName() string { return "contacts" }

// NewContactRecord maps a stored contact onto its row.
func NewContactRecord(s StoredContact) ContactRecord {
	return ContactRecord{
		ID:          s.ID,
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		Message:     s.Message,
		SubmittedAt: s.SubmittedAt,
	}
}

// Stored converts the row back to a StoredContact.
func (r ContactRecord) Stored() StoredContact {
	return StoredContact{
		ID:          r.ID,
		Contact:     Contact{Name: r.Name, Email: r.Email, Phone: r.Phone, Message: r.Message},
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

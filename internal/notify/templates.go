package notify

import (
	"bytes"
	"html/template"

	"github.com/tbourn/skiline-backend/internal/domain"
)

var (
	applicationTmpl = template.Must(template.New("application").Parse(`<h2>New Application Submission - {{.Label}}</h2>
<hr />
<h3>Applicant Details:</h3>
<p><strong>Name:</strong> {{.A.Name}}</p>
<p><strong>Date of Birth:</strong> {{.A.DateOfBirth}}</p>
<p><strong>Contact Number:</strong> {{.A.ContactNumber}}</p>
<p><strong>Email:</strong> {{with .A.Email}}{{.}}{{else}}Not provided{{end}}</p>
<p><strong>Education Qualification:</strong> {{.A.EducationQualification}}</p>
{{- if .Retired}}
<p><strong>Last Designation:</strong> {{.Retired.LastDesignationTitle}}</p>
<p><strong>Years of Experience:</strong> {{.Retired.YearsOfExperience}}</p>
{{- end}}
<hr />
<p style="color: #666; font-size: 14px;">Submission {{.ID}} was received through the Skiline Recruitment website.</p>
`))

	confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h2>Thank You for Your Application, {{.A.Name}}!</h2>
<hr />
<p>We have received your application for the {{.Label}} position. Our team will review your details and get back to you soon.</p>
<h3>Application Details:</h3>
<p><strong>Name:</strong> {{.A.Name}}</p>
<p><strong>Email:</strong> {{.A.Email}}</p>
<p><strong>Contact Number:</strong> {{.A.ContactNumber}}</p>
<p><strong>Education Qualification:</strong> {{.A.EducationQualification}}</p>
<hr />
<p style="color: #666; font-size: 14px;">This is an automated message. Please do not reply to this email.</p>
`))

	contactTmpl = template.Must(template.New("contact").Parse(`<h2>New Contact Form Submission</h2>
<hr />
<h3>Contact Details:</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{with .Email}}{{.}}{{else}}Not provided{{end}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Message:</strong></p>
<p style="white-space: pre-wrap; background: #f5f5f5; padding: 15px; border-radius: 5px;">{{.Message}}</p>
<hr />
<p style="color: #666; font-size: 14px;">This message was sent through the Skiline Recruitment contact form.</p>
`))
)

type applicationView struct {
	ID      string
	Label   string
	A       domain.Applicant
	Retired *domain.RetiredApplication
}

func newApplicationView(s domain.StoredApplication) applicationView {
	v := applicationView{
		ID:    s.ID,
		Label: s.Application.Category().Label(),
		A:     s.Application.Details(),
	}
	if r, ok := s.Application.(domain.RetiredApplication); ok {
		v.Retired = &r
	}
	return v
}

func render(t *template.Template, data any) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

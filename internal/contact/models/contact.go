package models

import (
	"fmt"
	"strings"
	"time"

	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/email"
)

// Submission is a message sent through the public contact form.
type Submission struct {
	ID        id.ContactID `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Phone     *string      `json:"phone"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
	Resolved  bool         `json:"resolved"`
	CreatedAt time.Time    `json:"created_at"`
}

// Fields are the editable parts of a submission.
type Fields struct {
	Name    string
	Email   string
	Phone   *string
	Subject string
	Message string
}

func (f Fields) Validate() error {
	for _, r := range []struct{ field, value string }{
		{"name", f.Name},
		{"email", f.Email},
		{"subject", f.Subject},
		{"message", f.Message},
	} {
		if strings.TrimSpace(r.value) == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", r.field))
		}
	}
	if !strings.Contains(f.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}

func (f Fields) normalized() Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	if f.Phone != nil {
		phone := strings.TrimSpace(*f.Phone)
		if phone == "" {
			f.Phone = nil
		} else {
			f.Phone = &phone
		}
	}
	return f
}

func NewSubmission(contactID id.ContactID, f Fields, now time.Time) (*Submission, error) {
	f = f.normalized()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s := &Submission{ID: contactID, CreatedAt: now}
	s.apply(f)
	return s, nil
}

// Replace overwrites every editable field including the resolved flag.
func (s *Submission) Replace(f Fields, resolved bool) error {
	f = f.normalized()
	if err := f.Validate(); err != nil {
		return err
	}
	s.apply(f)
	s.Resolved = resolved
	return nil
}

func (s *Submission) apply(f Fields) {
	s.Name = f.Name
	s.Email = f.Email
	s.Phone = f.Phone
	s.Subject = f.Subject
	s.Message = f.Message
}

// ReplyLink builds a mailto: reply quoting the original message.
func (s *Submission) ReplyLink() string {
	body := email.Greeting(s.Name) + "\n\n" +
		"Thank you for contacting Agape Safety Nest.\n\n\n" +
		"On " + s.CreatedAt.Format("Jan 2, 2006") + ", you wrote:\n" +
		email.Quote(s.Message)
	return email.ComposeLink(s.Email, "Re: "+s.Subject, body)
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/garnizeh/fixmate/internal/jobs"
)

// JobVerificationEmail is the job type carrying a VerificationPayload.
const JobVerificationEmail = "email.verification"

type VerificationPayload struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Link     string `json:"link"`
}

var verificationTmpl = template.Must(template.New("verify").Parse(`Hello {{.FullName}},

Welcome to FixMate. Please confirm your email address by opening the link below:

{{.Link}}

If you did not create an account you can ignore this message.
`))

// VerificationMessage renders the verification email for p.
func VerificationMessage(p VerificationPayload) (Message, error) {
	var body bytes.Buffer
	if err := verificationTmpl.Execute(&body, p); err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}
	return Message{To: p.Email, Subject: "Verify your FixMate account", Body: body.String()}, nil
}

// VerificationHandler sends the email described by a verification job.
func VerificationHandler(m Mailer) jobs.Handler {
	return func(ctx context.Context, j *jobs.Job) error {
		var p VerificationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode verification payload: %w", err)
		}
		if p.Email == "" || p.Link == "" {
			return fmt.Errorf("verification payload missing email or link")
		}
		msg, err := VerificationMessage(p)
		if err != nil {
			return err
		}
		return m.Send(ctx, msg)
	}
}

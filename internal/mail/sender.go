package mail

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/pkg/logger"
)

// Feedback is one platform-feedback submission to be mailed.
type Feedback struct {
	Name     string
	Email    string
	Rating   int
	Comments string
}

// Sender delivers feedback emails over SMTP to a fixed recipient.
type Sender struct {
	dialer    *gomail.Dialer
	from      string
	recipient string
}

// NewSender fails with a configuration error when the SMTP credential is
// absent, so the route reports it at first use instead of no-opping.
func NewSender(host string, port int, username, password, recipient string) (*Sender, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing SMTP credentials", httperr.ErrNotConfigured)
	}
	if recipient == "" {
		return nil, fmt.Errorf("%w: missing feedback recipient", httperr.ErrNotConfigured)
	}

	return &Sender{
		dialer:    gomail.NewDialer(host, port, username, password),
		from:      username,
		recipient: recipient,
	}, nil
}

// Send delivers one formatted feedback email. The underlying transport
// cause is logged, not returned to the caller.
func (s *Sender) Send(f Feedback) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.recipient)
	m.SetHeader("Subject", "New Feedback Received")
	m.SetBody("text/plain", feedbackBody(f))

	if err := s.dialer.DialAndSend(m); err != nil {
		logger.Error("Failed to send feedback email",
			zap.String("from", s.from),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send feedback email: %w", err)
	}

	logger.Info("Feedback email sent", zap.Int("rating", f.Rating))
	return nil
}

func feedbackBody(f Feedback) string {
	return fmt.Sprintf(
		"Hi Team,\n\n"+
			"We have just received new feedback on our platform. Here are the details:\n\n"+
			"--------------------------------\n"+
			"Name:           %s\n"+
			"Email:          %s\n"+
			"Rating:         %d / 5\n"+
			"--------------------------------\n\n"+
			"Feedback Comments:\n%s\n\n"+
			"--------------------------------\n\n"+
			"This feedback was submitted by %s, who rated their experience %d out of 5. "+
			"Please review the comments to identify any action items or opportunities for improvement.\n\n"+
			"If the feedback suggests an issue or an area of concern, consider following up with %s at %s to address their concerns.\n\n"+
			"Let's continue working together to enhance our platform and provide the best possible experience for our users.\n\n"+
			"Best regards,\nOur Platform Team",
		f.Name, f.Email, f.Rating, f.Comments, f.Name, f.Rating, f.Name, f.Email,
	)
}

// Package notification emails the assigned doctor when a record is
// saved with a high early-warning level. Delivery is best-effort; the
// save path never waits on it.
package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medboard/bedside-api/internal/config"
	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
	"github.com/medboard/bedside-api/internal/service/ews"
	"github.com/medboard/bedside-api/pkg/logger"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EscalationNotifier struct {
	dialer Dialer
	from   string
	staff  repository.StaffRepository
	logger *logger.Logger
}

func NewEscalationNotifier(cfg config.SMTPConfig, staff repository.StaffRepository, log *logger.Logger) *EscalationNotifier {
	return &EscalationNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		staff:  staff,
		logger: log,
	}
}

func (n *EscalationNotifier) NotifyDeterioration(ctx context.Context, bed *model.Bed, result ews.Result) error {
	if bed.AssignedDoctorID == nil {
		n.logger.Warn("high early-warning score with no assigned doctor", "bed", bed.Label)
		return nil
	}

	doctor, err := n.staff.Get(ctx, *bed.AssignedDoctorID)
	if err != nil {
		return fmt.Errorf("failed to resolve assigned doctor: %w", err)
	}
	if doctor.Email == "" {
		return nil
	}

	patientName := ""
	if bed.Patient != nil {
		patientName = bed.Patient.Name
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", doctor.Email)
	m.SetHeader("Subject", fmt.Sprintf("High early-warning score on bed %s", bed.Label))
	m.SetBody("text/plain", fmt.Sprintf(
		"Patient %s on bed %s (%s) scored %d (%s) on the early-warning scale.\nPlease review the record.",
		patientName, bed.Label, bed.Section, result.Score, result.Level,
	))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send escalation email: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/mailer"
	"storefront/internal/models"

	"github.com/sirupsen/logrus"
)

// ErrEmailNotConfigured is returned when SMTP delivery is not set up.
var ErrEmailNotConfigured = errors.New("email service not configured")

// MsgEmailNotConfigured is the client-facing text for ErrEmailNotConfigured.
const MsgEmailNotConfigured = "Email service not configured. Please contact support."

const (
	subjectOrderCustomer = "Order Confirmation - Thank you for your order!"
	emailDateLayout      = "January 2, 2006 at 03:04 PM"
)

// NotificationService renders and sends the storefront's transactional email.
type NotificationService struct {
	mailer     mailer.Mailer
	adminEmail string
	configured bool
	log        *logger.Logger
	now        func() time.Time
}

func NewNotificationService(m mailer.Mailer, adminEmail string, configured bool, log *logger.Logger) *NotificationService {
	return &NotificationService{
		mailer:     m,
		adminEmail: adminEmail,
		configured: configured,
		log:        log,
		now:        time.Now,
	}
}

// SendContact forwards a contact form submission to the store admin with
// reply-to set to the sender.
func (s *NotificationService) SendContact(ctx context.Context, msg *models.ContactMessage) error {
	if msg == nil ||
		strings.TrimSpace(msg.Name) == "" ||
		strings.TrimSpace(msg.Email) == "" ||
		strings.TrimSpace(msg.Subject) == "" ||
		strings.TrimSpace(msg.Message) == "" {
		return apperror.Validation("Missing required contact information", nil)
	}
	if !s.configured {
		s.log.Error("Contact form submitted but email service is not configured")
		return ErrEmailNotConfigured
	}

	html, err := mailer.RenderContactForm(mailer.ContactEmail{
		Name:        msg.Name,
		Email:       msg.Email,
		Subject:     msg.Subject,
		Message:     msg.Message,
		SubmittedAt: s.now().Format(emailDateLayout),
	})
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, mailer.Message{
		To:      []string{s.adminEmail},
		ReplyTo: msg.Email,
		Subject: "Contact Form: " + msg.Subject,
		HTML:    html,
	}); err != nil {
		return fmt.Errorf("failed to send contact form email: %w", err)
	}

	s.log.WithField("from", msg.Email).Info("Contact form email sent")
	return nil
}

// SendOrderConfirmation emails the admin copy first, then the customer copy.
func (s *NotificationService) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil || order.Customer.Name == "" || order.Customer.Email == "" {
		return apperror.Validation("Missing required order information", nil)
	}
	if !s.configured {
		return ErrEmailNotConfigured
	}

	html, err := mailer.RenderOrderConfirmation(orderEmail(order))
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, mailer.Message{
		To:      []string{s.adminEmail},
		Subject: "New Order from " + order.Customer.Name,
		HTML:    html,
	}); err != nil {
		return fmt.Errorf("failed to send admin order email: %w", err)
	}

	if err := s.mailer.Send(ctx, mailer.Message{
		To:      []string{order.Customer.Email},
		Subject: subjectOrderCustomer,
		HTML:    html,
	}); err != nil {
		return fmt.Errorf("failed to send customer order email: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"email":    order.Customer.Email,
	}).Info("Order confirmation emails sent")
	return nil
}

func orderEmail(order *models.Order) mailer.OrderEmail {
	return mailer.OrderEmail{
		OrderID:       order.ID.String(),
		OrderDate:     order.CreatedAt.Format(emailDateLayout),
		CustomerName:  order.Customer.Name,
		Email:         order.Customer.Email,
		Phone:         order.Customer.Phone,
		Address:       order.Customer.Address,
		City:          order.Customer.City,
		Items:         order.Summary.Items,
		Subtotal:      order.Summary.Subtotal,
		PromoCode:     order.Summary.PromoCode,
		PromoDiscount: order.Summary.PromoDiscount,
		Tax:           order.Summary.Tax,
		Shipping:      order.Summary.Shipping,
		Total:         order.Summary.Total,
		PaymentMethod: string(order.Customer.PaymentMethod),
		PaymentNumber: order.Customer.PaymentNumber,
	}
}

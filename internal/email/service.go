package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/config"
)

// Sender delivers a rendered email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, from, to, subject, htmlBody string) (string, error)
}

// Service handles transactional email rendering and delivery.
type Service struct {
	config   config.EmailConfig
	renderer *Renderer
	sender   Sender
	logger   zerolog.Logger
	observe  func(template, outcome string)
}

// NewService creates a new email service instance. The provider is picked from
// cfg.Provider; a disabled config logs instead of sending.
func NewService(ctx context.Context, cfg config.EmailConfig, renderer *Renderer, logger zerolog.Logger) (*Service, error) {
	logger = logger.With().Str("component", "email").Logger()
	s := &Service{config: cfg, renderer: renderer, logger: logger}

	if !cfg.Enabled {
		return s, nil
	}
	if err := validateEmailAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender email in config: %w", err)
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY not configured")
		}
		s.sender = NewResendSender(cfg.ResendAPIKey, logger)
	case "ses":
		sender, err := NewSESSender(ctx, SESConfig{
			Region:    cfg.SESRegion,
			AccessKey: cfg.SESAccessKey,
			SecretKey: cfg.SESSecretKey,
			Endpoint:  cfg.SESEndpoint,
		})
		if err != nil {
			return nil, err
		}
		s.sender = sender
	case "disabled":
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
	return s, nil
}

// WithSender swaps the delivery backend.
func (s *Service) WithSender(sender Sender) *Service {
	s.sender = sender
	return s
}

// WithObserver registers a callback for each send outcome.
func (s *Service) WithObserver(fn func(template, outcome string)) *Service {
	s.observe = fn
	return s
}

// Send validates, renders and delivers msg. It returns the provider message
// id; when delivery is disabled the id is a local placeholder.
func (s *Service) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		s.record(msg.Template, "invalid")
		return "", err
	}
	if msg.Subject == "" {
		ref, _ := msg.Data["orderId"].(string)
		msg.Subject = DefaultSubject(msg.Template, ref)
	}

	htmlBody, err := s.renderer.Render(msg)
	if err != nil {
		s.record(msg.Template, "error")
		return "", err
	}

	if s.sender == nil {
		s.logger.Info().
			Str("to", msg.To).
			Str("template", msg.Template).
			Str("subject", msg.Subject).
			Msg("email service disabled, skipping send")
		s.record(msg.Template, "skipped")
		return "disabled-" + uuid.NewString(), nil
	}

	id, err := s.sender.Send(ctx, s.config.From, msg.To, msg.Subject, htmlBody)
	if err != nil {
		s.record(msg.Template, "error")
		return "", fmt.Errorf("send %s email: %w", msg.Template, err)
	}

	s.logger.Info().
		Str("email_id", id).
		Str("to", msg.To).
		Str("template", msg.Template).
		Msg("email sent")
	s.record(msg.Template, "sent")
	return id, nil
}

func (s *Service) record(template, outcome string) {
	if s.observe != nil {
		s.observe(template, outcome)
	}
}

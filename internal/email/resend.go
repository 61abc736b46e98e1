package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	logger zerolog.Logger
}

func NewResendSender(apiKey string, logger zerolog.Logger) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), logger: logger}
}

// WithBaseURL points the client at another API root (tests).
func (r *ResendSender) WithBaseURL(u *url.URL) *ResendSender {
	r.client.BaseURL = u
	return r
}

// Send handles rate limit errors without retrying; the job queue owns retries.
func (r *ResendSender) Send(ctx context.Context, from, to, subject, htmlBody string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			r.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return "", fmt.Errorf("email rate limit exceeded (limit: %s, resets in: %s seconds): %w",
				rateLimitErr.Limit, rateLimitErr.Reset, err)
		}
		return "", fmt.Errorf("resend API error: %w", err)
	}
	return sent.Id, nil
}

package bluexpress

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const DefaultTrackingURL = "https://www.blue.cl/seguimiento/"

// Public tracking states derived from the tracking page text.
const (
	StatusDelivered = "delivered"
	StatusInTransit = "in_transit"
	StatusException = "exception"
	StatusUnknown   = "unknown"
)

// statusSelectors are tried in order; the first non-empty match wins.
var statusSelectors = []string{
	"[data-tracking-status]",
	".tracking-status",
	".estado-envio",
	".estado",
}

// PageStatus is what the public tracking page says about one shipment.
type PageStatus struct {
	TrackingNumber string
	Status         string
	Text           string
	CheckedAt      time.Time
}

// TrackingPage reads shipment state from the public tracking page. It works
// without API credentials.
type TrackingPage struct {
	baseURL   string
	userAgent string
	logger    zerolog.Logger
}

func NewTrackingPage(baseURL string, logger zerolog.Logger) *TrackingPage {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultTrackingURL
	}
	return &TrackingPage{
		baseURL:   baseURL,
		userAgent: "Conectados420-Storefront/1.0 (+https://conectados420.cl)",
		logger:    logger.With().Str("component", "tracking_page").Logger(),
	}
}

// URL returns the public tracking link for a tracking number.
func (p *TrackingPage) URL(trackingNumber string) string {
	return TrackingLink(p.baseURL, trackingNumber)
}

// TrackingLink builds "<base>?n_seguimiento=<tracking>".
func TrackingLink(baseURL, trackingNumber string) string {
	if baseURL == "" {
		baseURL = DefaultTrackingURL
	}
	return baseURL + "?n_seguimiento=" + url.QueryEscape(trackingNumber)
}

// Fetch visits the tracking page for trackingNumber and classifies its status.
func (p *TrackingPage) Fetch(ctx context.Context, trackingNumber string) (PageStatus, error) {
	if err := ctx.Err(); err != nil {
		return PageStatus{}, err
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return PageStatus{}, fmt.Errorf("tracking number cannot be empty")
	}

	target := p.URL(trackingNumber)
	parsed, err := url.Parse(target)
	if err != nil {
		return PageStatus{}, fmt.Errorf("parse tracking url: %w", err)
	}

	c := colly.NewCollector(
		colly.UserAgent(p.userAgent),
		colly.AllowedDomains(parsed.Hostname()),
	)
	c.SetRequestTimeout(15 * time.Second)

	result := PageStatus{TrackingNumber: trackingNumber, Status: StatusUnknown}
	var visitErr error

	c.OnHTML("html", func(h *colly.HTMLElement) {
		if ctx.Err() != nil {
			return
		}
		text := StatusText(h.DOM)
		result.Text = text
		result.Status = ClassifyStatus(text)
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		p.logger.Warn().
			Str("url", r.Request.URL.String()).
			Int("status", r.StatusCode).
			Err(err).
			Msg("tracking page request failed")
	})

	if err := c.Visit(target); err != nil {
		return PageStatus{}, fmt.Errorf("visit tracking page: %w", err)
	}
	c.Wait()

	if visitErr != nil {
		return PageStatus{}, fmt.Errorf("fetch tracking page: %w", visitErr)
	}
	result.CheckedAt = time.Now()
	return result, nil
}

// Delivered reports whether the tracking page shows the shipment delivered.
func (p *TrackingPage) Delivered(ctx context.Context, trackingNumber string) (bool, error) {
	status, err := p.Fetch(ctx, trackingNumber)
	if err != nil {
		return false, err
	}
	return status.Status == StatusDelivered, nil
}

// StatusText extracts the status line from a tracking page document.
func StatusText(doc *goquery.Selection) string {
	for _, selector := range statusSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if attr, ok := sel.Attr("data-tracking-status"); ok && strings.TrimSpace(attr) != "" {
			return strings.TrimSpace(attr)
		}
		if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
			return text
		}
	}
	return ""
}

// ClassifyStatus maps Spanish status text to a tracking state.
func ClassifyStatus(text string) string {
	lower := strings.ToLower(text)
	switch {
	case lower == "":
		return StatusUnknown
	case strings.Contains(lower, "no entregado"), strings.Contains(lower, "devuelto"):
		return StatusException
	case strings.Contains(lower, "entregado"), strings.Contains(lower, "delivered"):
		return StatusDelivered
	case strings.Contains(lower, "reparto"),
		strings.Contains(lower, "tránsito"),
		strings.Contains(lower, "transito"),
		strings.Contains(lower, "en camino"),
		strings.Contains(lower, "recibido"):
		return StatusInTransit
	default:
		return StatusUnknown
	}
}

package orders

import (
	"context"

	"github.com/conectados420/storefront/internal/email"
)

// DeliveryChecker asks the carrier whether a shipment has arrived.
type DeliveryChecker interface {
	Delivered(ctx context.Context, trackingNumber string) (bool, error)
}

type SyncResult struct {
	Checked   int `json:"checked"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// SyncDeliveries checks every shipped order with a tracking number and marks
// the delivered ones, sending the delivered email. Lookup failures are
// counted and skipped so one bad page does not stop the sweep.
func (s *Service) SyncDeliveries(ctx context.Context, checker DeliveryChecker) (SyncResult, error) {
	shipped, err := s.store.Orders().ListShippedWithTracking(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	var result SyncResult
	for _, o := range shipped {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++
		delivered, err := checker.Delivered(ctx, o.TrackingNumber)
		if err != nil {
			result.Failed++
			s.logger.Warn().Err(err).Str("order_id", o.ID).Str("tracking", o.TrackingNumber).Msg("tracking lookup failed")
			continue
		}
		if !delivered {
			continue
		}
		updated, err := s.store.Orders().UpdateStatus(ctx, o.ID, StatusDelivered)
		if err != nil {
			result.Failed++
			s.logger.Error().Err(err).Str("order_id", o.ID).Msg("mark delivered failed")
			continue
		}
		result.Delivered++
		s.notify(ctx, *updated, email.TemplateOrderDelivered)
	}
	return result, nil
}

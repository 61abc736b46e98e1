package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/conectados420/storefront/internal/carrier/bluexpress"
	"github.com/conectados420/storefront/internal/domain/cart"
	"github.com/rs/zerolog"
)

// Strategy names.
const (
	StrategyStatic      = "static"
	StrategyBlueExpress = "bluexpress"
	StrategyChilexpress = "chilexpress"
)

const (
	FallbackCost = 4000
	FallbackDays = 3

	messageZoneMissing = "Precio estimado - zona no configurada"
	messageEstimated   = "Precio estimado"
	messageFree        = "¡Envío gratis!"
	carrierBlueExpress = "Blue Express"
)

var ErrIncompleteAddress = errors.New("Dirección incompleta: se requiere comuna y región")

type Quote struct {
	Cost         int64  `json:"cost"`
	Days         int    `json:"days"`
	Option       string `json:"option"`
	FreeShipping bool   `json:"free_shipping"`
	Message      string `json:"message,omitempty"`
	Carrier      string `json:"carrier,omitempty"`
	Threshold    *int64 `json:"threshold,omitempty"`
	// Fallback is set when the quote is the built-in estimate.
	Fallback bool `json:"fallback,omitempty"`
}

type QuoteOptions struct {
	Express bool
	Items   []cart.Line
}

func (o QuoteOptions) option() string {
	if o.Express {
		return OptionExpress
	}
	return OptionStandard
}

type Strategy interface {
	Name() string
	Calculate(ctx context.Context, addr Address, cartTotal int64, opts QuoteOptions) (Quote, error)
}

func fallbackQuote(option, message string) Quote {
	return Quote{
		Cost:     FallbackCost,
		Days:     FallbackDays,
		Option:   option,
		Message:  message,
		Fallback: true,
	}
}

func validateAddress(addr Address) error {
	if addr.Comuna == "" || addr.Region == "" {
		return ErrIncompleteAddress
	}
	return nil
}

// StaticStrategy prices shipments from the shipping_zones table.
type StaticStrategy struct {
	zones  ZoneRepository
	logger zerolog.Logger
}

func NewStaticStrategy(zones ZoneRepository, logger zerolog.Logger) *StaticStrategy {
	return &StaticStrategy{zones: zones, logger: logger}
}

func (s *StaticStrategy) Name() string { return StrategyStatic }

// Calculate never fails on lookup problems: a missing zone or a database
// error both yield the fallback estimate.
func (s *StaticStrategy) Calculate(ctx context.Context, addr Address, cartTotal int64, opts QuoteOptions) (Quote, error) {
	if err := validateAddress(addr); err != nil {
		return Quote{}, err
	}
	option := opts.option()

	zone, err := s.lookup(ctx, addr)
	if err != nil {
		s.logger.Error().Err(err).Str("comuna", addr.Comuna).Str("region", addr.Region).Msg("shipping zone lookup failed")
		return fallbackQuote(option, messageEstimated), nil
	}
	if zone == nil {
		s.logger.Warn().Str("comuna", addr.Comuna).Str("region", addr.Region).Msg("shipping zone not configured, using default price")
		return fallbackQuote(option, messageZoneMissing), nil
	}

	days := zone.EstimatedDays
	cost := zone.BasePrice
	if opts.Express {
		days = zone.ExpressDays
		cost = zone.ExpressPrice
	}

	if zone.FreeShippingThreshold != nil && cartTotal >= *zone.FreeShippingThreshold {
		threshold := *zone.FreeShippingThreshold
		return Quote{
			Cost:         0,
			Days:         days,
			Option:       option,
			FreeShipping: true,
			Message:      messageFree,
			Threshold:    &threshold,
		}, nil
	}

	return Quote{
		Cost:      cost,
		Days:      days,
		Option:    option,
		Threshold: zone.FreeShippingThreshold,
	}, nil
}

func (s *StaticStrategy) lookup(ctx context.Context, addr Address) (*Zone, error) {
	zone, err := s.zones.FindActiveZone(ctx, addr.Comuna, addr.Region)
	if err == nil {
		return zone, nil
	}
	if !errors.Is(err, ErrZoneNotFound) {
		return nil, err
	}

	zone, err = s.zones.FindActiveZoneByComuna(ctx, addr.Comuna)
	if err == nil {
		return zone, nil
	}
	if errors.Is(err, ErrZoneNotFound) {
		return nil, nil
	}
	return nil, err
}

// RateQuoter is the part of the carrier client used for live quotes.
type RateQuoter interface {
	CalculateRate(ctx context.Context, req bluexpress.RateRequest) (*bluexpress.Rate, error)
}

// BlueExpressStrategy asks the carrier for a live rate and falls back to
// static pricing whenever the carrier cannot answer.
type BlueExpressStrategy struct {
	carrier       RateQuoter
	static        *StaticStrategy
	freeThreshold int64
	originComuna  string
	logger        zerolog.Logger
}

func NewBlueExpressStrategy(carrier RateQuoter, static *StaticStrategy, freeThreshold int64, originComuna string, logger zerolog.Logger) *BlueExpressStrategy {
	return &BlueExpressStrategy{
		carrier:       carrier,
		static:        static,
		freeThreshold: freeThreshold,
		originComuna:  originComuna,
		logger:        logger,
	}
}

func (s *BlueExpressStrategy) Name() string { return StrategyBlueExpress }

func (s *BlueExpressStrategy) Calculate(ctx context.Context, addr Address, cartTotal int64, opts QuoteOptions) (Quote, error) {
	if err := validateAddress(addr); err != nil {
		return Quote{}, err
	}
	if s.carrier == nil {
		return s.static.Calculate(ctx, addr, cartTotal, opts)
	}

	service := bluexpress.ServiceStandard
	if opts.Express {
		service = bluexpress.ServiceExpress
	}
	rate, err := s.carrier.CalculateRate(ctx, bluexpress.RateRequest{
		OriginComuna:  s.originComuna,
		Comuna:        addr.Comuna,
		Region:        addr.Region,
		WeightKg:      cart.Cart{Lines: opts.Items}.WeightKg(),
		DeclaredValue: cartTotal,
		Service:       service,
	})
	if err != nil {
		if errors.Is(err, bluexpress.ErrNotConfigured) {
			s.logger.Debug().Msg("carrier not configured, using static pricing")
		} else {
			s.logger.Warn().Err(err).Msg("carrier rate failed, falling back to static pricing")
		}
		return s.static.Calculate(ctx, addr, cartTotal, opts)
	}

	quote := Quote{
		Cost:    rate.Cost,
		Days:    rate.Days,
		Option:  opts.option(),
		Carrier: carrierBlueExpress,
	}
	if s.freeThreshold > 0 && cartTotal >= s.freeThreshold {
		threshold := s.freeThreshold
		quote.Cost = 0
		quote.FreeShipping = true
		quote.Message = messageFree
		quote.Threshold = &threshold
	}
	return quote, nil
}

// ChilexpressStrategy is reserved for a future carrier integration and
// prices like the static strategy.
type ChilexpressStrategy struct {
	static *StaticStrategy
}

func NewChilexpressStrategy(static *StaticStrategy) *ChilexpressStrategy {
	return &ChilexpressStrategy{static: static}
}

func (s *ChilexpressStrategy) Name() string { return StrategyChilexpress }

func (s *ChilexpressStrategy) Calculate(ctx context.Context, addr Address, cartTotal int64, opts QuoteOptions) (Quote, error) {
	quote, err := s.static.Calculate(ctx, addr, cartTotal, opts)
	if err != nil {
		return Quote{}, fmt.Errorf("chilexpress: %w", err)
	}
	return quote, nil
}

package shipping

import (
	"context"
	"fmt"
	"sync"

	"github.com/conectados420/storefront/internal/money"
	"github.com/rs/zerolog"
)

// Shipping options offered at checkout.
const (
	OptionStandard = "standard"
	OptionExpress  = "express"
	OptionPickup   = "pickup"
)

// SettingBlueExpressEnabled is the store_settings key that selects the
// carrier strategy.
const SettingBlueExpressEnabled = "bluexpress_enabled"

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Quote
}

// Info is a quote formatted for display.
type Info struct {
	Display string `json:"display"`
	Amount  int64  `json:"amount"`
	Badge   string `json:"badge"`
	Message string `json:"message"`
}

// Calculator selects a pricing strategy at runtime and never lets a strategy
// failure reach the shopper.
type Calculator struct {
	mu         sync.RWMutex
	current    Strategy
	strategies map[string]Strategy
	settings   SettingsReader
	logger     zerolog.Logger
	observe    func(strategy string, fallback bool)
}

func NewCalculator(settings SettingsReader, logger zerolog.Logger, strategies ...Strategy) *Calculator {
	c := &Calculator{
		strategies: make(map[string]Strategy, len(strategies)),
		settings:   settings,
		logger:     logger.With().Str("component", "shipping").Logger(),
		observe:    func(string, bool) {},
	}
	for _, s := range strategies {
		c.strategies[s.Name()] = s
		if c.current == nil || s.Name() == StrategyStatic {
			c.current = s
		}
	}
	return c
}

// WithObserver registers a callback invoked once per quote.
func (c *Calculator) WithObserver(fn func(strategy string, fallback bool)) *Calculator {
	if fn != nil {
		c.observe = fn
	}
	return c
}

// SetStrategy switches the active strategy. Unknown names keep the current one.
func (c *Calculator) SetStrategy(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.strategies[name]
	if !ok {
		c.logger.Warn().Str("strategy", name).Msg("unknown shipping strategy, keeping current")
		return
	}
	if c.current == nil || c.current.Name() != name {
		c.logger.Info().Str("strategy", name).Msg("shipping strategy changed")
	}
	c.current = s
}

func (c *Calculator) StrategyName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Name()
}

// LoadStrategyFromSettings selects bluexpress when the store enables it,
// otherwise static. Read failures keep the current strategy.
func (c *Calculator) LoadStrategyFromSettings(ctx context.Context) {
	if c.settings == nil {
		return
	}
	enabled, err := c.settings.Bool(ctx, SettingBlueExpressEnabled)
	if err != nil {
		c.logger.Warn().Err(err).Msg("could not load shipping strategy from settings")
		return
	}
	if enabled {
		c.SetStrategy(StrategyBlueExpress)
		return
	}
	c.SetStrategy(StrategyStatic)
}

// Calculate quotes with the active strategy. An incomplete address is the
// only error returned; any other strategy failure becomes the fallback quote.
func (c *Calculator) Calculate(ctx context.Context, addr Address, cartTotal int64, opts QuoteOptions) (Quote, error) {
	if err := validateAddress(addr); err != nil {
		return Quote{}, err
	}

	c.mu.RLock()
	strategy := c.current
	c.mu.RUnlock()
	if strategy == nil {
		quote := fallbackQuote(opts.option(), messageEstimated)
		c.observe("", true)
		return quote, nil
	}

	quote, err := strategy.Calculate(ctx, addr, cartTotal, opts)
	if err != nil {
		c.logger.Error().Err(err).Str("strategy", strategy.Name()).Msg("shipping calculation failed")
		quote = fallbackQuote(opts.option(), messageEstimated)
	}
	c.observe(strategy.Name(), quote.Fallback)
	return quote, nil
}

// AvailableOptions quotes standard and express delivery and adds store pickup.
func (c *Calculator) AvailableOptions(ctx context.Context, addr Address, cartTotal int64, opts QuoteOptions) ([]Option, error) {
	standardOpts := opts
	standardOpts.Express = false
	standard, err := c.Calculate(ctx, addr, cartTotal, standardOpts)
	if err != nil {
		return nil, err
	}

	expressOpts := opts
	expressOpts.Express = true
	express, err := c.Calculate(ctx, addr, cartTotal, expressOpts)
	if err != nil {
		return nil, err
	}

	return []Option{
		{ID: OptionStandard, Label: "Envío Estándar", Quote: standard},
		{ID: OptionExpress, Label: "Envío Express", Quote: express},
		{ID: OptionPickup, Label: "Retiro en Tienda", Quote: PickupQuote()},
	}, nil
}

func PickupQuote() Quote {
	return Quote{
		Cost:         0,
		Days:         0,
		Option:       OptionPickup,
		FreeShipping: true,
		Message:      "Retiro en tienda - Sin costo",
	}
}

// FormatInfo renders a quote the way the storefront shows it.
func FormatInfo(q Quote) Info {
	if q.FreeShipping {
		message := q.Message
		if message == "" && q.Threshold != nil {
			message = "Envío gratis en compras sobre " + money.CLP(*q.Threshold)
		}
		return Info{Display: "¡GRATIS!", Amount: 0, Badge: "success", Message: message}
	}

	unit := "días"
	if q.Days == 1 {
		unit = "día"
	}
	return Info{
		Display: money.CLP(q.Cost),
		Amount:  q.Cost,
		Badge:   "default",
		Message: fmt.Sprintf("Entrega estimada: %d %s hábiles", q.Days, unit),
	}
}

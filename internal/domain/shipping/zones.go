package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/conectados420/storefront/internal/domain/regions"
	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ZoneService manages shipping zones from the admin panel.
type ZoneService struct {
	repo      ZoneRepository
	validator *validator.Validate
}

func NewZoneService(repo ZoneRepository) *ZoneService {
	return &ZoneService{repo: repo, validator: validator.New()}
}

func (s *ZoneService) List(ctx context.Context) ([]Zone, error) {
	return s.repo.ListZones(ctx)
}

func (s *ZoneService) Create(ctx context.Context, params ZoneParams) (*Zone, error) {
	if err := s.validate(&params); err != nil {
		return nil, err
	}
	return s.repo.CreateZone(ctx, params)
}

func (s *ZoneService) Update(ctx context.Context, id string, params ZoneParams) (*Zone, error) {
	if err := s.validate(&params); err != nil {
		return nil, err
	}
	return s.repo.UpdateZone(ctx, id, params)
}

func (s *ZoneService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteZone(ctx, id)
}

func (s *ZoneService) validate(params *ZoneParams) error {
	params.Comuna = strings.TrimSpace(params.Comuna)
	params.Region = strings.TrimSpace(params.Region)

	if err := s.validator.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return ValidationError{Field: verrs[0].Field(), Message: verrs[0].Tag()}
		}
		return ValidationError{Field: "body", Message: err.Error()}
	}
	if !regions.Valid(params.Region, params.Comuna) {
		return ValidationError{Field: "comuna", Message: fmt.Sprintf("%q is not a comuna of %q", params.Comuna, params.Region)}
	}
	if params.IsActive == nil {
		active := true
		params.IsActive = &active
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/internal/event"
	"github.com/utafrali/ghstore/internal/repository"
	apperrors "github.com/utafrali/ghstore/pkg/errors"
	"github.com/utafrali/ghstore/pkg/logger"
	"github.com/utafrali/ghstore/pkg/phone"
)

// MaxAddressesPerUser bounds the address book of one user.
const MaxAddressesPerUser = 20

// CreateAddressInput holds the parameters for creating an address.
type CreateAddressInput struct {
	Label          string `json:"label" validate:"max=64"`
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	AddressLine1   string `json:"address_line1" validate:"required,max=255"`
	AddressLine2   string `json:"address_line2" validate:"max=255"`
	City           string `json:"city" validate:"required,max=100"`
	Region         string `json:"region" validate:"max=100"`
	DigitalAddress string `json:"digital_address" validate:"max=16"`
	CountryCode    string `json:"country_code" validate:"omitempty,len=2,alpha"`
	Phone          string `json:"phone" validate:"max=32"`
	IsDefault      bool   `json:"is_default"`
}

// UpdateAddressInput holds the parameters for updating an address. Nil
// fields are left unchanged.
type UpdateAddressInput struct {
	Label          *string `json:"label" validate:"omitempty,max=64"`
	FirstName      *string `json:"first_name" validate:"omitempty,max=100"`
	LastName       *string `json:"last_name" validate:"omitempty,max=100"`
	AddressLine1   *string `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2   *string `json:"address_line2" validate:"omitempty,max=255"`
	City           *string `json:"city" validate:"omitempty,max=100"`
	Region         *string `json:"region" validate:"omitempty,max=100"`
	DigitalAddress *string `json:"digital_address" validate:"omitempty,max=16"`
	CountryCode    *string `json:"country_code" validate:"omitempty,len=2,alpha"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
}

// AddressService manages a user's address book. Ghana phone numbers are
// stored in E.164 form.
type AddressService struct {
	repo      repository.AddressRepository
	publisher event.Publisher
	phones    *phone.Normalizer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAddressService creates a new address service.
func NewAddressService(
	repo repository.AddressRepository,
	publisher event.Publisher,
	phones *phone.Normalizer,
	logger *slog.Logger,
) *AddressService {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	if phones == nil {
		phones = phone.NewNormalizer(phone.DefaultOptions())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressService{
		repo:      repo,
		publisher: publisher,
		phones:    phones,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateAddress creates a new address for the user. A user's first address
// becomes their default.
func (s *AddressService) CreateAddress(ctx context.Context, userID string, input CreateAddressInput) (*domain.Address, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, apperrors.InvalidInput("first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		return nil, apperrors.InvalidInput("last name is required")
	}
	if strings.TrimSpace(input.AddressLine1) == "" {
		return nil, apperrors.InvalidInput("address line 1 is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return nil, apperrors.InvalidInput("city is required")
	}

	countryCode, err := normalizeCountry(input.CountryCode)
	if err != nil {
		return nil, err
	}
	storedPhone, err := s.normalizePhone(countryCode, input.Phone)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if len(existing) >= MaxAddressesPerUser {
		return nil, apperrors.InvalidInput(fmt.Sprintf("a user may not have more than %d addresses", MaxAddressesPerUser))
	}

	now := s.now()
	address := &domain.Address{
		ID:             uuid.New().String(),
		UserID:         userID,
		Label:          strings.TrimSpace(input.Label),
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		AddressLine1:   strings.TrimSpace(input.AddressLine1),
		AddressLine2:   strings.TrimSpace(input.AddressLine2),
		City:           strings.TrimSpace(input.City),
		Region:         strings.TrimSpace(input.Region),
		DigitalAddress: strings.ToUpper(strings.TrimSpace(input.DigitalAddress)),
		CountryCode:    countryCode,
		Phone:          storedPhone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	if input.IsDefault || len(existing) == 0 {
		if err := s.repo.SetDefault(ctx, userID, address.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to set default address",
				slog.String("address_id", address.ID),
				slog.String("error", err.Error()),
			)
		} else {
			address.IsDefault = true
		}
	}

	s.publishSaved(ctx, address)

	s.logger.InfoContext(ctx, "address created",
		slog.String("user_id", userID),
		slog.String("address_id", address.ID),
		logger.Phone("phone", address.Phone),
	)

	return address, nil
}

// ListAddresses returns all addresses for the given user, default first.
func (s *AddressService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	addresses, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress returns one of the user's addresses. Addresses owned by someone
// else are reported as not found.
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	address, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	if address.UserID != userID {
		return nil, apperrors.NotFound("address", addressID)
	}
	return address, nil
}

// UpdateAddress updates an existing address.
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID string, input UpdateAddressInput) (*domain.Address, error) {
	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if input.Label != nil {
		address.Label = strings.TrimSpace(*input.Label)
	}
	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, apperrors.InvalidInput("first name must not be empty")
		}
		address.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, apperrors.InvalidInput("last name must not be empty")
		}
		address.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.AddressLine1 != nil {
		if strings.TrimSpace(*input.AddressLine1) == "" {
			return nil, apperrors.InvalidInput("address line 1 must not be empty")
		}
		address.AddressLine1 = strings.TrimSpace(*input.AddressLine1)
	}
	if input.AddressLine2 != nil {
		address.AddressLine2 = strings.TrimSpace(*input.AddressLine2)
	}
	if input.City != nil {
		if strings.TrimSpace(*input.City) == "" {
			return nil, apperrors.InvalidInput("city must not be empty")
		}
		address.City = strings.TrimSpace(*input.City)
	}
	if input.Region != nil {
		address.Region = strings.TrimSpace(*input.Region)
	}
	if input.DigitalAddress != nil {
		address.DigitalAddress = strings.ToUpper(strings.TrimSpace(*input.DigitalAddress))
	}
	if input.CountryCode != nil {
		cc, err := normalizeCountry(*input.CountryCode)
		if err != nil {
			return nil, err
		}
		address.CountryCode = cc
	}
	if input.Phone != nil {
		address.Phone = *input.Phone
	}

	// The stored number is re-checked against the final country so a move
	// into Ghana cannot keep a number that is invalid there.
	storedPhone, err := s.normalizePhone(address.CountryCode, address.Phone)
	if err != nil {
		return nil, err
	}
	address.Phone = storedPhone
	address.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, address); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}

	s.publishSaved(ctx, address)

	s.logger.InfoContext(ctx, "address updated",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)

	return address, nil
}

// DeleteAddress removes an address for the user.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	s.logger.InfoContext(ctx, "address deleted",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)

	return nil
}

// SetDefaultAddress marks the specified address as the user's default.
func (s *AddressService) SetDefaultAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetDefault(ctx, userID, addressID); err != nil {
		return nil, fmt.Errorf("set default address: %w", err)
	}
	address.IsDefault = true

	s.publishSaved(ctx, address)

	s.logger.InfoContext(ctx, "default address updated",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)

	return address, nil
}

// normalizePhone validates raw for countryCode and returns the form to
// store: E.164 for Ghana, the trimmed input elsewhere.
func (s *AddressService) normalizePhone(countryCode, raw string) (string, error) {
	isGhana := countryCode == phone.CountryGhana
	msg := s.phones.ValidationError(raw, phone.ValidateOptions{
		Required: isGhana,
		Country:  countryCode,
	})
	if msg != "" {
		return "", apperrors.InvalidInput(msg)
	}
	if !isGhana {
		return strings.TrimSpace(raw), nil
	}
	return s.phones.DeriveCanonical(raw).Canonical, nil
}

func (s *AddressService) publishSaved(ctx context.Context, address *domain.Address) {
	if err := s.publisher.PublishAddressSaved(ctx, address); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish address.saved event",
			slog.String("address_id", address.ID),
			slog.String("error", err.Error()),
		)
	}
}

// normalizeCountry upper-cases an ISO 3166-1 alpha-2 code, defaulting to
// Ghana.
func normalizeCountry(code string) (string, error) {
	cc := strings.ToUpper(strings.TrimSpace(code))
	if cc == "" {
		return phone.CountryGhana, nil
	}
	if len(cc) != 2 {
		return "", apperrors.InvalidInput("country code must be a 2-letter ISO code")
	}
	return cc, nil
}

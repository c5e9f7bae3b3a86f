package services

import (
	"context"
	"fmt"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/repository"
)

var allowedListingStatuses = map[models.ListingStatus]bool{
	models.AvailableListing:     true,
	models.UnderContractListing: true,
	models.DepletedListing:      true,
}

// ListingService - операции со стогами.
type ListingService struct {
	DB  db.DB
	Now Clock
}

// NewListingService создаёт новый экземпляр ListingService.
func NewListingService(database db.DB) *ListingService {
	return &ListingService{DB: database, Now: SystemClock}
}

// CreateListing выставляет новый стог от имени организации пользователя.
func (s *ListingService) CreateListing(ctx context.Context, req models.ListingRequest, actor models.Actor) (*models.Listing, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if !req.PricePerTon.IsPositive() {
		return nil, models.ValidationError("pricePerTon must be positive")
	}
	if req.EstimatedTons.Valid && req.EstimatedTons.Decimal.IsNegative() {
		return nil, models.ValidationError("estimatedTons must not be negative")
	}

	now := s.Now()
	listing := &models.Listing{
		ID:               newID(),
		OrganizationID:   actor.OrganizationID,
		PricePerTon:      req.PricePerTon,
		EstimatedTons:    req.EstimatedTons,
		Status:           models.AvailableListing,
		FirmPrice:        req.FirmPrice,
		IsDeliveredPrice: req.IsDeliveredPrice,
		Description:      req.Description,
		CreatedByID:      actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		stackID, err := repos.Sequences.NextStackID(ctx)
		if err != nil {
			return err
		}
		listing.StackID = stackID
		return repos.Listings.CreateListing(ctx, listing)
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// GetListing получает стог по ID.
func (s *ListingService) GetListing(ctx context.Context, listingID string, actor models.Actor) (*models.Listing, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	listing, err := repository.NewListingRepository(s.DB).GetListing(ctx, listingID, false)
	if err != nil {
		return nil, translateError(notFound(err, "listing not found"))
	}
	return listing, nil
}

// FetchListings получает список стогов с фильтром по статусам и организации.
func (s *ListingService) FetchListings(ctx context.Context, statuses []string, organizationID string, limit, offset int, actor models.Actor) ([]models.Listing, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	filter := models.ListingFilter{OrganizationID: organizationID, Limit: limit, Offset: offset}
	for _, status := range statuses {
		listingStatus := models.ListingStatus(status)
		if !allowedListingStatuses[listingStatus] {
			return nil, models.ValidationError(fmt.Sprintf("unsupported listing status: %s", status))
		}
		filter.Statuses = append(filter.Statuses, listingStatus)
	}
	listings, err := repository.NewListingRepository(s.DB).ListListings(ctx, filter)
	if err != nil {
		return nil, translateError(err)
	}
	return listings, nil
}

package services

import (
	"context"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/repository"
	"github.com/senyabanana/hay-exchange/internal/utils"

	"github.com/shopspring/decimal"
)

// NegotiationService - ветки предложений и встречных предложений по стогу.
type NegotiationService struct {
	DB  db.DB
	Now Clock
}

// NewNegotiationService создаёт новый экземпляр NegotiationService.
func NewNegotiationService(database db.DB) *NegotiationService {
	return &NegotiationService{DB: database, Now: SystemClock}
}

func validateOffer(req models.OfferRequest) error {
	if !req.OfferedPricePerTon.IsPositive() {
		return models.ValidationError("offeredPricePerTon must be positive")
	}
	if req.OfferedTons.Valid && !req.OfferedTons.Decimal.IsPositive() {
		return models.ValidationError("offeredTons must be positive")
	}
	return nil
}

// CreateOffer открывает новую ветку переговоров по стогу от имени покупателя.
func (s *NegotiationService) CreateOffer(ctx context.Context, listingID string, req models.OfferRequest, actor models.Actor) (*models.Negotiation, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if err := validateOffer(req); err != nil {
		return nil, err
	}

	var offer *models.Negotiation
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		listing, err := repos.Listings.GetListing(ctx, listingID, true)
		if err != nil {
			return notFound(err, "listing not found")
		}
		if listing.Status != models.AvailableListing {
			return models.BadRequest("listing is not available")
		}
		if listing.OrganizationID == actor.OrganizationID {
			return models.BadRequest("you can not make an offer on your own listing")
		}

		now := s.Now()
		offer = &models.Negotiation{
			ID:                 newID(),
			ListingID:          listing.ID,
			BuyerOrgID:         actor.OrganizationID,
			GrowerOrgID:        listing.OrganizationID,
			OfferedPricePerTon: req.OfferedPricePerTon,
			OfferedTons:        req.OfferedTons,
			Message:            req.Message,
			OfferedByOrgID:     actor.OrganizationID,
			OfferedByUserID:    actor.UserID,
			Status:             models.PendingNegotiation,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		return repos.Negotiations.CreateNegotiation(ctx, offer)
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// lockActionable читает предложение под блокировкой и проверяет, что actor может на него ответить.
func lockActionable(ctx context.Context, repos *repository.Repositories, negotiationID string, actor models.Actor) (*models.Negotiation, error) {
	target, err := repos.Negotiations.GetNegotiation(ctx, negotiationID, true)
	if err != nil {
		return nil, notFound(err, "negotiation not found")
	}
	if !target.IsParticipant(actor.OrganizationID) {
		return nil, models.Forbidden("your organization is not a party to this negotiation")
	}
	if target.OfferedByOrgID == actor.OrganizationID {
		return nil, models.Forbidden("you can not respond to your own offer")
	}
	if target.Status != models.PendingNegotiation {
		return nil, models.BadRequest("negotiation is not pending")
	}
	return target, nil
}

// transition переводит предложение в новый статус с проверкой допустимости перехода.
func transition(ctx context.Context, repos *repository.Repositories, n *models.Negotiation, to models.NegotiationStatus, now time.Time) error {
	if !utils.ContainsStatus(models.NegotiationTransitions[n.Status], to) {
		return models.BadRequest("invalid status transition from " + string(n.Status) + " to " + string(to))
	}
	if err := repos.Negotiations.TransitionStatus(ctx, n.ID, n.Status, to, now); err != nil {
		return err
	}
	n.Status = to
	n.UpdatedAt = now
	return nil
}

// Counter отвечает встречным предложением. Прежнее предложение получает статус countered,
// новое становится единственным ожидающим в ветке.
func (s *NegotiationService) Counter(ctx context.Context, negotiationID string, req models.OfferRequest, actor models.Actor) (*models.Negotiation, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if err := validateOffer(req); err != nil {
		return nil, err
	}

	var counter *models.Negotiation
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		target, err := lockActionable(ctx, repos, negotiationID, actor)
		if err != nil {
			return err
		}
		listing, err := repos.Listings.GetListing(ctx, target.ListingID, false)
		if err != nil {
			return notFound(err, "listing not found")
		}
		if listing.FirmPrice {
			return models.BadRequest("listing has a firm price, counter offers are not allowed")
		}

		now := s.Now()
		if err := transition(ctx, repos, target, models.CounteredNegotiation, now); err != nil {
			return err
		}

		threadID := target.ThreadID()
		counter = &models.Negotiation{
			ID:                 newID(),
			ListingID:          target.ListingID,
			BuyerOrgID:         target.BuyerOrgID,
			GrowerOrgID:        target.GrowerOrgID,
			OfferedPricePerTon: req.OfferedPricePerTon,
			OfferedTons:        req.OfferedTons,
			Message:            req.Message,
			OfferedByOrgID:     actor.OrganizationID,
			OfferedByUserID:    actor.UserID,
			Status:             models.PendingNegotiation,
			ParentID:           &threadID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		return repos.Negotiations.CreateNegotiation(ctx, counter)
	})
	if err != nil {
		return nil, err
	}
	return counter, nil
}

// Accept принимает предложение и в той же транзакции создает черновик заказа,
// связывает его со стогом и переводит стог в under_contract.
func (s *NegotiationService) Accept(ctx context.Context, negotiationID string, actor models.Actor) (*models.NegotiationAcceptance, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}

	var result models.NegotiationAcceptance
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		target, err := lockActionable(ctx, repos, negotiationID, actor)
		if err != nil {
			return err
		}
		listing, err := repos.Listings.GetListing(ctx, target.ListingID, true)
		if err != nil {
			return notFound(err, "listing not found")
		}
		if listing.Status == models.DepletedListing {
			return models.BadRequest("listing is depleted")
		}

		now := s.Now()
		if err := transition(ctx, repos, target, models.AcceptedNegotiation, now); err != nil {
			return err
		}

		contractedTons := decimal.Zero
		switch {
		case target.OfferedTons.Valid:
			contractedTons = target.OfferedTons.Decimal
		case listing.EstimatedTons.Valid:
			contractedTons = listing.EstimatedTons.Decimal
		}

		po, err := createDraftPurchaseOrder(ctx, repos, draftOrder{
			BuyerOrgID:     target.BuyerOrgID,
			GrowerOrgID:    target.GrowerOrgID,
			ListingID:      listing.ID,
			ContractedTons: contractedTons,
			PricePerTon:    target.OfferedPricePerTon,
			CreatedByID:    actor.UserID,
		}, now)
		if err != nil {
			return err
		}

		if err := repos.Negotiations.SetPurchaseOrder(ctx, target.ID, po.ID, now); err != nil {
			return err
		}
		target.PurchaseOrderID = &po.ID

		if err := putUnderContract(ctx, repos, listing, now); err != nil {
			return err
		}

		result = models.NegotiationAcceptance{Negotiation: target, PurchaseOrder: po.Redacted()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reject отклоняет предложение. Ветка на этом завершается.
func (s *NegotiationService) Reject(ctx context.Context, negotiationID string, actor models.Actor) (*models.Negotiation, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}

	var target *models.Negotiation
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		var err error
		target, err = lockActionable(ctx, repos, negotiationID, actor)
		if err != nil {
			return err
		}
		return transition(ctx, repos, target, models.RejectedNegotiation, s.Now())
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// GetThread возвращает всю ветку, к которой относится предложение, в хронологическом порядке.
func (s *NegotiationService) GetThread(ctx context.Context, negotiationID string, actor models.Actor) ([]models.Negotiation, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	repo := repository.NewNegotiationRepository(s.DB)
	n, err := repo.GetNegotiation(ctx, negotiationID, false)
	if err != nil {
		return nil, translateError(notFound(err, "negotiation not found"))
	}
	if !n.IsParticipant(actor.OrganizationID) {
		return nil, models.Forbidden("your organization is not a party to this negotiation")
	}
	thread, err := repo.ListThread(ctx, n.ThreadID())
	if err != nil {
		return nil, translateError(err)
	}
	return thread, nil
}

// FetchNegotiations возвращает корни веток, в которых участвует организация пользователя.
func (s *NegotiationService) FetchNegotiations(ctx context.Context, limit, offset int, actor models.Actor) ([]models.Negotiation, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	roots, err := repository.NewNegotiationRepository(s.DB).ListThreadRoots(ctx, actor.OrganizationID, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	return roots, nil
}

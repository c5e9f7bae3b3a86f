package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	maxMoisturePercent = decimal.NewFromInt(100)

	allowedPOStatuses = map[models.POStatus]bool{
		models.DraftPO:     true,
		models.ActivePO:    true,
		models.CompletedPO: true,
	}
)

// PurchaseOrderService - заказы на поставку: подписание, условия и закрытие.
type PurchaseOrderService struct {
	DB  db.DB
	Now Clock
}

// NewPurchaseOrderService создаёт новый экземпляр PurchaseOrderService.
func NewPurchaseOrderService(database db.DB) *PurchaseOrderService {
	return &PurchaseOrderService{DB: database, Now: SystemClock}
}

type draftOrder struct {
	BuyerOrgID      string
	GrowerOrgID     string
	ListingID       string
	ContractedTons  decimal.Decimal
	PricePerTon     decimal.Decimal
	CreatedByID     string
	SignedByBuyerID *string
}

// createDraftPurchaseOrder создает черновик заказа с очередным номером и привязывает к нему стог.
func createDraftPurchaseOrder(ctx context.Context, repos *repository.Repositories, d draftOrder, now time.Time) (*models.PurchaseOrder, error) {
	poNumber, err := repos.Sequences.NextPONumber(ctx)
	if err != nil {
		return nil, err
	}
	po := &models.PurchaseOrder{
		ID:              newID(),
		PONumber:        &poNumber,
		BuyerOrgID:      d.BuyerOrgID,
		GrowerOrgID:     d.GrowerOrgID,
		ContractedTons:  d.ContractedTons,
		PricePerTon:     d.PricePerTon,
		DeliveredTons:   decimal.Zero,
		Status:          models.DraftPO,
		SignedByBuyerID: d.SignedByBuyerID,
		CreatedByID:     d.CreatedByID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repos.PurchaseOrders.CreatePurchaseOrder(ctx, po); err != nil {
		return nil, err
	}

	stack := &models.POStack{
		ID:              newID(),
		PurchaseOrderID: po.ID,
		ListingID:       d.ListingID,
		AllocatedTons:   d.ContractedTons,
		CreatedAt:       now,
	}
	if err := repos.PurchaseOrders.CreateStack(ctx, stack); err != nil {
		return nil, err
	}
	return po, nil
}

// putUnderContract переводит доступный стог в under_contract. Стог, уже находящийся
// под контрактом, не меняется.
func putUnderContract(ctx context.Context, repos *repository.Repositories, listing *models.Listing, now time.Time) error {
	if listing.Status != models.AvailableListing {
		return nil
	}
	if err := repos.Listings.UpdateListingStatus(ctx, listing.ID, models.AvailableListing, models.UnderContractListing, now); err != nil {
		return err
	}
	listing.Status = models.UnderContractListing
	listing.UpdatedAt = now
	return nil
}

func validateSignRequest(req models.SignRequest) error {
	if strings.TrimSpace(req.TypedName) == "" {
		return models.ValidationError("typedName is required")
	}
	return nil
}

// AcceptListingAtPrice покупает стог по выставленной цене: создает принятое предложение,
// черновик заказа с подписью покупателя и запись о подписи в журнале.
func (s *PurchaseOrderService) AcceptListingAtPrice(ctx context.Context, listingID string, req models.SignRequest, actor models.Actor) (*models.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateSignRequest(req); err != nil {
		return nil, err
	}

	var po *models.PurchaseOrder
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		listing, err := repos.Listings.GetListing(ctx, listingID, true)
		if err != nil {
			return notFound(err, "listing not found")
		}
		if listing.Status != models.AvailableListing {
			return models.BadRequest("listing is not available")
		}
		if listing.OrganizationID == actor.OrganizationID {
			return models.BadRequest("you can not buy your own listing")
		}

		now := s.Now()
		contractedTons := decimal.Zero
		if listing.EstimatedTons.Valid {
			contractedTons = listing.EstimatedTons.Decimal
		}
		buyerID := actor.UserID
		po, err = createDraftPurchaseOrder(ctx, repos, draftOrder{
			BuyerOrgID:      actor.OrganizationID,
			GrowerOrgID:     listing.OrganizationID,
			ListingID:       listing.ID,
			ContractedTons:  contractedTons,
			PricePerTon:     listing.PricePerTon,
			CreatedByID:     actor.UserID,
			SignedByBuyerID: &buyerID,
		}, now)
		if err != nil {
			return err
		}

		negotiation := &models.Negotiation{
			ID:                 newID(),
			ListingID:          listing.ID,
			BuyerOrgID:         actor.OrganizationID,
			GrowerOrgID:        listing.OrganizationID,
			OfferedPricePerTon: listing.PricePerTon,
			OfferedTons:        listing.EstimatedTons,
			OfferedByOrgID:     actor.OrganizationID,
			OfferedByUserID:    actor.UserID,
			Status:             models.AcceptedNegotiation,
			PurchaseOrderID:    &po.ID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := repos.Negotiations.CreateNegotiation(ctx, negotiation); err != nil {
			return err
		}

		if err := putUnderContract(ctx, repos, listing, now); err != nil {
			return err
		}

		return repos.Audit.Append(ctx, auditEntry(actor, models.AuditAcceptListingAndSign, models.PurchaseOrderEntity, po.ID,
			nil,
			map[string]any{
				"side":           string(models.BuyerSide),
				"typedName":      req.TypedName,
				"signatureImage": req.SignatureImage,
				"negotiationId":  negotiation.ID,
				"listingId":      listing.ID,
			}, now))
	})
	if err != nil {
		return nil, err
	}
	return po.Redacted(), nil
}

// UpdateTerms меняет условия поставки черновика, пока ни одна сторона не подписала заказ.
func (s *PurchaseOrderService) UpdateTerms(ctx context.Context, poID string, upd models.TermsUpdate, actor models.Actor) (*models.PurchaseOrder, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, models.ValidationError("at least one term must be provided")
	}
	if upd.MaxMoisturePercent.Valid &&
		(upd.MaxMoisturePercent.Decimal.IsNegative() || upd.MaxMoisturePercent.Decimal.GreaterThan(maxMoisturePercent)) {
		return nil, models.ValidationError("maxMoisturePercent must be between 0 and 100")
	}
	if upd.DeliveryStartDate != nil && upd.DeliveryEndDate != nil && upd.DeliveryEndDate.Before(*upd.DeliveryStartDate) {
		return nil, models.ValidationError("deliveryEndDate must not be before deliveryStartDate")
	}

	var po *models.PurchaseOrder
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		var err error
		po, err = loadPurchaseOrderForParticipant(ctx, repos, poID, actor, true)
		if err != nil {
			return err
		}
		if po.Status != models.DraftPO {
			return models.BadRequest("terms can be changed only while the purchase order is DRAFT")
		}
		if po.HasAnySignature() {
			return models.BadRequest("terms can not be changed after the purchase order was signed")
		}

		oldValue := map[string]any{}
		newValue := map[string]any{}
		if upd.DeliveryStartDate != nil {
			oldValue["deliveryStartDate"] = po.DeliveryStartDate
			newValue["deliveryStartDate"] = upd.DeliveryStartDate
			po.DeliveryStartDate = upd.DeliveryStartDate
		}
		if upd.DeliveryEndDate != nil {
			oldValue["deliveryEndDate"] = po.DeliveryEndDate
			newValue["deliveryEndDate"] = upd.DeliveryEndDate
			po.DeliveryEndDate = upd.DeliveryEndDate
		}
		if upd.MaxMoisturePercent.Valid {
			oldValue["maxMoisturePercent"] = po.MaxMoisturePercent
			newValue["maxMoisturePercent"] = upd.MaxMoisturePercent
			po.MaxMoisturePercent = upd.MaxMoisturePercent
		}
		if upd.QualityNotes != nil {
			oldValue["qualityNotes"] = po.QualityNotes
			newValue["qualityNotes"] = upd.QualityNotes
			po.QualityNotes = upd.QualityNotes
		}
		if po.DeliveryStartDate != nil && po.DeliveryEndDate != nil && po.DeliveryEndDate.Before(*po.DeliveryStartDate) {
			return models.ValidationError("deliveryEndDate must not be before deliveryStartDate")
		}

		now := s.Now()
		po.UpdatedAt = now
		if err := repos.PurchaseOrders.UpdateTerms(ctx, po); err != nil {
			return err
		}
		return repos.Audit.Append(ctx, auditEntry(actor, models.AuditUpdatePOTerms, models.PurchaseOrderEntity, po.ID, oldValue, newValue, now))
	})
	if err != nil {
		return nil, err
	}
	return po.Redacted(), nil
}

// Sign ставит подпись стороны пользователя. Вторая подпись переводит заказ в ACTIVE.
func (s *PurchaseOrderService) Sign(ctx context.Context, poID string, req models.SignRequest, actor models.Actor) (*models.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateSignRequest(req); err != nil {
		return nil, err
	}

	var po *models.PurchaseOrder
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		var err error
		po, err = loadPurchaseOrderForParticipant(ctx, repos, poID, actor, true)
		if err != nil {
			return err
		}
		if po.Status != models.DraftPO {
			return models.BadRequest("only a DRAFT purchase order can be signed")
		}

		side, _ := po.SideOf(actor.OrganizationID)
		signerID := actor.UserID
		switch side {
		case models.BuyerSide:
			if po.SignedByBuyerID != nil {
				return models.BadRequest("buyer has already signed this purchase order")
			}
			po.SignedByBuyerID = &signerID
		case models.GrowerSide:
			if po.SignedByGrowerID != nil {
				return models.BadRequest("grower has already signed this purchase order")
			}
			po.SignedByGrowerID = &signerID
		}

		now := s.Now()
		bothSigned := po.FullySigned()
		if bothSigned {
			po.Status = models.ActivePO
			po.SignedAt = &now
		}
		po.UpdatedAt = now
		if err := repos.PurchaseOrders.UpdateSignatures(ctx, po); err != nil {
			return err
		}
		return repos.Audit.Append(ctx, auditEntry(actor, models.AuditSignPO, models.PurchaseOrderEntity, po.ID,
			nil,
			map[string]any{
				"side":           string(side),
				"typedName":      req.TypedName,
				"signatureImage": req.SignatureImage,
				"bothSigned":     bothSigned,
			}, now))
	})
	if err != nil {
		return nil, err
	}
	return po.Redacted(), nil
}

// Close отмечает активный заказ полностью поставленным. Фактические поставки не сверяются.
func (s *PurchaseOrderService) Close(ctx context.Context, poID string, actor models.Actor) (*models.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var po *models.PurchaseOrder
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		var err error
		po, err = loadPurchaseOrderForParticipant(ctx, repos, poID, actor, true)
		if err != nil {
			return err
		}
		if po.Status != models.ActivePO {
			return models.BadRequest("only an ACTIVE purchase order can be closed")
		}

		oldValue := map[string]any{
			"status":        string(po.Status),
			"deliveredTons": po.DeliveredTons.String(),
		}

		now := s.Now()
		po.DeliveredTons = po.ContractedTons
		po.Status = models.CompletedPO
		po.CompletedAt = &now
		po.UpdatedAt = now
		if err := repos.PurchaseOrders.Complete(ctx, po); err != nil {
			return err
		}
		return repos.Audit.Append(ctx, auditEntry(actor, models.AuditClosePO, models.PurchaseOrderEntity, po.ID,
			oldValue,
			map[string]any{
				"status":        string(po.Status),
				"deliveredTons": po.DeliveredTons.String(),
			}, now))
	})
	if err != nil {
		return nil, err
	}
	return po.Redacted(), nil
}

// SetCenter назначает центр и класс сена. Доступно при любом статусе заказа.
func (s *PurchaseOrderService) SetCenter(ctx context.Context, poID string, upd models.CenterUpdate, actor models.Actor) (*models.PurchaseOrder, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if upd.Center == nil && upd.HayClass == nil {
		return nil, models.ValidationError("center or hayClass must be provided")
	}

	var po *models.PurchaseOrder
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		var err error
		po, err = loadPurchaseOrderForParticipant(ctx, repos, poID, actor, true)
		if err != nil {
			return err
		}
		if upd.Center != nil {
			po.Center = upd.Center
		}
		if upd.HayClass != nil {
			po.HayClass = upd.HayClass
		}
		po.UpdatedAt = s.Now()
		return repos.PurchaseOrders.UpdateCenter(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po.Redacted(), nil
}

// GetPurchaseOrder получает заказ по ID.
func (s *PurchaseOrderService) GetPurchaseOrder(ctx context.Context, poID string, actor models.Actor) (*models.PurchaseOrder, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	po, err := loadPurchaseOrderForParticipant(ctx, repository.New(s.DB), poID, actor, false)
	if err != nil {
		return nil, translateError(err)
	}
	return po.Redacted(), nil
}

// FetchPurchaseOrders получает заказы организации пользователя, при необходимости по статусу.
func (s *PurchaseOrderService) FetchPurchaseOrders(ctx context.Context, status string, limit, offset int, actor models.Actor) ([]models.PurchaseOrder, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	poStatus := models.POStatus(status)
	if status != "" && !allowedPOStatuses[poStatus] {
		return nil, models.ValidationError(fmt.Sprintf("unsupported purchase order status: %s", status))
	}
	orders, err := repository.NewPurchaseOrderRepository(s.DB).ListPurchaseOrders(ctx, actor.OrganizationID, poStatus, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	for i := range orders {
		orders[i] = *orders[i].Redacted()
	}
	return orders, nil
}

// GetSignatures восстанавливает подписи сторон из журнала аудита.
// Для каждой стороны берется первая по времени запись.
func (s *PurchaseOrderService) GetSignatures(ctx context.Context, poID string, actor models.Actor) (*models.POSignatures, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	repos := repository.New(s.DB)
	if _, err := loadPurchaseOrderForParticipant(ctx, repos, poID, actor, false); err != nil {
		return nil, translateError(err)
	}
	entries, err := repos.Audit.ListByEntity(ctx, models.PurchaseOrderEntity, poID, models.AuditSignPO, models.AuditAcceptListingAndSign)
	if err != nil {
		return nil, translateError(err)
	}

	signatures := &models.POSignatures{}
	for _, e := range entries {
		side, _ := e.NewValue["side"].(string)
		switch models.POSide(side) {
		case models.BuyerSide:
			if signatures.Buyer == nil {
				signatures.Buyer = signatureFromEntry(e, models.BuyerSide)
			}
		case models.GrowerSide:
			if signatures.Grower == nil {
				signatures.Grower = signatureFromEntry(e, models.GrowerSide)
			}
		}
	}
	return signatures, nil
}

func signatureFromEntry(e models.AuditEntry, side models.POSide) *models.Signature {
	sig := &models.Signature{
		Side:     side,
		UserID:   e.ActorID,
		SignedAt: e.CreatedAt,
	}
	sig.TypedName, _ = e.NewValue["typedName"].(string)
	if image, ok := e.NewValue["signatureImage"].(string); ok {
		sig.SignatureImage = &image
	}
	return sig
}

// FetchAuditLog возвращает журнал по заказу или поставке для участника заказа.
func (s *PurchaseOrderService) FetchAuditLog(ctx context.Context, entityType models.EntityType, entityID string, actor models.Actor) ([]models.AuditEntry, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	repos := repository.New(s.DB)

	poID := entityID
	switch entityType {
	case models.PurchaseOrderEntity:
	case models.LoadEntity:
		load, err := repos.Loads.GetLoad(ctx, entityID, false)
		if err != nil {
			return nil, translateError(notFound(err, "load not found"))
		}
		poID = load.PurchaseOrderID
	default:
		return nil, models.ValidationError(fmt.Sprintf("unsupported entity type: %s", entityType))
	}

	if _, err := loadPurchaseOrderForParticipant(ctx, repos, poID, actor, false); err != nil {
		return nil, translateError(err)
	}
	entries, err := repos.Audit.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, translateError(err)
	}
	return entries, nil
}

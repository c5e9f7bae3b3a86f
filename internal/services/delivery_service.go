package services

import (
	"context"
	"strconv"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/repository"

	"github.com/shopspring/decimal"
)

// Имена полей поставки в истории изменений.
const (
	fieldTotalBaleCount   = "totalBaleCount"
	fieldWetBalesCount    = "wetBalesCount"
	fieldGrossWeight      = "grossWeight"
	fieldTareWeight       = "tareWeight"
	fieldLocation         = "location"
	fieldDeliveryDatetime = "deliveryDatetime"
)

// DeliveryService - журнал поставок по активным заказам.
type DeliveryService struct {
	DB  db.DB
	Now Clock
}

// NewDeliveryService создаёт новый экземпляр DeliveryService.
func NewDeliveryService(database db.DB) *DeliveryService {
	return &DeliveryService{DB: database, Now: SystemClock}
}

func validateLoadRequest(req models.LoadRequest) error {
	if req.TotalBaleCount < 0 || req.WetBalesCount < 0 {
		return models.ValidationError("bale counts must not be negative")
	}
	if req.WetBalesCount > req.TotalBaleCount {
		return models.ValidationError("wetBalesCount must not exceed totalBaleCount")
	}
	if req.GrossWeight.IsNegative() || req.TareWeight.IsNegative() {
		return models.ValidationError("weights must not be negative")
	}
	return nil
}

func validateLoadUpdate(upd models.LoadUpdate) error {
	if (upd.TotalBaleCount != nil && *upd.TotalBaleCount < 0) || (upd.WetBalesCount != nil && *upd.WetBalesCount < 0) {
		return models.ValidationError("bale counts must not be negative")
	}
	if (upd.GrossWeight != nil && upd.GrossWeight.IsNegative()) || (upd.TareWeight != nil && upd.TareWeight.IsNegative()) {
		return models.ValidationError("weights must not be negative")
	}
	return nil
}

// LogDelivery регистрирует поставку по активному заказу и увеличивает поставленный объем
// на вес нетто в тоннах.
func (s *DeliveryService) LogDelivery(ctx context.Context, poID string, req models.LoadRequest, actor models.Actor) (*models.LoadView, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if err := validateLoadRequest(req); err != nil {
		return nil, err
	}

	var load *models.Load
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		po, err := loadPurchaseOrderForParticipant(ctx, repos, poID, actor, true)
		if err != nil {
			return err
		}
		if po.Status != models.ActivePO {
			return models.BadRequest("deliveries can be logged only against an ACTIVE purchase order")
		}

		now := s.Now()
		load = &models.Load{
			ID:               newID(),
			PurchaseOrderID:  po.ID,
			GrossWeight:      req.GrossWeight,
			TareWeight:       req.TareWeight,
			TotalBaleCount:   req.TotalBaleCount,
			WetBalesCount:    req.WetBalesCount,
			DeliveryDatetime: now,
			EnteredByID:      actor.UserID,
			Location:         req.Location,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if req.DeliveryDatetime != nil {
			load.DeliveryDatetime = req.DeliveryDatetime.UTC()
		}
		if !load.NetWeight().IsPositive() {
			return models.BadRequest("net weight must be positive")
		}

		stacks, err := repos.PurchaseOrders.ListStacks(ctx, po.ID)
		if err != nil {
			return err
		}
		if len(stacks) == 0 {
			return models.BadRequest("purchase order has no linked listing")
		}
		load.ListingID = stacks[0].ListingID

		load.LoadNumber, err = repos.Sequences.NextLoadNumber(ctx)
		if err != nil {
			return err
		}
		if err := repos.Loads.CreateLoad(ctx, load); err != nil {
			return err
		}

		oldDelivered := po.DeliveredTons
		newDelivered := oldDelivered.Add(load.NetTons())
		if err := repos.PurchaseOrders.UpdateDeliveredTons(ctx, po.ID, newDelivered, now); err != nil {
			return err
		}

		return repos.Audit.Append(ctx, auditEntry(actor, models.AuditLogDelivery, models.PurchaseOrderEntity, po.ID,
			map[string]any{"deliveredTons": oldDelivered.String()},
			map[string]any{
				"deliveredTons": newDelivered.String(),
				"loadId":        load.ID,
				"loadNumber":    load.LoadNumber,
				"netWeight":     load.NetWeight().String(),
			}, now))
	})
	if err != nil {
		return nil, err
	}
	view := models.NewLoadView(*load)
	return &view, nil
}

type fieldChange struct {
	name     string
	oldValue string
	newValue string
}

// applyLoadUpdate применяет к копии поставки поля, отличающиеся от текущих значений.
func applyLoadUpdate(current models.Load, upd models.LoadUpdate) (models.Load, []fieldChange) {
	updated := current
	var changes []fieldChange

	if upd.TotalBaleCount != nil && *upd.TotalBaleCount != current.TotalBaleCount {
		updated.TotalBaleCount = *upd.TotalBaleCount
		changes = append(changes, fieldChange{fieldTotalBaleCount, strconv.Itoa(current.TotalBaleCount), strconv.Itoa(updated.TotalBaleCount)})
	}
	if upd.WetBalesCount != nil && *upd.WetBalesCount != current.WetBalesCount {
		updated.WetBalesCount = *upd.WetBalesCount
		changes = append(changes, fieldChange{fieldWetBalesCount, strconv.Itoa(current.WetBalesCount), strconv.Itoa(updated.WetBalesCount)})
	}
	if upd.GrossWeight != nil && !upd.GrossWeight.Equal(current.GrossWeight) {
		updated.GrossWeight = *upd.GrossWeight
		changes = append(changes, fieldChange{fieldGrossWeight, current.GrossWeight.String(), updated.GrossWeight.String()})
	}
	if upd.TareWeight != nil && !upd.TareWeight.Equal(current.TareWeight) {
		updated.TareWeight = *upd.TareWeight
		changes = append(changes, fieldChange{fieldTareWeight, current.TareWeight.String(), updated.TareWeight.String()})
	}
	if upd.Location != nil && (current.Location == nil || *upd.Location != *current.Location) {
		location := *upd.Location
		updated.Location = &location
		changes = append(changes, fieldChange{fieldLocation, stringValue(current.Location), location})
	}
	if upd.DeliveryDatetime != nil && !upd.DeliveryDatetime.Equal(current.DeliveryDatetime) {
		updated.DeliveryDatetime = upd.DeliveryDatetime.UTC()
		changes = append(changes, fieldChange{fieldDeliveryDatetime,
			current.DeliveryDatetime.UTC().Format(time.RFC3339Nano),
			updated.DeliveryDatetime.Format(time.RFC3339Nano)})
	}
	return updated, changes
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func loadSnapshot(l models.Load) map[string]any {
	return map[string]any{
		fieldTotalBaleCount:   l.TotalBaleCount,
		fieldWetBalesCount:    l.WetBalesCount,
		fieldGrossWeight:      l.GrossWeight.String(),
		fieldTareWeight:       l.TareWeight.String(),
		fieldLocation:         l.Location,
		fieldDeliveryDatetime: l.DeliveryDatetime,
		"netWeight":           l.NetWeight().String(),
	}
}

// EditLoad исправляет поставку. Поставленный объем заказа меняется на разницу
// между новым и старым весом нетто, а не пересчитывается заново.
func (s *DeliveryService) EditLoad(ctx context.Context, loadID string, upd models.LoadUpdate, actor models.Actor) (*models.LoadView, error) {
	if err := requireWriter(actor); err != nil {
		return nil, err
	}
	if err := validateLoadUpdate(upd); err != nil {
		return nil, err
	}

	var updated models.Load
	err := runInTx(ctx, s.DB, func(repos *repository.Repositories) error {
		current, err := repos.Loads.GetLoad(ctx, loadID, true)
		if err != nil {
			return notFound(err, "load not found")
		}
		po, err := loadPurchaseOrderForParticipant(ctx, repos, current.PurchaseOrderID, actor, true)
		if err != nil {
			return err
		}

		var changes []fieldChange
		updated, changes = applyLoadUpdate(*current, upd)
		if len(changes) == 0 {
			return models.BadRequest("no changes to apply")
		}
		if updated.WetBalesCount > updated.TotalBaleCount {
			return models.BadRequest("wetBalesCount must not exceed totalBaleCount")
		}
		if !updated.NetWeight().IsPositive() {
			return models.BadRequest("net weight must be positive")
		}

		now := s.Now()
		updated.UpdatedAt = now
		if err := repos.Loads.UpdateLoad(ctx, &updated); err != nil {
			return err
		}
		for _, c := range changes {
			edit := &models.LoadEdit{
				ID:         newID(),
				LoadID:     updated.ID,
				FieldName:  c.name,
				OldValue:   c.oldValue,
				NewValue:   c.newValue,
				EditedByID: actor.UserID,
				CreatedAt:  now,
			}
			if err := repos.Loads.CreateLoadEdit(ctx, edit); err != nil {
				return err
			}
		}

		tonsDiff := updated.NetTons().Sub(current.NetTons())
		if !tonsDiff.IsZero() {
			if err := repos.PurchaseOrders.UpdateDeliveredTons(ctx, po.ID, po.DeliveredTons.Add(tonsDiff), now); err != nil {
				return err
			}
		}

		return repos.Audit.Append(ctx, auditEntry(actor, models.AuditEditLoad, models.LoadEntity, updated.ID,
			loadSnapshot(*current), loadSnapshot(updated), now))
	})
	if err != nil {
		return nil, err
	}
	view := models.NewLoadView(updated)
	return &view, nil
}

// FetchLoads возвращает поставки по заказу с производными полями.
func (s *DeliveryService) FetchLoads(ctx context.Context, poID string, actor models.Actor) ([]models.LoadView, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	repos := repository.New(s.DB)
	if _, err := loadPurchaseOrderForParticipant(ctx, repos, poID, actor, false); err != nil {
		return nil, translateError(err)
	}
	loads, err := repos.Loads.ListLoads(ctx, poID)
	if err != nil {
		return nil, translateError(err)
	}
	views := make([]models.LoadView, 0, len(loads))
	for _, l := range loads {
		views = append(views, models.NewLoadView(l))
	}
	return views, nil
}

// FetchLoadEdits возвращает историю изменений поставки.
func (s *DeliveryService) FetchLoadEdits(ctx context.Context, loadID string, actor models.Actor) ([]models.LoadEdit, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	repos := repository.New(s.DB)
	load, err := repos.Loads.GetLoad(ctx, loadID, false)
	if err != nil {
		return nil, translateError(notFound(err, "load not found"))
	}
	if _, err := loadPurchaseOrderForParticipant(ctx, repos, load.PurchaseOrderID, actor, false); err != nil {
		return nil, translateError(err)
	}
	edits, err := repos.Loads.ListLoadEdits(ctx, loadID)
	if err != nil {
		return nil, translateError(err)
	}
	return edits, nil
}

// GetDeliverySummary сверяет накопленный объем поставок с контрактом и с суммой текущих поставок.
// Сверка справочная: она ничего не меняет.
func (s *DeliveryService) GetDeliverySummary(ctx context.Context, poID string, actor models.Actor) (*models.DeliverySummary, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	repos := repository.New(s.DB)
	po, err := loadPurchaseOrderForParticipant(ctx, repos, poID, actor, false)
	if err != nil {
		return nil, translateError(err)
	}
	loads, err := repos.Loads.ListLoads(ctx, poID)
	if err != nil {
		return nil, translateError(err)
	}

	logged := decimal.Zero
	for i := range loads {
		logged = logged.Add(loads[i].NetTons())
	}
	return &models.DeliverySummary{
		PurchaseOrderID: po.ID,
		Status:          po.Status,
		ContractedTons:  po.ContractedTons,
		DeliveredTons:   po.DeliveredTons,
		LoggedTons:      logged,
		RemainingTons:   po.ContractedTons.Sub(po.DeliveredTons),
		Variance:        po.DeliveredTons.Sub(logged),
		LoadCount:       len(loads),
	}, nil
}

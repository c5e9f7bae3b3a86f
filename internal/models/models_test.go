package models_test

import (
	"net/http"
	"testing"

	"github.com/senyabanana/hay-exchange/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorValid(t *testing.T) {
	assert.True(t, models.Actor{UserID: "u", OrganizationID: "o", Role: models.RoleViewer}.Valid())
	assert.False(t, models.Actor{OrganizationID: "o", Role: models.RoleAdmin}.Valid())
	assert.False(t, models.Actor{UserID: "u", Role: models.RoleAdmin}.Valid())
	assert.False(t, models.Actor{UserID: "u", OrganizationID: "o", Role: "admin"}.Valid())

	manager := models.Actor{UserID: "u", OrganizationID: "o", Role: models.RoleManager}
	assert.True(t, manager.CanWrite())
	assert.False(t, manager.IsAdmin())
	assert.False(t, models.Actor{Role: models.RoleViewer}.CanWrite())
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, models.KindNotFound, models.KindForStatus(http.StatusNotFound))
	assert.Equal(t, models.KindForbidden, models.KindForStatus(http.StatusForbidden))
	assert.Equal(t, models.KindBadRequest, models.KindForStatus(http.StatusBadRequest))
	assert.Equal(t, models.KindValidationError, models.KindForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, models.KindConflict, models.KindForStatus(http.StatusConflict))
	assert.Equal(t, models.KindUnauthorized, models.KindForStatus(http.StatusUnauthorized))
	assert.Equal(t, models.KindInternal, models.KindForStatus(http.StatusInternalServerError))

	err := models.ValidationError("bad shape")
	assert.Equal(t, "bad shape", err.Error())
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
}

func TestPurchaseOrderRedacted(t *testing.T) {
	number := "PO-10001"
	buyer, grower := "b", "g"
	po := &models.PurchaseOrder{ID: "po", PONumber: &number, BuyerOrgID: "org-b", GrowerOrgID: "org-g"}

	assert.Nil(t, po.Redacted().PONumber)
	assert.NotNil(t, po.PONumber, "redaction returns a copy")

	po.SignedByBuyerID = &buyer
	assert.True(t, po.HasAnySignature())
	assert.Nil(t, po.Redacted().PONumber)

	po.SignedByGrowerID = &grower
	require.NotNil(t, po.Redacted().PONumber)
	assert.Equal(t, number, *po.Redacted().PONumber)
}

func TestPurchaseOrderSideOf(t *testing.T) {
	po := &models.PurchaseOrder{BuyerOrgID: "org-b", GrowerOrgID: "org-g"}

	side, ok := po.SideOf("org-b")
	assert.True(t, ok)
	assert.Equal(t, models.BuyerSide, side)

	side, ok = po.SideOf("org-g")
	assert.True(t, ok)
	assert.Equal(t, models.GrowerSide, side)

	_, ok = po.SideOf("org-x")
	assert.False(t, ok)
	assert.False(t, po.IsParticipant("org-x"))
}

func TestNegotiationThreadHelpers(t *testing.T) {
	root := &models.Negotiation{ID: "root", BuyerOrgID: "b", GrowerOrgID: "g", OfferedByOrgID: "b"}
	assert.Equal(t, "root", root.ThreadID())
	assert.Equal(t, "g", root.Counterparty())

	parent := "root"
	child := &models.Negotiation{ID: "child", ParentID: &parent, BuyerOrgID: "b", GrowerOrgID: "g", OfferedByOrgID: "g"}
	assert.Equal(t, "root", child.ThreadID())
	assert.Equal(t, "b", child.Counterparty())
	assert.True(t, child.IsParticipant("g"))
	assert.False(t, child.IsParticipant("x"))
}

func TestNewLoadView(t *testing.T) {
	load := models.Load{
		GrossWeight:    decimal.NewFromInt(71001),
		TareWeight:     decimal.NewFromInt(35000),
		TotalBaleCount: 24,
	}
	view := models.NewLoadView(load)

	assert.True(t, decimal.NewFromInt(36001).Equal(view.NetWeight))
	assert.Equal(t, "18", view.NetTons.String())
	assert.Equal(t, "1500.04", view.AvgBaleWeight.String())
	assert.Equal(t, "18.0005", load.NetTons().String())

	empty := models.NewLoadView(models.Load{GrossWeight: decimal.NewFromInt(10)})
	assert.True(t, empty.AvgBaleWeight.IsZero())
}

func TestTermsUpdateEmpty(t *testing.T) {
	assert.True(t, models.TermsUpdate{}.Empty())
	notes := "dry"
	assert.False(t, models.TermsUpdate{QualityNotes: &notes}.Empty())
	assert.False(t, models.TermsUpdate{MaxMoisturePercent: decimal.NewNullDecimal(decimal.NewFromInt(15))}.Empty())
}

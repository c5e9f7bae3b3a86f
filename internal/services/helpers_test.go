package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/repository"
	"github.com/senyabanana/hay-exchange/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	growerAdmin = models.Actor{UserID: "grower-admin", OrganizationID: "org-grower", Role: models.RoleAdmin}
	growerMgr   = models.Actor{UserID: "grower-manager", OrganizationID: "org-grower", Role: models.RoleManager}
	buyerAdmin  = models.Actor{UserID: "buyer-admin", OrganizationID: "org-buyer", Role: models.RoleAdmin}
	buyerMgr    = models.Actor{UserID: "buyer-manager", OrganizationID: "org-buyer", Role: models.RoleManager}
	buyerViewer = models.Actor{UserID: "buyer-viewer", OrganizationID: "org-buyer", Role: models.RoleViewer}
	outsider    = models.Actor{UserID: "outsider", OrganizationID: "org-other", Role: models.RoleAdmin}
)

var errInjected = errors.New("injected failure")

type testEnv struct {
	db             db.DB
	listings       *services.ListingService
	negotiations   *services.NegotiationService
	purchaseOrders *services.PurchaseOrderService
	deliveries     *services.DeliveryService
}

func newTestStore(t *testing.T) *db.SQLite {
	t.Helper()
	store, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

// tickingClock возвращает время, которое сдвигается на секунду при каждом вызове.
func tickingClock() services.Clock {
	var mu sync.Mutex
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newEnvOver(database db.DB) *testEnv {
	clock := tickingClock()
	e := &testEnv{
		db:             database,
		listings:       services.NewListingService(database),
		negotiations:   services.NewNegotiationService(database),
		purchaseOrders: services.NewPurchaseOrderService(database),
		deliveries:     services.NewDeliveryService(database),
	}
	e.listings.Now = clock
	e.negotiations.Now = clock
	e.purchaseOrders.Now = clock
	e.deliveries.Now = clock
	return e
}

func newTestEnv(t *testing.T) *testEnv {
	return newEnvOver(newTestStore(t))
}

// faultyDB проваливает внутри транзакции первый Exec, текст которого содержит failOn.
type faultyDB struct {
	db.DB
	failOn string
}

func (f *faultyDB) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	return f.DB.WithTx(ctx, func(q db.Querier) error {
		return fn(&faultyQuerier{Querier: q, failOn: f.failOn})
	})
}

type faultyQuerier struct {
	db.Querier
	failOn string
}

func (q *faultyQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if strings.Contains(query, q.failOn) {
		return 0, errInjected
	}
	return q.Querier.Exec(ctx, query, args...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func strPtr(s string) *string {
	return &s
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var resp *models.ErrorResponse
	require.True(t, errors.As(err, &resp), "expected ErrorResponse, got %T: %v", err, err)
	assert.Equal(t, kind, resp.Kind, resp.Message)
}

func (e *testEnv) createListing(t *testing.T, price string, tons *string, firm bool) *models.Listing {
	t.Helper()
	req := models.ListingRequest{PricePerTon: dec(price), FirmPrice: firm, Description: "alfalfa, 3x4 bales"}
	if tons != nil {
		req.EstimatedTons = nullDec(*tons)
	}
	listing, err := e.listings.CreateListing(context.Background(), req, growerAdmin)
	require.NoError(t, err)
	return listing
}

func (e *testEnv) offer(t *testing.T, listingID, price string, tons *string, actor models.Actor) *models.Negotiation {
	t.Helper()
	req := models.OfferRequest{OfferedPricePerTon: dec(price)}
	if tons != nil {
		req.OfferedTons = nullDec(*tons)
	}
	n, err := e.negotiations.CreateOffer(context.Background(), listingID, req, actor)
	require.NoError(t, err)
	return n
}

func (e *testEnv) counter(t *testing.T, negotiationID, price string, actor models.Actor) *models.Negotiation {
	t.Helper()
	n, err := e.negotiations.Counter(context.Background(), negotiationID, models.OfferRequest{OfferedPricePerTon: dec(price)}, actor)
	require.NoError(t, err)
	return n
}

// draftPO проводит переговоры до принятия и возвращает черновик заказа.
func (e *testEnv) draftPO(t *testing.T) (*models.Listing, *models.PurchaseOrder) {
	t.Helper()
	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "240", strPtr("500"), buyerAdmin)
	acceptance, err := e.negotiations.Accept(context.Background(), offer.ID, growerAdmin)
	require.NoError(t, err)
	return listing, acceptance.PurchaseOrder
}

// activePO возвращает заказ, подписанный обеими сторонами.
func (e *testEnv) activePO(t *testing.T) *models.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	_, po := e.draftPO(t)
	_, err := e.purchaseOrders.Sign(ctx, po.ID, models.SignRequest{TypedName: "Bea Buyer"}, buyerAdmin)
	require.NoError(t, err)
	po, err = e.purchaseOrders.Sign(ctx, po.ID, models.SignRequest{TypedName: "Gus Grower"}, growerAdmin)
	require.NoError(t, err)
	require.Equal(t, models.ActivePO, po.Status)
	return po
}

func (e *testEnv) rawPO(t *testing.T, poID string) *models.PurchaseOrder {
	t.Helper()
	po, err := repository.New(e.db).PurchaseOrders.GetPurchaseOrder(context.Background(), poID, false)
	require.NoError(t, err)
	return po
}

func (e *testEnv) rawListing(t *testing.T, listingID string) *models.Listing {
	t.Helper()
	listing, err := repository.New(e.db).Listings.GetListing(context.Background(), listingID, false)
	require.NoError(t, err)
	return listing
}

func (e *testEnv) rawNegotiation(t *testing.T, negotiationID string) *models.Negotiation {
	t.Helper()
	n, err := repository.New(e.db).Negotiations.GetNegotiation(context.Background(), negotiationID, false)
	require.NoError(t, err)
	return n
}

func countPending(thread []models.Negotiation) int {
	pending := 0
	for _, n := range thread {
		if n.Status == models.PendingNegotiation {
			pending++
		}
	}
	return pending
}

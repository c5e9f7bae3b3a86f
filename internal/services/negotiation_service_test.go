package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/senyabanana/hay-exchange/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FULL SCENARIO
// =============================================================================

func TestScenario_OfferCounterAcceptSignDeliverClose(t *testing.T) {
	// GIVEN: A listing at $250/ton with 500 estimated tons
	// WHEN: Buyer offers $230, grower counters $240, buyer accepts, both sign,
	//       one load is delivered and the PO is closed
	// THEN: Every intermediate state matches the contract lifecycle

	e := newTestEnv(t)
	ctx := context.Background()

	listing := e.createListing(t, "250", strPtr("500"), false)
	assert.Equal(t, "100001", listing.StackID)

	offer := e.offer(t, listing.ID, "230", strPtr("500"), buyerAdmin)
	counter, err := e.negotiations.Counter(ctx, offer.ID, models.OfferRequest{
		OfferedPricePerTon: dec("240"),
		OfferedTons:        nullDec("500"),
	}, growerAdmin)
	require.NoError(t, err)

	acceptance, err := e.negotiations.Accept(ctx, counter.ID, buyerAdmin)
	require.NoError(t, err)
	po := acceptance.PurchaseOrder
	assertDecimal(t, "500", po.ContractedTons)
	assertDecimal(t, "240", po.PricePerTon)
	assert.Equal(t, models.DraftPO, po.Status)
	assert.Nil(t, po.PONumber)

	po, err = e.purchaseOrders.Sign(ctx, po.ID, models.SignRequest{TypedName: "Bea Buyer"}, buyerAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.DraftPO, po.Status)
	assert.Nil(t, po.PONumber)

	po, err = e.purchaseOrders.Sign(ctx, po.ID, models.SignRequest{TypedName: "Gus Grower"}, growerAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ActivePO, po.Status)
	require.NotNil(t, po.PONumber)
	assert.Equal(t, "PO-10001", *po.PONumber)
	assert.NotNil(t, po.SignedAt)

	load, err := e.deliveries.LogDelivery(ctx, po.ID, models.LoadRequest{
		TotalBaleCount: 24,
		GrossWeight:    dec("52000"),
		TareWeight:     dec("16000"),
	}, buyerMgr)
	require.NoError(t, err)
	assertDecimal(t, "36000", load.NetWeight)
	assertDecimal(t, "18", load.NetTons)
	assertDecimal(t, "1500", load.AvgBaleWeight)
	assertDecimal(t, "18", e.rawPO(t, po.ID).DeliveredTons)

	po, err = e.purchaseOrders.Close(ctx, po.ID, growerAdmin)
	require.NoError(t, err)
	assertDecimal(t, "500", po.DeliveredTons)
	assert.Equal(t, models.CompletedPO, po.Status)
	assert.NotNil(t, po.CompletedAt)
}

// =============================================================================
// OFFER TESTS
// =============================================================================

func TestCreateOffer_CreatesPendingRoot(t *testing.T) {
	e := newTestEnv(t)
	listing := e.createListing(t, "250", strPtr("500"), false)

	offer := e.offer(t, listing.ID, "230", nil, buyerMgr)

	assert.Equal(t, models.PendingNegotiation, offer.Status)
	assert.Nil(t, offer.ParentID)
	assert.Equal(t, "org-buyer", offer.BuyerOrgID)
	assert.Equal(t, "org-grower", offer.GrowerOrgID)
	assert.Equal(t, "org-buyer", offer.OfferedByOrgID)
	assert.Equal(t, "buyer-manager", offer.OfferedByUserID)
	assert.False(t, offer.OfferedTons.Valid)
}

func TestCreateOffer_Preconditions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	listing := e.createListing(t, "250", strPtr("500"), false)
	req := models.OfferRequest{OfferedPricePerTon: dec("230")}

	t.Run("missing listing", func(t *testing.T) {
		_, err := e.negotiations.CreateOffer(ctx, "no-such-listing", req, buyerAdmin)
		requireKind(t, err, models.KindNotFound)
	})

	t.Run("self offer", func(t *testing.T) {
		_, err := e.negotiations.CreateOffer(ctx, listing.ID, req, growerMgr)
		requireKind(t, err, models.KindBadRequest)
	})

	t.Run("viewer", func(t *testing.T) {
		_, err := e.negotiations.CreateOffer(ctx, listing.ID, req, buyerViewer)
		requireKind(t, err, models.KindForbidden)
	})

	t.Run("non-positive price", func(t *testing.T) {
		_, err := e.negotiations.CreateOffer(ctx, listing.ID, models.OfferRequest{OfferedPricePerTon: dec("0")}, buyerAdmin)
		requireKind(t, err, models.KindValidationError)
	})

	t.Run("listing under contract", func(t *testing.T) {
		offer := e.offer(t, listing.ID, "240", nil, buyerAdmin)
		_, err := e.negotiations.Accept(ctx, offer.ID, growerAdmin)
		require.NoError(t, err)

		_, err = e.negotiations.CreateOffer(ctx, listing.ID, req, outsider)
		requireKind(t, err, models.KindBadRequest)
	})
}

// =============================================================================
// COUNTER TESTS
// =============================================================================

func TestCounter_KeepsSingleActiveOffer(t *testing.T) {
	// GIVEN: An offer answered by three alternating counters
	// WHEN: Reading the thread
	// THEN: All counters hang off the root, in order, with exactly one pending node

	e := newTestEnv(t)
	ctx := context.Background()
	listing := e.createListing(t, "250", strPtr("500"), false)

	root := e.offer(t, listing.ID, "200", nil, buyerAdmin)
	c1 := e.counter(t, root.ID, "245", growerAdmin)
	c2 := e.counter(t, c1.ID, "220", buyerAdmin)
	c3 := e.counter(t, c2.ID, "235", growerMgr)

	thread, err := e.negotiations.GetThread(ctx, c2.ID, buyerAdmin)
	require.NoError(t, err)
	require.Len(t, thread, 4)

	ids := []string{thread[0].ID, thread[1].ID, thread[2].ID, thread[3].ID}
	assert.Equal(t, []string{root.ID, c1.ID, c2.ID, c3.ID}, ids)
	for _, n := range thread[1:] {
		require.NotNil(t, n.ParentID)
		assert.Equal(t, root.ID, *n.ParentID)
	}
	assert.Equal(t, 1, countPending(thread))
	assert.Equal(t, models.PendingNegotiation, thread[3].Status)
	assert.Equal(t, "org-grower", thread[3].OfferedByOrgID)

	_, err = e.negotiations.Reject(ctx, c3.ID, buyerAdmin)
	require.NoError(t, err)

	thread, err = e.negotiations.GetThread(ctx, root.ID, growerAdmin)
	require.NoError(t, err)
	assert.Equal(t, 0, countPending(thread))
	assert.Equal(t, models.RejectedNegotiation, thread[3].Status)
}

func TestCounter_Preconditions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "230", nil, buyerAdmin)
	req := models.OfferRequest{OfferedPricePerTon: dec("240")}

	t.Run("own offer", func(t *testing.T) {
		_, err := e.negotiations.Counter(ctx, offer.ID, req, buyerMgr)
		requireKind(t, err, models.KindForbidden)
	})

	t.Run("non participant", func(t *testing.T) {
		_, err := e.negotiations.Counter(ctx, offer.ID, req, outsider)
		requireKind(t, err, models.KindForbidden)
	})

	t.Run("missing negotiation", func(t *testing.T) {
		_, err := e.negotiations.Counter(ctx, "nope", req, growerAdmin)
		requireKind(t, err, models.KindNotFound)
	})

	t.Run("not pending", func(t *testing.T) {
		e.counter(t, offer.ID, "245", growerAdmin)
		_, err := e.negotiations.Counter(ctx, offer.ID, req, growerAdmin)
		requireKind(t, err, models.KindBadRequest)
	})
}

func TestCounter_FirmPriceListing(t *testing.T) {
	e := newTestEnv(t)
	listing := e.createListing(t, "250", strPtr("500"), true)
	offer := e.offer(t, listing.ID, "230", nil, buyerAdmin)

	_, err := e.negotiations.Counter(context.Background(), offer.ID, models.OfferRequest{OfferedPricePerTon: dec("245")}, growerAdmin)

	requireKind(t, err, models.KindBadRequest)
	assert.Equal(t, models.PendingNegotiation, e.rawNegotiation(t, offer.ID).Status)
}

// =============================================================================
// ACCEPT TESTS
// =============================================================================

func TestAccept_CreatesDraftPurchaseOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "240", strPtr("120"), buyerAdmin)

	acceptance, err := e.negotiations.Accept(ctx, offer.ID, growerMgr)
	require.NoError(t, err)

	negotiation := e.rawNegotiation(t, offer.ID)
	assert.Equal(t, models.AcceptedNegotiation, negotiation.Status)
	require.NotNil(t, negotiation.PurchaseOrderID)
	assert.Equal(t, acceptance.PurchaseOrder.ID, *negotiation.PurchaseOrderID)

	po := e.rawPO(t, acceptance.PurchaseOrder.ID)
	assert.Equal(t, models.DraftPO, po.Status)
	assertDecimal(t, "120", po.ContractedTons)
	assertDecimal(t, "0", po.DeliveredTons)
	assert.Equal(t, "grower-manager", po.CreatedByID)
	require.NotNil(t, po.PONumber)
	assert.Equal(t, "PO-10001", *po.PONumber)
	assert.Nil(t, acceptance.PurchaseOrder.PONumber)

	assert.Equal(t, models.UnderContractListing, e.rawListing(t, listing.ID).Status)
}

func TestAccept_ContractedTonsFallback(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	withEstimate := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, withEstimate.ID, "240", nil, buyerAdmin)
	acceptance, err := e.negotiations.Accept(ctx, offer.ID, growerAdmin)
	require.NoError(t, err)
	assertDecimal(t, "500", acceptance.PurchaseOrder.ContractedTons)

	withoutEstimate := e.createListing(t, "250", nil, false)
	offer = e.offer(t, withoutEstimate.ID, "240", nil, buyerAdmin)
	acceptance, err = e.negotiations.Accept(ctx, offer.ID, growerAdmin)
	require.NoError(t, err)
	assertDecimal(t, "0", acceptance.PurchaseOrder.ContractedTons)
}

func TestAccept_Preconditions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "230", nil, buyerAdmin)

	_, err := e.negotiations.Accept(ctx, offer.ID, buyerAdmin)
	requireKind(t, err, models.KindForbidden)

	_, err = e.negotiations.Accept(ctx, offer.ID, outsider)
	requireKind(t, err, models.KindForbidden)

	_, err = e.negotiations.Reject(ctx, offer.ID, growerAdmin)
	require.NoError(t, err)

	_, err = e.negotiations.Accept(ctx, offer.ID, growerAdmin)
	requireKind(t, err, models.KindBadRequest)
}

func TestAccept_IsAtomic(t *testing.T) {
	// GIVEN: A storage that fails the final listing update inside the accept transaction
	// WHEN: The grower accepts a pending offer
	// THEN: None of the accept effects are visible and the PO number is not consumed

	store := newTestStore(t)
	e := newEnvOver(store)
	faulty := newEnvOver(&faultyDB{DB: store, failOn: "UPDATE listings"})
	ctx := context.Background()

	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "240", strPtr("500"), buyerAdmin)

	_, err := faulty.negotiations.Accept(ctx, offer.ID, growerAdmin)
	require.ErrorIs(t, err, errInjected)

	negotiation := e.rawNegotiation(t, offer.ID)
	assert.Equal(t, models.PendingNegotiation, negotiation.Status)
	assert.Nil(t, negotiation.PurchaseOrderID)
	assert.Equal(t, models.AvailableListing, e.rawListing(t, listing.ID).Status)

	orders, err := e.purchaseOrders.FetchPurchaseOrders(ctx, "", 50, 0, buyerAdmin)
	require.NoError(t, err)
	assert.Empty(t, orders)

	acceptance, err := e.negotiations.Accept(ctx, offer.ID, growerAdmin)
	require.NoError(t, err)
	assert.Equal(t, "PO-10001", *e.rawPO(t, acceptance.PurchaseOrder.ID).PONumber)
}

func TestAccept_RacesWithCounter(t *testing.T) {
	// GIVEN: One pending offer
	// WHEN: The recipient counters and accepts it concurrently
	// THEN: Exactly one call wins; the loser sees the offer is no longer pending

	e := newTestEnv(t)
	ctx := context.Background()
	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "230", nil, buyerAdmin)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = e.negotiations.Counter(ctx, offer.ID, models.OfferRequest{OfferedPricePerTon: dec("245")}, growerAdmin)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = e.negotiations.Accept(ctx, offer.ID, growerMgr)
	}()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			requireKind(t, err, models.KindBadRequest)
		}
	}
	assert.Equal(t, 1, failures)

	thread, err := e.negotiations.GetThread(ctx, offer.ID, buyerAdmin)
	require.NoError(t, err)
	assert.LessOrEqual(t, countPending(thread), 1)
}

// =============================================================================
// READ TESTS
// =============================================================================

func TestGetThread_OnlyParticipants(t *testing.T) {
	e := newTestEnv(t)
	listing := e.createListing(t, "250", strPtr("500"), false)
	offer := e.offer(t, listing.ID, "230", nil, buyerAdmin)

	_, err := e.negotiations.GetThread(context.Background(), offer.ID, outsider)
	requireKind(t, err, models.KindForbidden)
}

func TestFetchNegotiations_ReturnsThreadRoots(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	first := e.createListing(t, "250", strPtr("500"), false)
	second := e.createListing(t, "260", strPtr("300"), false)

	root1 := e.offer(t, first.ID, "230", nil, buyerAdmin)
	e.counter(t, root1.ID, "245", growerAdmin)
	root2 := e.offer(t, second.ID, "250", nil, buyerAdmin)

	roots, err := e.negotiations.FetchNegotiations(ctx, 10, 0, growerAdmin)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, root2.ID, roots[0].ID)
	assert.Equal(t, root1.ID, roots[1].ID)

	roots, err = e.negotiations.FetchNegotiations(ctx, 10, 0, outsider)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

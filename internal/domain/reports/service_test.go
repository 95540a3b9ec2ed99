package reports

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/crm"
	"stockdocs/internal/domain/documents"
)

// fakeReportRepo filters a canned fact set the way the SQL query
// would: by kind, product and the date/conduction windows, ordered by
// conduction time. Store scoping is not modelled; fixtures are
// single-store.
type fakeReportRepo struct {
	facts []LineFact
}

func (r *fakeReportRepo) PostedLines(_ context.Context, q LineQuery) ([]LineFact, error) {
	var out []LineFact
	for _, f := range r.facts {
		if len(q.Kinds) > 0 && !containsKind(q.Kinds, f.Kind) {
			continue
		}
		if q.ProductID != nil && f.ProductID != *q.ProductID {
			continue
		}
		if q.DocDateFrom != nil && f.DocDate.Before(*q.DocDateFrom) {
			continue
		}
		if q.DocDateTo != nil && f.DocDate.After(*q.DocDateTo) {
			continue
		}
		if q.ConductedFrom != nil && f.ConductedAt.Before(*q.ConductedFrom) {
			continue
		}
		if q.ConductedTo != nil && f.ConductedAt.After(*q.ConductedTo) {
			continue
		}
		if q.ConductedBefore != nil && !f.ConductedAt.Before(*q.ConductedBefore) {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConductedAt.Before(out[j].ConductedAt) })
	return out, nil
}

func containsKind(kinds []documents.Kind, k documents.Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

type fakeCatalog struct {
	products map[int64]crm.ProductInfo
	err      error
}

func (c *fakeCatalog) ProductsInfo(_ context.Context, ids []int64) (map[int64]crm.ProductInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[int64]crm.ProductInfo)
	for _, pid := range ids {
		if pi, ok := c.products[pid]; ok {
			out[pid] = pi
		}
	}
	return out, nil
}

func (c *fakeCatalog) AllProducts(_ context.Context) (map[int64]crm.ProductInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.products, nil
}

func (c *fakeCatalog) Organizations(_ context.Context) ([]crm.Organization, error) {
	return nil, nil
}

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 12, 0, 0, 0, time.UTC)
}

func fact(kind documents.Kind, conducted time.Time, pid int64, name, qty, price string) LineFact {
	return LineFact{
		DocumentID:  id.New(),
		Kind:        kind,
		DocNumber:   "N-1",
		DocDate:     conducted,
		ConductedAt: conducted,
		ProductID:   pid,
		ProductName: name,
		Unit:        "pcs",
		Quantity:    types.MustQuantity(qty),
		UnitPrice:   types.MustQuantity(price),
	}
}

func TestStock_MovingAverageCost(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "10", "5"),
		fact(documents.KindReceipt, day(2), 101, "Bolts", "10", "7"),
		fact(documents.KindSalesInvoice, day(3), 101, "Bolts", "5", "10"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Stock(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	assert.Equal(t, "Bolts", item.ProductName)
	assert.True(t, item.Quantity.Equal(types.MustQuantity("15")))
	// (10*5 + 10*7) / 20 = 6
	assert.True(t, item.AvgCost.Equal(types.MustQuantity("6")))
	assert.True(t, item.TotalCost.Equal(types.MustQuantity("90")))
	assert.True(t, report.TotalCost.Equal(types.MustQuantity("90")))
}

func TestStock_SkipsZeroBalancesUnlessAsked(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "4", "5"),
		fact(documents.KindWriteOffAct, day(2), 101, "Bolts", "4", "0"),
		fact(documents.KindReceipt, day(1), 102, "Screws", "2", "1"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Stock(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, int64(102), report.Items[0].ProductID)

	report, err = svc.Stock(context.Background(), StockFilter{StoreID: id.New(), IncludeZero: true})
	require.NoError(t, err)
	assert.Len(t, report.Items, 2)
}

func TestStock_AsOfCutsOffLaterMovements(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "10", "5"),
		fact(documents.KindSalesInvoice, day(5), 101, "Bolts", "8", "9"),
	}}
	svc := NewService(repo, nil)

	asOf := day(3)
	report, err := svc.Stock(context.Background(), StockFilter{StoreID: id.New(), AsOf: &asOf})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].Quantity.Equal(types.MustQuantity("10")))
}

func TestStock_CatalogNamesWinOverStoredNames(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "old name", "3", "5"),
	}}
	catalog := &fakeCatalog{products: map[int64]crm.ProductInfo{
		101: {ID: 101, Name: "Bolts M6", Unit: "box", SectionName: "Fasteners"},
	}}
	svc := NewService(repo, catalog)

	report, err := svc.Stock(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "Bolts M6", report.Items[0].ProductName)
	assert.Equal(t, "box", report.Items[0].Unit)
	assert.Equal(t, "Fasteners", report.Items[0].SectionName)
}

func TestStock_DegradesWhenCatalogFails(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "3", "5"),
	}}
	svc := NewService(repo, &fakeCatalog{err: errors.New("portal down")})

	report, err := svc.Stock(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "Bolts", report.Items[0].ProductName)
}

func TestStock_PlaceholderForNamelessProduct(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 999, "", "1", "2"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Stock(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "Removed product", report.Items[0].ProductName)
	assert.Equal(t, "pcs", report.Items[0].Unit)
}

func TestResidues_SortedByProduct(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 300, "C", "1", "1"),
		fact(documents.KindReceipt, day(1), 100, "A", "2", "1"),
		fact(documents.KindReceipt, day(1), 200, "B", "3", "1"),
	}}
	svc := NewService(repo, nil)

	residues, err := svc.Residues(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, residues, 3)
	assert.Equal(t, int64(100), residues[0].ProductID)
	assert.Equal(t, int64(200), residues[1].ProductID)
	assert.Equal(t, int64(300), residues[2].ProductID)
}

func TestSales_MarkupFromMovingAverageCost(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "10", "5"),
		fact(documents.KindPosting, day(2), 101, "Bolts", "10", "7"),
		fact(documents.KindSalesInvoice, day(5), 101, "Bolts", "5", "10"),
	}}
	catalog := &fakeCatalog{products: map[int64]crm.ProductInfo{
		101: {ID: 101, Name: "Bolts", Unit: "pcs", Price: types.MustQuantity("10")},
	}}
	svc := NewService(repo, catalog)

	report, err := svc.Sales(context.Background(), SalesFilter{
		StoreID:  id.New(),
		DateFrom: day(4),
		DateTo:   day(6),
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	// avg cost (10*5 + 10*7) / 20 = 6
	item := report.Items[0]
	assert.True(t, item.RetailPrice.Equal(types.MustQuantity("10")))
	assert.True(t, item.Revenue.Equal(types.MustQuantity("50")))
	assert.True(t, item.Cost.Equal(types.MustQuantity("30")))
	assert.True(t, item.Profit.Equal(types.MustQuantity("20")))
	assert.True(t, item.MarkupPercent.Equal(types.MustQuantity("66.67")), "got %s", item.MarkupPercent)

	assert.True(t, report.TotalRevenue.Equal(types.MustQuantity("50")))
	assert.True(t, report.TotalCost.Equal(types.MustQuantity("30")))
	assert.True(t, report.TotalProfit.Equal(types.MustQuantity("20")))
}

func TestSales_RevenueUsesCatalogPriceNotLinePrice(t *testing.T) {
	// The invoice line carries the price agreed at sale time; revenue
	// in the report is priced at the current catalog retail price.
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindSalesInvoice, day(5), 101, "Bolts", "5", "10"),
	}}
	catalog := &fakeCatalog{products: map[int64]crm.ProductInfo{
		101: {ID: 101, Name: "Bolts", Unit: "pcs", Price: types.MustQuantity("12")},
	}}
	svc := NewService(repo, catalog)

	report, err := svc.Sales(context.Background(), SalesFilter{
		StoreID:  id.New(),
		DateFrom: day(4),
		DateTo:   day(6),
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	assert.True(t, item.RetailPrice.Equal(types.MustQuantity("12")))
	assert.True(t, item.Revenue.Equal(types.MustQuantity("60")), "got %s", item.Revenue)
	assert.True(t, report.TotalRevenue.Equal(types.MustQuantity("60")))
}

func TestSales_UnresolvableProductSellsAtZero(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindSalesInvoice, day(5), 101, "Bolts", "2", "10"),
	}}
	svc := NewService(repo, &fakeCatalog{err: errors.New("portal down")})

	report, err := svc.Sales(context.Background(), SalesFilter{
		StoreID:  id.New(),
		DateFrom: day(4),
		DateTo:   day(6),
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].RetailPrice.IsZero())
	assert.True(t, report.Items[0].Revenue.IsZero())
}

func TestSales_ZeroMarkupWithoutInboundHistory(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindSalesInvoice, day(5), 101, "Bolts", "2", "10"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Sales(context.Background(), SalesFilter{
		StoreID:  id.New(),
		DateFrom: day(4),
		DateTo:   day(6),
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].Cost.IsZero())
	assert.True(t, report.Items[0].MarkupPercent.IsZero())
}

func TestSales_RequiresWindow(t *testing.T) {
	svc := NewService(&fakeReportRepo{}, nil)

	_, err := svc.Sales(context.Background(), SalesFilter{StoreID: id.New()})
	require.Error(t, err)

	_, err = svc.Sales(context.Background(), SalesFilter{
		StoreID:  id.New(),
		DateFrom: day(6),
		DateTo:   day(4),
	})
	require.Error(t, err)
}

func TestMovement_OpeningIsStrictlyBeforeWindow(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "10", "5"),
		fact(documents.KindSalesInvoice, day(2), 101, "Bolts", "3", "9"),
		fact(documents.KindReceipt, day(4), 101, "Bolts", "5", "6"),
		fact(documents.KindWriteOffAct, day(5), 101, "Bolts", "2", "0"),
		fact(documents.KindReceipt, day(9), 101, "Bolts", "100", "1"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Movement(context.Background(), MovementFilter{
		StoreID:   id.New(),
		ProductID: 101,
		From:      day(4),
		To:        day(6),
	})
	require.NoError(t, err)

	// 10 in - 3 out before the window.
	assert.True(t, report.OpeningBalance.Equal(types.MustQuantity("7")))

	require.Len(t, report.Movements, 2)
	first, second := report.Movements[0], report.Movements[1]

	assert.Equal(t, documents.KindReceipt, first.Kind)
	assert.Equal(t, "Inbound", first.Direction)
	assert.True(t, first.Balance.Equal(types.MustQuantity("12")))

	assert.Equal(t, documents.KindWriteOffAct, second.Kind)
	assert.Equal(t, "Outbound", second.Direction)
	assert.True(t, second.Balance.Equal(types.MustQuantity("10")))

	assert.True(t, report.ClosingBalance.Equal(types.MustQuantity("10")))
	assert.Equal(t, "Bolts", report.ProductName)
}

func TestMovement_OneRowPerDocument(t *testing.T) {
	// A receipt carrying the same product on two lines shows up as a
	// single movement with the quantities summed and the first line's
	// price.
	receipt := fact(documents.KindReceipt, day(4), 101, "Bolts", "3", "5")
	secondLine := receipt
	secondLine.Quantity = types.MustQuantity("2")
	secondLine.UnitPrice = types.MustQuantity("6")

	repo := &fakeReportRepo{facts: []LineFact{
		receipt,
		secondLine,
		fact(documents.KindSalesInvoice, day(5), 101, "Bolts", "4", "9"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Movement(context.Background(), MovementFilter{
		StoreID:   id.New(),
		ProductID: 101,
		From:      day(3),
		To:        day(6),
	})
	require.NoError(t, err)
	require.Len(t, report.Movements, 2)

	grouped := report.Movements[0]
	assert.Equal(t, receipt.DocumentID, grouped.DocumentID)
	assert.True(t, grouped.Quantity.Equal(types.MustQuantity("5")))
	assert.True(t, grouped.UnitPrice.Equal(types.MustQuantity("5")))
	assert.True(t, grouped.Balance.Equal(types.MustQuantity("5")))

	assert.True(t, report.Movements[1].Balance.Equal(types.MustQuantity("1")))
	assert.True(t, report.ClosingBalance.Equal(types.MustQuantity("1")))
}

func TestMovement_EmptyWindowKeepsOpeningAsClosing(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "4", "5"),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Movement(context.Background(), MovementFilter{
		StoreID:   id.New(),
		ProductID: 101,
		From:      day(10),
		To:        day(12),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Movements)
	assert.True(t, report.OpeningBalance.Equal(types.MustQuantity("4")))
	assert.True(t, report.ClosingBalance.Equal(types.MustQuantity("4")))
	// Name comes from the placeholder when the window carries no lines
	// and no catalog is configured.
	assert.Equal(t, "Removed product", report.ProductName)
}

func TestPrices_CatalogFailureIsFatal(t *testing.T) {
	svc := NewService(&fakeReportRepo{}, &fakeCatalog{err: errors.New("portal down")})

	_, err := svc.Prices(context.Background(), StockFilter{StoreID: id.New()})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCRMUnavailable, appErr.Code)
}

func TestPrices_JoinsCatalogWithAverageCost(t *testing.T) {
	repo := &fakeReportRepo{facts: []LineFact{
		fact(documents.KindReceipt, day(1), 101, "Bolts", "10", "5"),
		fact(documents.KindReceipt, day(2), 101, "Bolts", "10", "7"),
	}}
	catalog := &fakeCatalog{products: map[int64]crm.ProductInfo{
		101: {ID: 101, Name: "Bolts M6", Unit: "pcs", Price: types.MustQuantity("12"), SectionName: "Fasteners"},
		102: {ID: 102, Name: "Screws", Unit: "pcs", Price: types.MustQuantity("3")},
	}}
	svc := NewService(repo, catalog)

	report, err := svc.Prices(context.Background(), StockFilter{StoreID: id.New()})
	require.NoError(t, err)
	require.Len(t, report.Items, 2)

	var bolts, screws *PriceItem
	for i := range report.Items {
		switch report.Items[i].ProductID {
		case 101:
			bolts = &report.Items[i]
		case 102:
			screws = &report.Items[i]
		}
	}
	require.NotNil(t, bolts)
	require.NotNil(t, screws)

	assert.True(t, bolts.SalePrice.Equal(types.MustQuantity("12")))
	assert.True(t, bolts.AvgCost.Equal(types.MustQuantity("6")))
	assert.True(t, screws.AvgCost.IsZero())
}

package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/crm"
	"stockdocs/internal/domain/documents"
	"stockdocs/internal/domain/stock"
	"stockdocs/pkg/logger"
)

// Service generates reports by replaying posted document lines.
type Service struct {
	repo    Repository
	catalog crm.Catalog
}

// NewService creates a reports service. The catalog may be nil, in
// which case product names come from the stored lines only.
func NewService(repo Repository, catalog crm.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// productAgg accumulates one product's movement history.
type productAgg struct {
	name    string
	unit    string
	balance types.Quantity
	qtyIn   types.Quantity
	costIn  types.Money
}

// avgCost is the moving-average inbound cost, zero when nothing was
// ever received.
func (a *productAgg) avgCost() types.Money {
	if !a.qtyIn.IsPositive() {
		return types.Zero()
	}
	return a.costIn.Div(a.qtyIn)
}

func (a *productAgg) add(f LineFact) {
	if a.name == "" {
		a.name = f.ProductName
	}
	if a.unit == "" {
		a.unit = f.Unit
	}
	switch f.Kind.Direction() {
	case stock.Inbound:
		a.balance = a.balance.Add(f.Quantity)
		a.qtyIn = a.qtyIn.Add(f.Quantity)
		a.costIn = a.costIn.Add(f.Quantity.Mul(f.UnitPrice))
	case stock.Outbound:
		a.balance = a.balance.Sub(f.Quantity)
	}
}

func aggregate(facts []LineFact) map[int64]*productAgg {
	out := make(map[int64]*productAgg)
	for _, f := range facts {
		agg, ok := out[f.ProductID]
		if !ok {
			agg = &productAgg{
				balance: types.Zero(),
				qtyIn:   types.Zero(),
				costIn:  types.Zero(),
			}
			out[f.ProductID] = agg
		}
		agg.add(f)
	}
	return out
}

// productsInfo resolves catalog data for the given ids, falling back
// to empty info when the CRM cannot be reached. Reports degrade to
// stored line names rather than fail.
func (s *Service) productsInfo(ctx context.Context, ids []int64) map[int64]crm.ProductInfo {
	if s.catalog == nil || len(ids) == 0 {
		return map[int64]crm.ProductInfo{}
	}
	info, err := s.catalog.ProductsInfo(ctx, ids)
	if err != nil {
		logger.Warn(ctx, "catalog lookup failed, using stored product names", "error", err)
		return map[int64]crm.ProductInfo{}
	}
	return info
}

// Stock builds the balance report for a store as of a point in time
// with the moving-average cost per product.
func (s *Service) Stock(ctx context.Context, filter StockFilter) (*StockReport, error) {
	asOf := time.Now().UTC()
	if filter.AsOf != nil {
		asOf = *filter.AsOf
	}

	facts, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID:     filter.StoreID,
		ConductedTo: &asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("read posted lines: %w", err)
	}

	aggs := aggregate(facts)

	ids := make([]int64, 0, len(aggs))
	for pid := range aggs {
		ids = append(ids, pid)
	}
	info := s.productsInfo(ctx, ids)

	report := &StockReport{
		StoreID:   filter.StoreID,
		AsOf:      asOf,
		Items:     make([]StockItem, 0, len(aggs)),
		TotalCost: types.Zero(),
	}

	for pid, agg := range aggs {
		qty := types.RoundQuantity(agg.balance)
		if qty.IsZero() && !filter.IncludeZero {
			continue
		}

		item := StockItem{
			ProductID:   pid,
			ProductName: agg.name,
			Unit:        agg.unit,
			Quantity:    qty,
			AvgCost:     types.RoundMoney(agg.avgCost()),
		}
		if pi, ok := info[pid]; ok {
			item.ProductName = pi.Name
			item.Unit = pi.Unit
			item.SectionName = pi.SectionName
		} else if item.ProductName == "" {
			ph := crm.PlaceholderProduct(pid)
			item.ProductName = ph.Name
			item.Unit = ph.Unit
		}
		item.TotalCost = types.RoundMoney(qty.Mul(agg.avgCost()))

		report.TotalCost = report.TotalCost.Add(item.TotalCost)
		report.Items = append(report.Items, item)
	}

	sortBySectionAndName(report.Items, func(it StockItem) (string, string) {
		return it.SectionName, it.ProductName
	})

	return report, nil
}

// Residues returns bare nonzero balances per product, the cheap view
// for availability checks.
func (s *Service) Residues(ctx context.Context, filter StockFilter) ([]Residue, error) {
	asOf := time.Now().UTC()
	if filter.AsOf != nil {
		asOf = *filter.AsOf
	}

	facts, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID:     filter.StoreID,
		ConductedTo: &asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("read posted lines: %w", err)
	}

	aggs := aggregate(facts)

	out := make([]Residue, 0, len(aggs))
	for pid, agg := range aggs {
		qty := types.RoundQuantity(agg.balance)
		if qty.IsZero() && !filter.IncludeZero {
			continue
		}
		out = append(out, Residue{ProductID: pid, Quantity: qty})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Sales builds the sales and profitability report. Quantities come
// from posted sales invoices in the document-date window; revenue is
// priced off the current catalog retail price, and cost is
// moving-average over all inbound history up to the window end.
func (s *Service) Sales(ctx context.Context, filter SalesFilter) (*SalesReport, error) {
	if filter.DateFrom.IsZero() || filter.DateTo.IsZero() {
		return nil, apperror.NewValidation("dateFrom and dateTo are required")
	}
	if filter.DateFrom.After(filter.DateTo) {
		return nil, apperror.NewValidation("dateFrom must not be after dateTo")
	}

	sold, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID:     filter.StoreID,
		Kinds:       []documents.Kind{documents.KindSalesInvoice},
		DocDateFrom: &filter.DateFrom,
		DocDateTo:   &filter.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("read sales lines: %w", err)
	}

	inbound, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID:     filter.StoreID,
		Kinds:       []documents.Kind{documents.KindReceipt, documents.KindPosting},
		ConductedTo: &filter.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("read inbound lines: %w", err)
	}
	costAggs := aggregate(inbound)

	type salesAgg struct {
		name string
		unit string
		qty  types.Quantity
	}
	sales := make(map[int64]*salesAgg)
	for _, f := range sold {
		agg, ok := sales[f.ProductID]
		if !ok {
			agg = &salesAgg{name: f.ProductName, unit: f.Unit, qty: types.Zero()}
			sales[f.ProductID] = agg
		}
		agg.qty = agg.qty.Add(f.Quantity)
	}

	ids := make([]int64, 0, len(sales))
	for pid := range sales {
		ids = append(ids, pid)
	}
	info := s.productsInfo(ctx, ids)

	report := &SalesReport{
		StoreID:      filter.StoreID,
		DateFrom:     filter.DateFrom,
		DateTo:       filter.DateTo,
		Items:        make([]SalesItem, 0, len(sales)),
		TotalRevenue: types.Zero(),
		TotalCost:    types.Zero(),
		TotalProfit:  types.Zero(),
	}

	hundred := decimal.NewFromInt(100)

	for pid, agg := range sales {
		avgCost := types.Zero()
		if ca, ok := costAggs[pid]; ok {
			avgCost = ca.avgCost()
		}

		// Revenue is priced at the catalog retail price; products the
		// catalog cannot resolve sell at zero.
		retail := types.Zero()
		if pi, ok := info[pid]; ok {
			retail = pi.Price
		}

		cost := types.RoundMoney(agg.qty.Mul(avgCost))
		revenue := types.RoundMoney(agg.qty.Mul(retail))
		profit := revenue.Sub(cost)

		item := SalesItem{
			ProductID:     pid,
			ProductName:   agg.name,
			Unit:          agg.unit,
			QtySold:       types.RoundQuantity(agg.qty),
			RetailPrice:   types.RoundMoney(retail),
			Revenue:       revenue,
			Cost:          cost,
			Profit:        profit,
			MarkupPercent: types.Zero(),
		}
		if pi, ok := info[pid]; ok {
			item.ProductName = pi.Name
			item.Unit = pi.Unit
			item.SectionName = pi.SectionName
		} else if item.ProductName == "" {
			ph := crm.PlaceholderProduct(pid)
			item.ProductName = ph.Name
			item.Unit = ph.Unit
		}
		if cost.IsPositive() {
			item.MarkupPercent = profit.Div(cost).Mul(hundred).Round(2)
		}

		report.TotalRevenue = report.TotalRevenue.Add(revenue)
		report.TotalCost = report.TotalCost.Add(cost)
		report.TotalProfit = report.TotalProfit.Add(profit)
		report.Items = append(report.Items, item)
	}

	sortBySectionAndName(report.Items, func(it SalesItem) (string, string) {
		return it.SectionName, it.ProductName
	})

	return report, nil
}

// Movement builds the conduction-ordered history of one product: the
// opening balance from everything conducted strictly before the
// window, then each movement inside it with the running balance.
func (s *Service) Movement(ctx context.Context, filter MovementFilter) (*MovementReport, error) {
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, apperror.NewValidation("from and to are required")
	}
	if filter.From.After(filter.To) {
		return nil, apperror.NewValidation("from must not be after to")
	}

	before, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID:         filter.StoreID,
		ProductID:       &filter.ProductID,
		ConductedBefore: &filter.From,
	})
	if err != nil {
		return nil, fmt.Errorf("read opening lines: %w", err)
	}

	opening := types.Zero()
	for _, f := range before {
		opening = opening.Add(f.Quantity.Mul(decimal.NewFromInt(f.Kind.Direction().Sign())))
	}
	opening = types.RoundQuantity(opening)

	window, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID:       filter.StoreID,
		ProductID:     &filter.ProductID,
		ConductedFrom: &filter.From,
		ConductedTo:   &filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("read movement lines: %w", err)
	}

	report := &MovementReport{
		StoreID:        filter.StoreID,
		ProductID:      filter.ProductID,
		From:           filter.From,
		To:             filter.To,
		OpeningBalance: opening,
		Movements:      make([]Movement, 0, len(window)),
	}

	// One movement per contributing document: facts arrive ordered by
	// conduction time then document number, so lines of the same
	// document are contiguous. Quantities sum, the price comes from
	// the first line.
	running := opening
	for i := 0; i < len(window); {
		first := window[i]
		qty := types.Zero()
		j := i
		for ; j < len(window) && window[j].DocumentID == first.DocumentID; j++ {
			qty = qty.Add(window[j].Quantity)
		}
		i = j

		dir := first.Kind.Direction()
		running = running.Add(qty.Mul(decimal.NewFromInt(dir.Sign())))
		running = types.RoundQuantity(running)

		report.Movements = append(report.Movements, Movement{
			DocumentID:  first.DocumentID,
			Kind:        first.Kind,
			DocNumber:   first.DocNumber,
			PartnerName: first.PartnerName,
			ConductedAt: first.ConductedAt,
			Direction:   dir.Label(),
			Quantity:    types.RoundQuantity(qty),
			UnitPrice:   types.RoundMoney(first.UnitPrice),
			Balance:     running,
		})

		if report.ProductName == "" {
			report.ProductName = first.ProductName
			report.Unit = first.Unit
		}
	}
	report.ClosingBalance = running

	if info := s.productsInfo(ctx, []int64{filter.ProductID}); len(info) > 0 {
		if pi, ok := info[filter.ProductID]; ok {
			report.ProductName = pi.Name
			report.Unit = pi.Unit
		}
	}
	if report.ProductName == "" {
		ph := crm.PlaceholderProduct(filter.ProductID)
		report.ProductName = ph.Name
		report.Unit = ph.Unit
	}

	return report, nil
}

// Prices builds the price list: every catalog product with its CRM
// sale price next to the store's moving-average cost. The catalog is
// the source here, so a CRM failure is fatal.
func (s *Service) Prices(ctx context.Context, filter StockFilter) (*PriceReport, error) {
	if s.catalog == nil {
		return nil, apperror.NewCRMUnavailable(fmt.Errorf("catalog not configured"))
	}

	products, err := s.catalog.AllProducts(ctx)
	if err != nil {
		return nil, apperror.NewCRMUnavailable(err)
	}

	inbound, err := s.repo.PostedLines(ctx, LineQuery{
		StoreID: filter.StoreID,
		Kinds:   []documents.Kind{documents.KindReceipt, documents.KindPosting},
	})
	if err != nil {
		return nil, fmt.Errorf("read inbound lines: %w", err)
	}
	costAggs := aggregate(inbound)

	report := &PriceReport{
		StoreID: filter.StoreID,
		Items:   make([]PriceItem, 0, len(products)),
	}

	for _, p := range products {
		avgCost := types.Zero()
		if ca, ok := costAggs[p.ID]; ok {
			avgCost = ca.avgCost()
		}
		report.Items = append(report.Items, PriceItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Unit:        p.Unit,
			SectionName: p.SectionName,
			SalePrice:   types.RoundMoney(p.Price),
			AvgCost:     types.RoundMoney(avgCost),
		})
	}

	sortBySectionAndName(report.Items, func(it PriceItem) (string, string) {
		return it.SectionName, it.ProductName
	})

	return report, nil
}

// sortBySectionAndName orders report rows by catalog section then
// product name.
func sortBySectionAndName[T any](items []T, key func(T) (string, string)) {
	sort.Slice(items, func(i, j int) bool {
		si, ni := key(items[i])
		sj, nj := key(items[j])
		if si != sj {
			return si < sj
		}
		return ni < nj
	})
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/crm"
	"stockdocs/internal/domain/stock"
)

// --- fakes ---

type fakeDocRepo struct {
	docs  map[id.ID]*Document
	lines map[id.ID][]Line
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		docs:  make(map[id.ID]*Document),
		lines: make(map[id.ID][]Line),
	}
}

func (r *fakeDocRepo) Create(_ context.Context, doc *Document) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, kind Kind, docID id.ID) (*Document, error) {
	doc, ok := r.docs[docID]
	if !ok || doc.Kind != kind {
		return nil, apperror.NewNotFound(kind.EntityName(), docID)
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDocRepo) Update(_ context.Context, doc *Document) error {
	stored, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound(doc.Kind.EntityName(), doc.ID)
	}
	// Same contract as the SQL repository: the update matches the
	// version the caller loaded and advances it by one.
	if stored.Version != doc.Version {
		return apperror.NewConflict(fmt.Sprintf("%s %s was modified concurrently", doc.Kind.EntityName(), doc.ID))
	}
	cp := *doc
	cp.Version = doc.Version + 1
	r.docs[doc.ID] = &cp
	doc.Version++
	return nil
}

func (r *fakeDocRepo) Delete(_ context.Context, kind Kind, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok || doc.Kind != kind {
		return apperror.NewNotFound(kind.EntityName(), docID)
	}
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *fakeDocRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *fakeDocRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = lines
	return nil
}

func (r *fakeDocRepo) List(_ context.Context, kind Kind, _ ListFilter) (ListResult, error) {
	var out []*Document
	for _, doc := range r.docs {
		if doc.Kind == kind {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return ListResult{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeDocRepo) LastReceiptPrice(_ context.Context, _, _ int64) (types.Money, bool, error) {
	return types.Zero(), false, nil
}

// fakeBalances serves static posted sums, minus the excluded
// document's contribution when requested.
type fakeBalances struct {
	in  map[int64]string
	out map[int64]string

	excludeDoc id.ID
	docIn      map[int64]string
}

func (r *fakeBalances) SumPostedQuantity(_ context.Context, direction stock.Direction, f stock.SumFilter) (types.Quantity, error) {
	m := r.in
	if direction == stock.Outbound {
		m = r.out
	}
	sum := types.Zero()
	if v, ok := m[f.ProductID]; ok {
		sum = types.MustQuantity(v)
	}
	if direction == stock.Inbound && f.ExcludeDocumentID != nil && *f.ExcludeDocumentID == r.excludeDoc {
		if v, ok := r.docIn[f.ProductID]; ok {
			sum = sum.Sub(types.MustQuantity(v))
		}
	}
	return sum, nil
}

type fakeDeals struct {
	stage string
	err   error
}

func (d *fakeDeals) DealStage(_ context.Context, _ int64) (string, error) {
	return d.stage, d.err
}

// fakeTx runs callbacks directly, no transaction semantics.
type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (fakeTx) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeNumberer struct{ n int }

func (f *fakeNumberer) NextNumber(_ context.Context, kind Kind, year int) (string, error) {
	f.n++
	return fmt.Sprintf("%s-%d-%05d", kind, year, f.n), nil
}

func newTestService(kind Kind, repo *fakeDocRepo, balances *fakeBalances, deals crm.Deals) *Service {
	validator := stock.NewValidator(stock.NewCalculator(balances))
	return NewService(kind, repo, validator, deals, crm.DefaultStageConfig(), fakeTx{}, &fakeNumberer{})
}

func draftSalesInvoice(storeID id.ID, qty string) *Document {
	doc := New(KindSalesInvoice, storeID)
	doc.AddLine(101, "Bolts", types.MustQuantity(qty), "pcs", types.MustQuantity("10"), 0)
	return doc
}

// --- tests ---

func TestCreate_DraftHasNoConductionTimestamp(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{}, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))

	stored := repo.docs[doc.ID]
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Nil(t, stored.ConductedAt)
	assert.NotEmpty(t, stored.Number)
}

func TestCreate_PostedRunsHardCheck(t *testing.T) {
	repo := newFakeDocRepo()
	balances := &fakeBalances{in: map[int64]string{101: "4"}}
	svc := newTestService(KindSalesInvoice, repo, balances, nil)

	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted

	err := svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Empty(t, repo.docs)
}

func TestCreate_PostedSetsConductionTimestamp(t *testing.T) {
	repo := newFakeDocRepo()
	balances := &fakeBalances{in: map[int64]string{101: "10"}}
	svc := newTestService(KindSalesInvoice, repo, balances, nil)

	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted

	require.NoError(t, svc.Create(context.Background(), doc))

	stored := repo.docs[doc.ID]
	assert.Equal(t, StatusPosted, stored.Status)
	require.NotNil(t, stored.ConductedAt)
}

func TestCreate_InboundNeedsNoStock(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindReceipt, repo, &fakeBalances{}, nil)

	doc := New(KindReceipt, id.New())
	doc.Status = StatusPosted
	doc.AddLine(101, "Bolts", types.MustQuantity("100"), "pcs", types.MustQuantity("3"), 0)

	require.NoError(t, svc.Create(context.Background(), doc))
}

func TestUpdate_ConductDraft(t *testing.T) {
	repo := newFakeDocRepo()
	balances := &fakeBalances{in: map[int64]string{101: "10"}}
	svc := newTestService(KindSalesInvoice, repo, balances, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))

	posted := string(StatusPosted)
	result, err := svc.Update(context.Background(), doc.ID, Patch{Status: &posted})
	require.NoError(t, err)

	assert.Equal(t, StatusPosted, result.Document.Status)
	require.NotNil(t, result.Document.ConductedAt)
	assert.Empty(t, result.Warnings)
}

func TestUpdate_ConductRejectedOnOverdraw(t *testing.T) {
	repo := newFakeDocRepo()
	balances := &fakeBalances{in: map[int64]string{101: "3"}}
	svc := newTestService(KindSalesInvoice, repo, balances, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))

	posted := string(StatusPosted)
	_, err := svc.Update(context.Background(), doc.ID, Patch{Status: &posted})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Document stays a draft.
	assert.Equal(t, StatusDraft, repo.docs[doc.ID].Status)
}

func TestUpdate_UnpostReturnsWarningsAndProceeds(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindReceipt, repo, &fakeBalances{}, nil)

	doc := New(KindReceipt, id.New())
	doc.Status = StatusPosted
	doc.AddLine(101, "Bolts", types.MustQuantity("10"), "pcs", types.MustQuantity("4"), 0)
	require.NoError(t, svc.Create(context.Background(), doc))

	// Consumers already took 8 of the 10 this receipt brought in.
	balances := &fakeBalances{
		in:         map[int64]string{101: "10"},
		out:        map[int64]string{101: "8"},
		excludeDoc: doc.ID,
		docIn:      map[int64]string{101: "10"},
	}
	svc = newTestService(KindReceipt, repo, balances, nil)

	draft := string(StatusDraft)
	result, err := svc.Update(context.Background(), doc.ID, Patch{Status: &draft})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, result.Document.Status)
	assert.Nil(t, result.Document.ConductedAt)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, int64(101), result.Warnings[0].ID)
}

func TestUpdate_UnpostBlockedByWonDeal(t *testing.T) {
	repo := newFakeDocRepo()
	deals := &fakeDeals{stage: "C72:WON"}
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{in: map[int64]string{101: "10"}}, deals)

	dealID := int64(42)
	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted
	doc.ExternalDealID = &dealID
	require.NoError(t, svc.Create(context.Background(), doc))

	draft := string(StatusDraft)
	_, err := svc.Update(context.Background(), doc.ID, Patch{Status: &draft})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDealStageLocked, appErr.Code)
	assert.Contains(t, appErr.Message, "won")
}

func TestUpdate_UnpostBlockedByInProgressDeal(t *testing.T) {
	repo := newFakeDocRepo()
	deals := &fakeDeals{stage: "C72:EXECUTING"}
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{in: map[int64]string{101: "10"}}, deals)

	dealID := int64(42)
	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted
	doc.ExternalDealID = &dealID
	require.NoError(t, svc.Create(context.Background(), doc))

	draft := string(StatusDraft)
	_, err := svc.Update(context.Background(), doc.ID, Patch{Status: &draft})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDealStageLocked, appErr.Code)
	assert.Contains(t, appErr.Message, "in progress")
}

func TestUpdate_UnpostAllowedInNewStage(t *testing.T) {
	repo := newFakeDocRepo()
	deals := &fakeDeals{stage: "C72:NEW"}
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{in: map[int64]string{101: "10"}}, deals)

	dealID := int64(42)
	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted
	doc.ExternalDealID = &dealID
	require.NoError(t, svc.Create(context.Background(), doc))

	draft := string(StatusDraft)
	result, err := svc.Update(context.Background(), doc.ID, Patch{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, result.Document.Status)
}

func TestUpdate_CRMFailureIsFatal(t *testing.T) {
	repo := newFakeDocRepo()
	deals := &fakeDeals{err: errors.New("portal unreachable")}
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{in: map[int64]string{101: "10"}}, deals)

	dealID := int64(42)
	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted
	doc.ExternalDealID = &dealID
	require.NoError(t, svc.Create(context.Background(), doc))

	draft := string(StatusDraft)
	_, err := svc.Update(context.Background(), doc.ID, Patch{Status: &draft})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCRMUnavailable, appErr.Code)

	// Transition did not happen.
	assert.Equal(t, StatusPosted, repo.docs[doc.ID].Status)
}

func TestUpdate_ArbitraryStatusStoredWithoutStockCheck(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{}, nil)

	doc := draftSalesInvoice(id.New(), "500")
	require.NoError(t, svc.Create(context.Background(), doc))

	custom := "Awaiting approval"
	result, err := svc.Update(context.Background(), doc.ID, Patch{Status: &custom})
	require.NoError(t, err)
	assert.Equal(t, Status(custom), result.Document.Status)
	assert.Nil(t, result.Document.ConductedAt)
}

func TestUpdate_AdvancesVersionOnEachSave(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{in: map[int64]string{101: "10"}}, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))
	assert.Equal(t, 1, repo.docs[doc.ID].Version)

	// Consecutive updates each load the stored version and advance it.
	posted := string(StatusPosted)
	result, err := svc.Update(context.Background(), doc.ID, Patch{Status: &posted})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Document.Version)

	draft := string(StatusDraft)
	result, err = svc.Update(context.Background(), doc.ID, Patch{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Document.Version)
}

func TestUpdate_StaleVersionConflicts(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{}, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))

	// Another writer advanced the document behind our back.
	repo.docs[doc.ID].Version++

	stale := *repo.docs[doc.ID]
	stale.Version--
	err := repo.Update(context.Background(), &stale)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestUpdate_ReplacesLines(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{}, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))

	newLines := []Line{
		{ExternalProductID: 200, ProductName: "Screws", Quantity: types.MustQuantity("3"), UnitPrice: types.MustQuantity("2")},
		{ExternalProductID: 201, ProductName: "Anchors", Quantity: types.MustQuantity("7"), UnitPrice: types.MustQuantity("4")},
	}
	result, err := svc.Update(context.Background(), doc.ID, Patch{Lines: newLines})
	require.NoError(t, err)

	require.Len(t, result.Document.Lines, 2)
	assert.Equal(t, newLines, repo.lines[doc.ID])
}

func TestDelete_PostedWithDealGuard(t *testing.T) {
	repo := newFakeDocRepo()
	deals := &fakeDeals{stage: "C72:WON"}
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{in: map[int64]string{101: "10"}}, deals)

	dealID := int64(7)
	doc := draftSalesInvoice(id.New(), "5")
	doc.Status = StatusPosted
	doc.ExternalDealID = &dealID
	require.NoError(t, svc.Create(context.Background(), doc))

	err := svc.Delete(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Contains(t, repo.docs, doc.ID)
}

func TestDelete_Draft(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(KindSalesInvoice, repo, &fakeBalances{}, nil)

	doc := draftSalesInvoice(id.New(), "5")
	require.NoError(t, svc.Create(context.Background(), doc))

	require.NoError(t, svc.Delete(context.Background(), doc.ID))
	assert.Empty(t, repo.docs)
}

func TestGetByID_WrongKindIsNotFound(t *testing.T) {
	repo := newFakeDocRepo()
	receiptSvc := newTestService(KindReceipt, repo, &fakeBalances{}, nil)
	salesSvc := newTestService(KindSalesInvoice, repo, &fakeBalances{}, nil)

	doc := New(KindReceipt, id.New())
	doc.AddLine(1, "Washers", types.MustQuantity("1"), "pcs", types.MustQuantity("1"), 0)
	require.NoError(t, receiptSvc.Create(context.Background(), doc))

	_, err := salesSvc.GetByID(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

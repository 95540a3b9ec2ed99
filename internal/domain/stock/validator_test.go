package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// fakeStockRepo serves posted sums from in-memory maps. When the
// filter excludes excludeDoc, that document's contribution is removed
// from the sum.
type fakeStockRepo struct {
	in  map[int64]string
	out map[int64]string

	excludeDoc id.ID
	docIn      map[int64]string
	docOut     map[int64]string
}

func (r *fakeStockRepo) SumPostedQuantity(_ context.Context, direction Direction, f SumFilter) (types.Quantity, error) {
	m, dm := r.in, r.docIn
	if direction == Outbound {
		m, dm = r.out, r.docOut
	}

	sum := types.Zero()
	if v, ok := m[f.ProductID]; ok {
		sum = types.MustQuantity(v)
	}
	if f.ExcludeDocumentID != nil && *f.ExcludeDocumentID == r.excludeDoc {
		if v, ok := dm[f.ProductID]; ok {
			sum = sum.Sub(types.MustQuantity(v))
		}
	}
	return sum, nil
}

func newValidator(repo *fakeStockRepo) *Validator {
	return NewValidator(NewCalculator(repo))
}

func TestCheck_OutboundWithinBalance(t *testing.T) {
	repo := &fakeStockRepo{
		in:  map[int64]string{101: "10"},
		out: map[int64]string{101: "4"},
	}
	v := newValidator(repo)

	res, err := v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 101, ProductName: "Bolts", Quantity: types.MustQuantity("6")},
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.NoError(t, res.Err())
}

func TestCheck_OutboundOverdraw(t *testing.T) {
	repo := &fakeStockRepo{
		in:  map[int64]string{101: "10"},
		out: map[int64]string{101: "4"},
	}
	v := newValidator(repo)

	res, err := v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 101, ProductName: "Bolts", Quantity: types.MustQuantity("6.001")},
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)

	checkErr := res.Err()
	require.Error(t, checkErr)
	assert.True(t, apperror.IsInsufficientStock(checkErr))
}

func TestCheck_AggregatesAllFailures(t *testing.T) {
	repo := &fakeStockRepo{
		in: map[int64]string{1: "5", 2: "0", 3: "100"},
	}
	v := newValidator(repo)

	res, err := v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 1, ProductName: "First", Quantity: types.MustQuantity("6")},
		{ProductID: 2, ProductName: "Second", Quantity: types.MustQuantity("1")},
		{ProductID: 3, ProductName: "Third", Quantity: types.MustQuantity("50")},
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, FailedProduct{ID: 1, Name: "First"}, res.Failed[0])
	assert.Equal(t, FailedProduct{ID: 2, Name: "Second"}, res.Failed[1])
}

func TestCheck_RoundingBoundary(t *testing.T) {
	repo := &fakeStockRepo{
		in: map[int64]string{7: "1.0005"},
	}
	v := newValidator(repo)

	// Projected -0.0005 rounds to zero and passes.
	res, err := v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 7, Quantity: types.MustQuantity("1.001")},
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	// Projected -0.0006 is genuinely negative.
	res, err = v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 7, Quantity: types.MustQuantity("1.0011")},
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestCheck_ExcludesDocumentContribution(t *testing.T) {
	docID := id.New()
	repo := &fakeStockRepo{
		in:         map[int64]string{9: "10"},
		out:        map[int64]string{9: "8"},
		excludeDoc: docID,
		docOut:     map[int64]string{9: "8"},
	}
	v := newValidator(repo)

	// Re-conducting the same outbound document for 9 units: the old 8
	// are given back before the check, so balance 10 covers it.
	res, err := v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 9, Quantity: types.MustQuantity("9")},
	}, &docID)
	require.NoError(t, err)
	assert.True(t, res.OK)

	// Without the exclusion only 2 remain.
	res, err = v.Check(context.Background(), id.New(), Outbound, []CandidateLine{
		{ProductID: 9, Quantity: types.MustQuantity("9")},
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestUnpostProbe_WarnsWhenConsumersWouldGoNegative(t *testing.T) {
	docID := id.New()
	repo := &fakeStockRepo{
		in:         map[int64]string{5: "10", 6: "10"},
		out:        map[int64]string{5: "8", 6: "2"},
		excludeDoc: docID,
		docIn:      map[int64]string{5: "10", 6: "5"},
	}
	v := newValidator(repo)

	lines := []CandidateLine{
		{ProductID: 5, ProductName: "Nuts", Quantity: types.MustQuantity("10")},
		{ProductID: 6, ProductName: "Washers", Quantity: types.MustQuantity("5")},
	}

	res, err := v.UnpostProbe(context.Background(), id.New(), lines, docID)
	require.NoError(t, err)

	// Product 5 without the receipt: 0 in, 8 out. Product 6: 5 in, 2 out.
	warnings := res.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(5), warnings[0].ID)
	assert.Equal(t, "Nuts", warnings[0].Name)
}

func TestUnpostProbe_CleanWhenBalanceSurvives(t *testing.T) {
	docID := id.New()
	repo := &fakeStockRepo{
		in:         map[int64]string{5: "20"},
		out:        map[int64]string{5: "8"},
		excludeDoc: docID,
		docIn:      map[int64]string{5: "10"},
	}
	v := newValidator(repo)

	res, err := v.UnpostProbe(context.Background(), id.New(), []CandidateLine{
		{ProductID: 5, Quantity: types.MustQuantity("10")},
	}, docID)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Warnings())
}

package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/stock"
)

func TestKindDirection(t *testing.T) {
	assert.Equal(t, stock.Inbound, KindReceipt.Direction())
	assert.Equal(t, stock.Inbound, KindPosting.Direction())
	assert.Equal(t, stock.Outbound, KindSalesInvoice.Direction())
	assert.Equal(t, stock.Outbound, KindWriteOffAct.Direction())
}

func TestValidate(t *testing.T) {
	valid := func() *Document {
		doc := New(KindReceipt, id.New())
		doc.AddLine(101, "Bolts", types.MustQuantity("1"), "pcs", types.MustQuantity("2"), 0)
		return doc
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, valid().Validate(context.Background()))
	})

	t.Run("missing store", func(t *testing.T) {
		doc := valid()
		doc.StoreID = id.Nil()
		assertValidation(t, doc.Validate(context.Background()))
	})

	t.Run("missing date", func(t *testing.T) {
		doc := valid()
		doc.Date = time.Time{}
		assertValidation(t, doc.Validate(context.Background()))
	})

	t.Run("no lines", func(t *testing.T) {
		doc := New(KindReceipt, id.New())
		assertValidation(t, doc.Validate(context.Background()))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		doc := valid()
		doc.Lines[0].Quantity = types.Zero()
		assertValidation(t, doc.Validate(context.Background()))
	})

	t.Run("negative price", func(t *testing.T) {
		doc := valid()
		doc.Lines[0].UnitPrice = types.MustQuantity("-1")
		assertValidation(t, doc.Validate(context.Background()))
	})

	t.Run("unknown kind", func(t *testing.T) {
		doc := valid()
		doc.Kind = Kind("Shipment")
		assertValidation(t, doc.Validate(context.Background()))
	})
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestMarkConducted_KeepsExistingTimestamp(t *testing.T) {
	doc := New(KindReceipt, id.New())

	first := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	doc.MarkConducted(first)
	require.NotNil(t, doc.ConductedAt)
	assert.Equal(t, first, *doc.ConductedAt)

	// Re-affirming Posted must not shift the conduction time.
	doc.MarkConducted(first.Add(48 * time.Hour))
	assert.Equal(t, first, *doc.ConductedAt)
}

func TestTouch_LeavesVersionToRepository(t *testing.T) {
	doc := New(KindReceipt, id.New())
	require.Equal(t, 1, doc.Version)

	doc.Touch()
	doc.MarkConducted(time.Now().UTC())
	doc.MarkDraft()

	// The repository increments the version together with the matching
	// UPDATE; the model never does.
	assert.Equal(t, 1, doc.Version)
}

func TestMarkDraft_ClearsTimestamp(t *testing.T) {
	doc := New(KindReceipt, id.New())
	doc.MarkConducted(time.Now().UTC())

	doc.MarkDraft()
	assert.Equal(t, StatusDraft, doc.Status)
	assert.Nil(t, doc.ConductedAt)
}

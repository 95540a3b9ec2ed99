package postgres

import (
	"context"
	"fmt"

	"stockdocs/internal/domain/documents"
	"stockdocs/pkg/numerator"
)

const sequencesTable = "document_sequences"

// kindPrefixes are the document number prefixes per kind.
var kindPrefixes = map[documents.Kind]string{
	documents.KindReceipt:      "RCP",
	documents.KindPosting:      "PST",
	documents.KindSalesInvoice: "SLS",
	documents.KindWriteOffAct:  "WOF",
}

// DocumentNumberer implements documents.Numberer with a per-kind,
// per-year sequence.
type DocumentNumberer struct {
	txm *TxManager
	seq *numerator.Service
}

// NewDocumentNumberer creates a document numberer.
func NewDocumentNumberer(txm *TxManager) *DocumentNumberer {
	return &DocumentNumberer{
		txm: txm,
		seq: numerator.New(sequencesTable),
	}
}

// NextNumber returns the next formatted number, e.g. RCP-2026-000042.
func (n *DocumentNumberer) NextNumber(ctx context.Context, kind documents.Kind, year int) (string, error) {
	prefix, ok := kindPrefixes[kind]
	if !ok {
		prefix = "DOC"
	}

	key := fmt.Sprintf("%s_%d", kind, year)
	value, err := n.seq.Next(ctx, n.txm.GetQuerier(ctx), key)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%06d", prefix, year, value), nil
}

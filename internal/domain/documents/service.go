package documents

import (
	"context"
	"fmt"
	"time"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/tx"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/crm"
	"stockdocs/internal/domain/stock"
	"stockdocs/pkg/logger"
)

// Patch carries a partial document update. Nil fields are left
// untouched; a non-nil Lines slice replaces the whole line set.
type Patch struct {
	Number            *string
	Date              *time.Time
	StoreID           *id.ID
	Responsible       *string
	ExternalOrgID     *int64
	ExternalOrgName   *string
	ExternalPartnerID *int64
	PartnerName       *string
	ExternalDealID    *int64
	TotalSum          *types.Money
	Status            *string
	ConductedAt       *time.Time
	Lines             []Line
}

// UpdateResult is the outcome of an update. Warnings list products
// left with a retroactively negative balance by an un-post; the
// transition itself has succeeded.
type UpdateResult struct {
	Document *Document            `json:"document"`
	Warnings []stock.FailedProduct `json:"warnings,omitempty"`
}

// Numberer assigns document numbers to new documents created without
// one.
type Numberer interface {
	NextNumber(ctx context.Context, kind Kind, year int) (string, error)
}

// Service is the lifecycle controller for one document kind. The four
// kinds share this single implementation; only the kind tag (and with
// it the movement direction) differs per instance.
type Service struct {
	kind      Kind
	repo      Repository
	validator *stock.Validator
	deals     crm.Deals
	stages    crm.StageConfig
	txManager tx.Manager
	numbers   Numberer
}

// NewService creates a lifecycle service for the given document kind.
// numbers may be nil, in which case documents keep the number they
// arrive with.
func NewService(
	kind Kind,
	repo Repository,
	validator *stock.Validator,
	deals crm.Deals,
	stages crm.StageConfig,
	txManager tx.Manager,
	numbers Numberer,
) *Service {
	return &Service{
		kind:      kind,
		repo:      repo,
		validator: validator,
		deals:     deals,
		stages:    stages,
		txManager: txManager,
		numbers:   numbers,
	}
}

// Kind returns the document kind this service manages.
func (s *Service) Kind() Kind { return s.kind }

// Create persists a new document. When the requested status is the
// literal Posted value the stock validator runs in hard-fail mode
// inside the same transaction as the write; any line that would drive
// a balance negative rejects the whole document.
func (s *Service) Create(ctx context.Context, doc *Document) error {
	doc.Kind = s.kind

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if !doc.Status.IsPosted() {
		// conductedAt is present iff posted
		doc.ConductedAt = nil
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.persist(ctx, doc)
		})
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		res, err := s.validator.Check(ctx, doc.StoreID, s.kind.Direction(), candidates(doc.Lines), nil)
		if err != nil {
			return fmt.Errorf("validate stock: %w", err)
		}
		if err := res.Err(); err != nil {
			return err
		}

		conductedAt := time.Now().UTC()
		if doc.ConductedAt != nil {
			conductedAt = *doc.ConductedAt
		}
		doc.ConductedAt = nil
		doc.MarkConducted(conductedAt)

		return s.persist(ctx, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "document created",
		"kind", s.kind,
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status,
	)
	return nil
}

func (s *Service) persist(ctx context.Context, doc *Document) error {
	if doc.Number == "" && s.numbers != nil {
		number, err := s.numbers.NextNumber(ctx, s.kind, doc.Date.Year())
		if err != nil {
			return fmt.Errorf("assign number: %w", err)
		}
		doc.Number = number
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
		return fmt.Errorf("save lines: %w", err)
	}
	return nil
}

// GetByID retrieves a document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, s.kind, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves documents of this kind with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.repo.List(ctx, s.kind, filter)
}

// Update applies a partial update, running the stock validator
// according to the detected transition:
//
//	Posted -> Draft   warning-mode probe, proceeds regardless
//	      * -> Posted hard-fail check on the new (or persisted) lines
//	anything else     no stock check
//
// Un-posting a document linked to a CRM deal additionally requires the
// deal to still be in the "new" pipeline stage.
func (s *Service) Update(ctx context.Context, docID id.ID, patch Patch) (*UpdateResult, error) {
	var result *UpdateResult

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetByID(ctx, s.kind, docID)
		if err != nil {
			return err
		}

		requested := cur.Status
		if patch.Status != nil {
			requested = Status(*patch.Status)
		}

		isUnconducting := cur.Status.IsPosted() && requested.IsDraft()
		isConducting := requested.IsPosted()

		var warnings []stock.FailedProduct

		switch {
		case isUnconducting:
			if err := s.checkDealGuard(ctx, cur, "cancel conduction"); err != nil {
				return err
			}

			existing, err := s.repo.GetLines(ctx, docID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}

			probe, err := s.validator.UnpostProbe(ctx, cur.StoreID, candidates(existing), docID)
			if err != nil {
				return fmt.Errorf("unpost probe: %w", err)
			}
			warnings = probe.Warnings()

		case isConducting:
			storeID := cur.StoreID
			if patch.StoreID != nil {
				storeID = *patch.StoreID
			}

			candidate := patch.Lines
			if candidate == nil {
				candidate, err = s.repo.GetLines(ctx, docID)
				if err != nil {
					return fmt.Errorf("get lines: %w", err)
				}
			}

			res, err := s.validator.Check(ctx, storeID, s.kind.Direction(), candidates(candidate), &docID)
			if err != nil {
				return fmt.Errorf("validate stock: %w", err)
			}
			if err := res.Err(); err != nil {
				return err
			}
		}

		s.applyPatch(cur, patch)

		switch {
		case isConducting:
			conductedAt := time.Now().UTC()
			if patch.ConductedAt != nil {
				conductedAt = *patch.ConductedAt
			}
			cur.MarkConducted(conductedAt)
		case isUnconducting:
			cur.MarkDraft()
		case patch.Status != nil:
			// Arbitrary status strings are stored as-is; the two-state
			// invariant still ties the conduction timestamp to Posted.
			cur.Status = requested
			if !requested.IsPosted() {
				cur.ConductedAt = nil
			}
			cur.Touch()
		default:
			cur.Touch()
		}

		if err := s.repo.Update(ctx, cur); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if patch.Lines != nil {
			if err := s.repo.SaveLines(ctx, docID, patch.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			cur.Lines = patch.Lines
		} else {
			lines, err := s.repo.GetLines(ctx, docID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			cur.Lines = lines
		}

		result = &UpdateResult{Document: cur, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Warnings) > 0 {
		logger.Warn(ctx, "un-posting left negative balances",
			"kind", s.kind,
			"id", docID,
			"products", len(result.Warnings),
		)
	}

	return result, nil
}

// Delete removes a document. Draft documents delete unconditionally;
// a posted document linked to a CRM deal is guarded the same way as
// un-posting.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetByID(ctx, s.kind, docID)
		if err != nil {
			return err
		}

		if cur.Status.IsPosted() {
			if err := s.checkDealGuard(ctx, cur, "delete"); err != nil {
				return err
			}
		}

		return s.repo.Delete(ctx, s.kind, docID)
	})
}

// LastProductPrice returns the most recent receipt purchase price for
// a partner/product pair, zero when the pair has no history.
func (s *Service) LastProductPrice(ctx context.Context, partnerID, productID int64) (types.Money, error) {
	price, ok, err := s.repo.LastReceiptPrice(ctx, partnerID, productID)
	if err != nil {
		return types.Zero(), fmt.Errorf("last receipt price: %w", err)
	}
	if !ok {
		return types.Zero(), nil
	}
	return price, nil
}

// checkDealGuard blocks un-post/delete when the linked external deal
// has moved past the "new" pipeline stage. A CRM failure here is
// fatal: silently allowing the operation would break the external
// consistency contract.
func (s *Service) checkDealGuard(ctx context.Context, doc *Document, operation string) error {
	if doc.ExternalDealID == nil {
		return nil
	}
	if s.deals == nil {
		return apperror.NewCRMUnavailable(fmt.Errorf("deal stage resolver not configured"))
	}

	stage, err := s.deals.DealStage(ctx, *doc.ExternalDealID)
	if err != nil {
		return apperror.NewCRMUnavailable(err)
	}

	if stage == s.stages.StageNew {
		return nil
	}

	if stage == s.stages.StageWon {
		return apperror.NewDealStageLocked(
			fmt.Sprintf("cannot %s: linked deal is already in the won stage", operation),
			stage,
		)
	}

	return apperror.NewDealStageLocked(
		fmt.Sprintf("cannot %s: linked deal is already in progress", operation),
		stage,
	)
}

func (s *Service) applyPatch(doc *Document, patch Patch) {
	if patch.Number != nil {
		doc.Number = *patch.Number
	}
	if patch.Date != nil {
		doc.Date = *patch.Date
	}
	if patch.StoreID != nil {
		doc.StoreID = *patch.StoreID
	}
	if patch.Responsible != nil {
		doc.Responsible = *patch.Responsible
	}
	if patch.ExternalOrgID != nil {
		doc.ExternalOrgID = *patch.ExternalOrgID
	}
	if patch.ExternalOrgName != nil {
		doc.ExternalOrgName = *patch.ExternalOrgName
	}
	if patch.ExternalPartnerID != nil {
		doc.ExternalPartnerID = patch.ExternalPartnerID
	}
	if patch.PartnerName != nil {
		doc.PartnerName = *patch.PartnerName
	}
	if patch.ExternalDealID != nil {
		doc.ExternalDealID = patch.ExternalDealID
	}
	if patch.TotalSum != nil {
		doc.TotalSum = *patch.TotalSum
	}
}

// candidates converts document lines into validator candidate lines.
func candidates(lines []Line) []stock.CandidateLine {
	out := make([]stock.CandidateLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, stock.CandidateLine{
			ProductID:   l.ExternalProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
		})
	}
	return out
}

package dto

import (
	"time"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/documents"
)

// LineRequest is one tabular line in a document payload.
type LineRequest struct {
	ExternalProductID int64          `json:"externalProductId" binding:"required"`
	ProductName       string         `json:"productName"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	Unit              string         `json:"unit"`
	UnitPrice         types.Money    `json:"unitPrice"`
	LocationCount     int            `json:"locationCount"`
}

func (r LineRequest) toModel() documents.Line {
	return documents.Line{
		ExternalProductID: r.ExternalProductID,
		ProductName:       r.ProductName,
		Quantity:          r.Quantity,
		Unit:              r.Unit,
		UnitPrice:         r.UnitPrice,
		LocationCount:     r.LocationCount,
	}
}

// CreateDocumentRequest is the create payload shared by all four
// document kinds; the kind comes from the route.
type CreateDocumentRequest struct {
	Number            string        `json:"documentNumber"`
	Date              time.Time     `json:"documentDate" binding:"required"`
	Status            string        `json:"status"`
	ConductedAt       *time.Time    `json:"conductedAt"`
	StoreID           string        `json:"storeId" binding:"required"`
	Responsible       string        `json:"responsible"`
	ExternalOrgID     int64         `json:"externalOrgId"`
	ExternalOrgName   string        `json:"externalOrgName"`
	ExternalPartnerID *int64        `json:"externalPartnerId"`
	PartnerName       string        `json:"partnerName"`
	ExternalDealID    *int64        `json:"externalDealId"`
	TotalSum          types.Money   `json:"totalSum"`
	Lines             []LineRequest `json:"lines" binding:"required,min=1"`
}

// ToModel converts the request into a new domain document.
func (r CreateDocumentRequest) ToModel(kind documents.Kind) (*documents.Document, error) {
	storeID, err := id.Parse(r.StoreID)
	if err != nil {
		return nil, err
	}

	doc := documents.New(kind, storeID)
	doc.Number = r.Number
	doc.Date = r.Date
	doc.ConductedAt = r.ConductedAt
	doc.Responsible = r.Responsible
	doc.ExternalOrgID = r.ExternalOrgID
	doc.ExternalOrgName = r.ExternalOrgName
	doc.ExternalPartnerID = r.ExternalPartnerID
	doc.PartnerName = r.PartnerName
	doc.ExternalDealID = r.ExternalDealID
	doc.TotalSum = r.TotalSum
	if r.Status != "" {
		doc.Status = documents.Status(r.Status)
	}

	for _, line := range r.Lines {
		doc.Lines = append(doc.Lines, line.toModel())
	}

	return doc, nil
}

// UpdateDocumentRequest is the partial update payload. Absent fields
// stay untouched; a present lines array replaces the whole set.
type UpdateDocumentRequest struct {
	Number            *string        `json:"documentNumber"`
	Date              *time.Time     `json:"documentDate"`
	Status            *string        `json:"status"`
	ConductedAt       *time.Time     `json:"conductedAt"`
	StoreID           *string        `json:"storeId"`
	Responsible       *string        `json:"responsible"`
	ExternalOrgID     *int64         `json:"externalOrgId"`
	ExternalOrgName   *string        `json:"externalOrgName"`
	ExternalPartnerID *int64         `json:"externalPartnerId"`
	PartnerName       *string        `json:"partnerName"`
	ExternalDealID    *int64         `json:"externalDealId"`
	TotalSum          *types.Money   `json:"totalSum"`
	Lines             []LineRequest  `json:"lines"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateDocumentRequest) ToPatch() (documents.Patch, error) {
	patch := documents.Patch{
		Number:            r.Number,
		Date:              r.Date,
		Status:            r.Status,
		ConductedAt:       r.ConductedAt,
		Responsible:       r.Responsible,
		ExternalOrgID:     r.ExternalOrgID,
		ExternalOrgName:   r.ExternalOrgName,
		ExternalPartnerID: r.ExternalPartnerID,
		PartnerName:       r.PartnerName,
		ExternalDealID:    r.ExternalDealID,
		TotalSum:          r.TotalSum,
	}

	if r.StoreID != nil {
		storeID, err := id.Parse(*r.StoreID)
		if err != nil {
			return documents.Patch{}, err
		}
		patch.StoreID = &storeID
	}

	if r.Lines != nil {
		patch.Lines = make([]documents.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			patch.Lines = append(patch.Lines, line.toModel())
		}
	}

	return patch, nil
}

// ListDocumentsQuery binds document listing filters.
type ListDocumentsQuery struct {
	Status        string     `form:"status"`
	StoreID       string     `form:"storeId"`
	DateFrom      *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo        *time.Time `form:"dateTo" time_format:"2006-01-02"`
	ConductedFrom *time.Time `form:"conductedFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	ConductedTo   *time.Time `form:"conductedTo" time_format:"2006-01-02T15:04:05Z07:00"`
	Search        string     `form:"search"`
	Limit         int        `form:"limit"`
	Offset        int        `form:"offset"`
}

// ToFilter converts the query into a domain filter.
func (q ListDocumentsQuery) ToFilter() (documents.ListFilter, error) {
	filter := documents.ListFilter{
		Status:        q.Status,
		DateFrom:      q.DateFrom,
		DateTo:        q.DateTo,
		ConductedFrom: q.ConductedFrom,
		ConductedTo:   q.ConductedTo,
		Search:        q.Search,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}

	if q.StoreID != "" {
		storeID, err := id.Parse(q.StoreID)
		if err != nil {
			return documents.ListFilter{}, err
		}
		filter.StoreID = &storeID
	}

	return filter, nil
}

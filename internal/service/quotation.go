package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/Dan9191/quotation-service/internal/repository"
)

// QuotationStore persists quotations.
type QuotationStore interface {
	ListQuotations(ctx context.Context) ([]models.Quotation, error)
	CreateQuotation(ctx context.Context, q *models.Quotation) (int64, error)
	UpdateQuotation(ctx context.Context, id int64, patch models.QuotationPatch) error
	UpdateQuotationStatus(ctx context.Context, id int64, status string) error
	DeleteQuotation(ctx context.Context, id int64) error
}

var (
	errQuotationNotFound = errs.NotFound("Quotation not found")
	errInvalidStatus     = errs.Validation("Invalid status value. Must be one of: pending, approved, rejected")
	errNegativeAmount    = errs.Validation("total_amount must not be negative")
	errAmountTooLarge    = errs.Validation("total_amount must not exceed 99999999.99")
)

// CreateQuotationInput is a new quotation request.
type CreateQuotationInput struct {
	CustomerName string          `json:"customer_name"`
	Items        json.RawMessage `json:"items"`
	TotalAmount  *float64        `json:"total_amount"`
	Status       string          `json:"status"`
}

// ListQuotations returns every quotation, newest first
func (s *Service) ListQuotations(ctx context.Context) ([]models.Quotation, error) {
	qs, err := s.quotes.ListQuotations(ctx)
	if err != nil {
		return nil, errs.Internal("Database error", err)
	}
	s.log.Debugf("Fetched %d quotations", len(qs))
	return qs, nil
}

// CreateQuotation validates in and stores it, defaulting status to pending
func (s *Service) CreateQuotation(ctx context.Context, in CreateQuotationInput) (int64, error) {
	if in.CustomerName == "" || !models.HasJSON(in.Items) || in.TotalAmount == nil {
		return 0, errs.Validation("Missing required fields: customer_name, items, or total_amount")
	}
	if err := checkAmount(*in.TotalAmount); err != nil {
		return 0, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.ValidStatus(status) {
		return 0, errInvalidStatus
	}

	q := &models.Quotation{
		CustomerName: in.CustomerName,
		Items:        in.Items,
		TotalAmount:  *in.TotalAmount,
		Status:       status,
	}
	id, err := s.quotes.CreateQuotation(ctx, q)
	if err != nil {
		return 0, errs.Internal("Database error", err)
	}

	s.log.WithField("quotation_id", id).Infof("Quotation created for %s", q.CustomerName)
	return id, nil
}

// UpdateQuotation applies a partial update
func (s *Service) UpdateQuotation(ctx context.Context, id int64, patch models.QuotationPatch) error {
	if patch.Empty() {
		return errs.Validation("No valid fields to update")
	}
	if patch.CustomerName != nil && *patch.CustomerName == "" {
		return errs.Validation("customer_name must not be empty")
	}
	if patch.TotalAmount != nil {
		if err := checkAmount(*patch.TotalAmount); err != nil {
			return err
		}
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return errInvalidStatus
	}

	if err := s.quotes.UpdateQuotation(ctx, id, patch); err != nil {
		return storeError(err)
	}
	s.log.WithField("quotation_id", id).Info("Quotation updated")
	return nil
}

// UpdateQuotationStatus moves a quotation to status
func (s *Service) UpdateQuotationStatus(ctx context.Context, id int64, status string) error {
	if status == "" {
		return errs.Validation("Missing status field in request body")
	}
	if !models.ValidStatus(status) {
		return errInvalidStatus
	}

	if err := s.quotes.UpdateQuotationStatus(ctx, id, status); err != nil {
		return storeError(err)
	}
	s.log.WithField("quotation_id", id).Infof("Quotation status set to %s", status)
	return nil
}

// DeleteQuotation removes a quotation
func (s *Service) DeleteQuotation(ctx context.Context, id int64) error {
	if err := s.quotes.DeleteQuotation(ctx, id); err != nil {
		return storeError(err)
	}
	s.log.WithField("quotation_id", id).Info("Quotation deleted")
	return nil
}

func checkAmount(v float64) error {
	switch {
	case v < 0:
		return errNegativeAmount
	case v > models.MaxTotalAmount:
		return errAmountTooLarge
	}
	return nil
}

func storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errQuotationNotFound
	}
	return errs.Internal("Database error", err)
}

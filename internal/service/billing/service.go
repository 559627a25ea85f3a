package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/repository"
	"github.com/orientmedical/diagnostics-api/internal/service/audit"
)

var oneHundred = decimal.NewFromInt(100)

// Config carries billing-specific settings.
type Config struct {
	InvoiceNumberPrefix string
	Currency            string
}

// Service implements the two-stage billing workflow: invoice creation by
// front-desk staff, payment collection by a cashier. The two transitions
// are deliberately separate operations so ordering tests and taking cash
// stay auditable as distinct acts.
type Service struct {
	invoices repository.InvoiceRepository
	patients repository.PatientRepository
	catalog  repository.CatalogRepository
	auditor  *audit.Service
	cfg      Config
	now      func() time.Time
}

func NewService(
	invoices repository.InvoiceRepository,
	patients repository.PatientRepository,
	catalog repository.CatalogRepository,
	auditor *audit.Service,
	cfg Config,
) *Service {
	if cfg.InvoiceNumberPrefix == "" {
		cfg.InvoiceNumberPrefix = "INV"
	}
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	return &Service{
		invoices: invoices,
		patients: patients,
		catalog:  catalog,
		auditor:  auditor,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CreateInvoice validates the order, snapshots catalog prices into line
// items, computes the totals and persists the invoice in the unpaid state.
func (s *Service) CreateInvoice(ctx context.Context, principal *model.Principal, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.BadRequest("at least one test is required", nil)
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return nil, apperrors.BadRequest("discount percentage must be between 0 and 100", nil)
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}
	if _, err := s.patients.Get(ctx, patientID, principal.BranchID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.BadRequest("patient not found", err)
		}
		return nil, fmt.Errorf("failed to verify patient: %w", err)
	}

	invoiceID := uuid.New()
	subtotal := decimal.Zero
	items := make([]model.InvoiceItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		testID, err := uuid.Parse(reqItem.TestID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid test id", err)
		}
		test, err := s.catalog.Get(ctx, testID, principal.BranchID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.BadRequest(fmt.Sprintf("test %s not found", reqItem.TestID), err)
			}
			return nil, fmt.Errorf("failed to resolve test: %w", err)
		}
		if !test.Active {
			return nil, apperrors.BadRequest(fmt.Sprintf("test %s is no longer offered", test.Code), nil)
		}

		// Price and name are copied here; later catalog edits must not
		// change historical invoices.
		items = append(items, model.InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: invoiceID,
			TestID:    test.ID,
			Name:      test.Name,
			Price:     test.Price,
		})
		subtotal = subtotal.Add(test.Price)
	}

	discountPct := decimal.NewFromFloat(req.DiscountPercentage)
	discountAmount := subtotal.Mul(discountPct).Div(oneHundred).Round(2)
	totalAmount := subtotal.Sub(discountAmount)

	var referralID *uuid.UUID
	if req.ReferralProviderID != "" {
		id, err := uuid.Parse(req.ReferralProviderID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid referral provider id", err)
		}
		referralID = &id
	}

	seq, err := s.invoices.NextInvoiceSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	now := s.now()
	invoice := &model.Invoice{
		Base: model.Base{
			ID:        invoiceID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Tenancy: model.Tenancy{
			TenantID: principal.TenantID,
			BranchID: principal.BranchID,
		},
		InvoiceNumber:      fmt.Sprintf("%s-%d-%06d", s.cfg.InvoiceNumberPrefix, now.Year(), seq),
		PatientID:          patientID,
		Items:              items,
		Subtotal:           subtotal,
		DiscountPercentage: discountPct,
		DiscountAmount:     discountAmount,
		TotalAmount:        totalAmount,
		NetAmount:          totalAmount,
		Currency:           s.cfg.Currency,
		ReferralProviderID: referralID,
		PaymentStatus:      model.PaymentStatusUnpaid,
		CreatedBy:          principal.UserID,
	}

	evt, err := model.NewOutboxEvent(model.EventInvoiceCreated, invoice)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.Create(ctx, invoice, evt); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.auditor.Log(ctx, principal, "create", "invoice", invoice.ID, &audit.LogOptions{Changes: invoice})

	return invoice, nil
}

// PayInvoice collects payment on an unpaid invoice. The repository applies
// the transition as a conditional update, so a concurrent or repeated
// payment attempt surfaces as a conflict rather than a double charge.
func (s *Service) PayInvoice(ctx context.Context, principal *model.Principal, id uuid.UUID, req *model.PayInvoiceRequest) (*model.Invoice, error) {
	details, err := validatePayment(req)
	if err != nil {
		return nil, err
	}

	rawDetails, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment details: %w", err)
	}

	paidAt := s.now()
	evt, err := model.NewOutboxEvent(model.EventInvoicePaid, map[string]interface{}{
		"invoice_id":     id,
		"payment_method": req.PaymentMethod,
		"paid_by":        principal.UserID,
		"paid_at":        paidAt,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.invoices.MarkPaid(ctx, id, principal.BranchID, req.PaymentMethod, rawDetails, principal.UserID, paidAt, evt)
	if err != nil {
		return nil, fmt.Errorf("failed to pay invoice: %w", err)
	}
	if !updated {
		// Zero rows matched: either the invoice does not exist in this
		// branch, or it already left the unpaid state.
		invoice, getErr := s.invoices.Get(ctx, id, principal.BranchID)
		if getErr != nil {
			return nil, getErr
		}
		switch invoice.PaymentStatus {
		case model.PaymentStatusPaid:
			return nil, apperrors.Conflict("invoice is already paid", nil)
		case model.PaymentStatusVoided:
			return nil, apperrors.Conflict("invoice has been voided", nil)
		default:
			return nil, apperrors.Conflict("invoice is not payable", nil)
		}
	}

	invoice, err := s.invoices.Get(ctx, id, principal.BranchID)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, principal, "pay", "invoice", id, &audit.LogOptions{
		Metadata: map[string]interface{}{
			"payment_method": req.PaymentMethod,
			"amount":         invoice.NetAmount,
		},
	})

	return invoice, nil
}

// VoidInvoice cancels an unpaid invoice. Paid invoices cannot be voided;
// the money trail is append-only.
func (s *Service) VoidInvoice(ctx context.Context, principal *model.Principal, id uuid.UUID, req *model.VoidInvoiceRequest) (*model.Invoice, error) {
	voidedAt := s.now()
	evt, err := model.NewOutboxEvent(model.EventInvoiceVoided, map[string]interface{}{
		"invoice_id": id,
		"reason":     req.Reason,
		"voided_by":  principal.UserID,
		"voided_at":  voidedAt,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.invoices.MarkVoided(ctx, id, principal.BranchID, req.Reason, principal.UserID, voidedAt, evt)
	if err != nil {
		return nil, fmt.Errorf("failed to void invoice: %w", err)
	}
	if !updated {
		invoice, getErr := s.invoices.Get(ctx, id, principal.BranchID)
		if getErr != nil {
			return nil, getErr
		}
		switch invoice.PaymentStatus {
		case model.PaymentStatusPaid:
			return nil, apperrors.Conflict("paid invoices cannot be voided", nil)
		case model.PaymentStatusVoided:
			return nil, apperrors.Conflict("invoice is already voided", nil)
		default:
			return nil, apperrors.Conflict("invoice is not voidable", nil)
		}
	}

	invoice, err := s.invoices.Get(ctx, id, principal.BranchID)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, principal, "void", "invoice", id, &audit.LogOptions{
		Metadata: map[string]interface{}{"reason": req.Reason},
	})

	return invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Invoice, error) {
	return s.invoices.Get(ctx, id, principal.BranchID)
}

func (s *Service) ListInvoices(ctx context.Context, principal *model.Principal, filter *model.InvoiceFilter) ([]*model.Invoice, error) {
	filter.Normalize()
	return s.invoices.List(ctx, principal.BranchID, filter)
}

func validatePayment(req *model.PayInvoiceRequest) (*model.PaymentDetails, error) {
	if !req.PaymentMethod.Valid() {
		return nil, apperrors.BadRequest("payment method must be cash, card or transfer", nil)
	}

	details := &model.PaymentDetails{}
	switch req.PaymentMethod {
	case model.PaymentMethodCard:
		if req.CardLastFour == "" || req.TransactionRef == "" {
			return nil, apperrors.BadRequest("card payments require card last four digits and a transaction reference", nil)
		}
		details.CardLastFour = req.CardLastFour
		details.TransactionRef = req.TransactionRef
	case model.PaymentMethodTransfer:
		if req.TransferRef == "" || req.BankName == "" {
			return nil, apperrors.BadRequest("transfer payments require a transfer reference and the sending bank", nil)
		}
		details.TransferRef = req.TransferRef
		details.BankName = req.BankName
	}
	return details, nil
}

// Package payment implements the credential-signing pass-through to the
// payment vendor: validate the storefront's input, sign the request with the
// shop's Basic credentials, and hand the confirmation token back for the
// embedded widget. Shop credentials never leave the relay process.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/adapter/yookassa"
	"github.com/velmora-shop/vendor-relay/internal/relay"
)

const defaultCurrency = "RUB"

// CreatePaymentInput is the storefront's payment-creation request.
type CreatePaymentInput struct {
	Amount      float64           `json:"amount" validate:"required,gt=0"`
	Currency    string            `json:"currency" validate:"omitempty,len=3,uppercase"`
	Description string            `json:"description" validate:"required"`
	OrderID     string            `json:"orderId" validate:"omitempty,max=128"`
	ReturnURL   string            `json:"returnUrl" validate:"omitempty,url"`
	Metadata    map[string]string `json:"metadata"`
}

// Result is what the storefront widget needs; the confirmation token is the
// only secret-adjacent value exposed to the browser.
type Result struct {
	Success           bool            `json:"success"`
	PaymentID         string          `json:"paymentId"`
	ConfirmationToken string          `json:"confirmationToken"`
	Status            string          `json:"status"`
	Amount            yookassa.Amount `json:"amount"`
}

// Service creates payments through the vendor API. No retries: each
// invocation is a single best-effort vendor call and the caller decides what
// to do with an error.
type Service struct {
	client    yookassa.Client
	snowflake *snowflake.Node
	validate  *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewService wires dependencies.
func NewService(client yookassa.Client, node *snowflake.Node, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:    client,
		snowflake: node,
		validate:  validator.New(),
		now:       time.Now,
		logger:    logger,
		tracer:    otel.Tracer("github.com/velmora-shop/vendor-relay/internal/payment"),
	}
}

// Create validates the input, forwards it to the vendor with a fresh
// idempotency key, and extracts the confirmation token. The origin argument
// is the storefront origin used to default the return URL.
func (s *Service) Create(ctx context.Context, origin string, in CreatePaymentInput) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "payment.create")
	defer span.End()

	if err := s.validate.Struct(in); err != nil {
		return nil, relay.NewInvalidRequest(validationMessage(err))
	}

	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	returnURL := in.ReturnURL
	if returnURL == "" && origin != "" {
		returnURL = strings.TrimRight(origin, "/") + "/order/success"
	}

	metadata := make(map[string]string, len(in.Metadata)+1)
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	if in.OrderID != "" {
		metadata["order_id"] = in.OrderID
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	req := yookassa.PaymentRequest{
		Amount: yookassa.Amount{
			Value:    FormatAmount(in.Amount),
			Currency: currency,
		},
		Capture: true,
		Confirmation: yookassa.Confirmation{
			Type:      "embedded",
			ReturnURL: returnURL,
		},
		Description: in.Description,
		Metadata:    metadata,
	}

	payment, err := s.client.CreatePayment(ctx, s.idempotencyKey(), req)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(payment.Confirmation.ConfirmationToken) == "" {
		s.logger.Error("payment response missing confirmation token",
			zap.String("payment_id", payment.ID),
			zap.ByteString("vendor_body", payment.Raw),
		)
		return nil, relay.NewVendorContract("Payment response missing confirmation token")
	}

	return &Result{
		Success:           true,
		PaymentID:         payment.ID,
		ConfirmationToken: payment.Confirmation.ConfirmationToken,
		Status:            payment.Status,
		Amount:            payment.Amount,
	}, nil
}

// idempotencyKey mints a per-call key so network-level retries cannot create
// duplicate payments at the vendor.
func (s *Service) idempotencyKey() string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), s.snowflake.Generate())
}

// FormatAmount serializes an amount with exactly two decimal places, the
// vendor's minor-unit convention.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid payment request"
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Amount":
		if fe.Tag() == "gt" {
			return "Amount must be greater than zero"
		}
		return "Amount is required"
	case "Description":
		return "Description is required"
	case "Currency":
		return "Currency must be a three-letter uppercase code"
	case "ReturnURL":
		return "Return URL must be a valid URL"
	default:
		return fmt.Sprintf("Invalid field: %s", fe.Field())
	}
}

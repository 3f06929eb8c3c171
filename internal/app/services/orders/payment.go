package orders

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/fastfood-labs/order_service/internal/app/metrics"
	"github.com/fastfood-labs/order_service/internal/errors"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentPix || m == PaymentCard
}

const paymentTimeLayout = "20060102150405"

// PaymentCodeResponse carries a generated payment code.
type PaymentCodeResponse struct {
	OrderID int64         `json:"order_id"`
	Method  PaymentMethod `json:"method"`
	Code    string        `json:"code"`
}

// PaymentConfirm is the body accepted when confirming a payment.
type PaymentConfirm struct {
	Code string `json:"code" validate:"required"`
}

// PaymentCode generates the code a customer pays against. The code is the
// base64 form of PAG-<method>-<order id>-<yyyyMMddHHmmss>.
func (s *Service) PaymentCode(ctx context.Context, id int64, method PaymentMethod) (PaymentCodeResponse, error) {
	if !method.Valid() {
		return PaymentCodeResponse{}, errors.Validation(fmt.Sprintf("unsupported payment method %q", method))
	}
	if _, err := s.store.GetOrder(ctx, id); err != nil {
		return PaymentCodeResponse{}, mapNotFound(err, id)
	}
	raw := fmt.Sprintf("PAG-%s-%d-%s", method, id, s.clock().Format(paymentTimeLayout))
	code := base64.StdEncoding.EncodeToString([]byte(raw))

	metrics.RecordPaymentCode(string(method))
	s.log.WithContext(ctx).WithField("order_id", id).WithField("method", method).Info("payment code generated")
	return PaymentCodeResponse{OrderID: id, Method: method, Code: code}, nil
}

// ConfirmPayment resolves a payment code back to its order. The order's
// status is left untouched.
func (s *Service) ConfirmPayment(ctx context.Context, code string) (Response, error) {
	id, err := ParsePaymentCode(code)
	if err != nil {
		return Response{}, err
	}
	resp, err := s.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	s.log.WithContext(ctx).WithField("order_id", id).Info("payment confirmed")
	return resp, nil
}

// ParsePaymentCode extracts the order id from a payment code.
func ParsePaymentCode(code string) (int64, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(code))
	if err != nil {
		return 0, errors.Validation("malformed payment code")
	}
	parts := strings.Split(string(decoded), "-")
	if len(parts) < 4 || parts[0] != "PAG" {
		return 0, errors.Validation("malformed payment code")
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, errors.Validation("malformed payment code")
	}
	return id, nil
}

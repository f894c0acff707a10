package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

const productName = "Route impact bulk analysis"

type checkoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	AmountTotal   int64  `json:"amount_total"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

// rowCount - оплаченные строки из metadata[row_count]; 0, если поля нет
func (s checkoutSession) rowCount() int {
	n, err := strconv.Atoi(s.Metadata["row_count"])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// StripeGate - платёжный шлюз на Stripe Checkout Sessions
type StripeGate struct {
	httpClient  *http.Client
	baseURL     string
	secretKey   string
	currency    string
	pricePerRow int64
	successURL  string
	cancelURL   string
	logger      *zap.Logger
}

// NewStripeGate создает платёжный шлюз
func NewStripeGate(cfg *config.PaymentConfig, logger *zap.Logger) *StripeGate {
	return &StripeGate{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		secretKey:   cfg.SecretKey,
		currency:    strings.ToLower(cfg.Currency),
		pricePerRow: cfg.PricePerRow,
		successURL:  cfg.SuccessURL,
		cancelURL:   cfg.CancelURL,
		logger:      logger,
	}
}

// PriceCents возвращает стоимость rowCount платных строк
func (g *StripeGate) PriceCents(rowCount int) int64 {
	return int64(rowCount) * g.pricePerRow
}

// CreateCharge создаёт сессию оплаты за rowCount строк
func (g *StripeGate) CreateCharge(ctx context.Context, rowCount int, sessionID string) (*repository.CheckoutHandle, error) {
	if rowCount <= 0 {
		return nil, fmt.Errorf("row count must be positive, got %d", rowCount)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.successURL)
	form.Set("cancel_url", g.cancelURL)
	form.Set("client_reference_id", sessionID)
	form.Set("metadata[session_id]", sessionID)
	form.Set("metadata[row_count]", strconv.Itoa(rowCount))
	form.Set("line_items[0][quantity]", strconv.Itoa(rowCount))
	form.Set("line_items[0][price_data][currency]", g.currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(g.pricePerRow, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)

	var session checkoutSession
	status, err := g.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("stripe API error: status %d", status)
	}

	g.logger.Info("Checkout session created",
		zap.String("session_id", sessionID),
		zap.String("charge_id", session.ID),
		zap.Int("rows", rowCount),
	)

	amount := session.AmountTotal
	if amount == 0 {
		amount = g.PriceCents(rowCount)
	}
	return &repository.CheckoutHandle{
		ChargeID:    session.ID,
		CheckoutURL: session.URL,
		RowCount:    rowCount,
		AmountCents: amount,
	}, nil
}

// CheckStatus возвращает статус оплаты сессии и число оплаченных строк
func (g *StripeGate) CheckStatus(ctx context.Context, id string) (repository.ChargeStatus, error) {
	unknown := repository.ChargeStatus{Status: repository.PaymentStatusUnknown}

	var session checkoutSession
	status, err := g.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &session)
	if err != nil {
		return unknown, err
	}
	if status == http.StatusNotFound {
		return unknown, nil
	}
	if status != http.StatusOK {
		return unknown, fmt.Errorf("stripe API error: status %d", status)
	}

	result := repository.ChargeStatus{Status: repository.PaymentStatusUnknown, RowCount: session.rowCount()}
	switch session.PaymentStatus {
	case "paid", "no_payment_required":
		result.Status = repository.PaymentStatusPaid
	case "unpaid":
		if session.Status != "expired" {
			result.Status = repository.PaymentStatusPending
		}
	}
	return result, nil
}

func (g *StripeGate) do(ctx context.Context, method, path string, form url.Values, out interface{}) (int, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		g.logger.Warn("Stripe returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"paisa/internal/core"
)

// Extraction is the result of categorizing a pasted notification. Amount
// and Merchant may be absent when the text does not state them; the UI then
// asks the user to fill them in manually.
type Extraction struct {
	Category core.Category `json:"category"`
	Amount   *core.Money   `json:"amount,omitempty"`
	Merchant string        `json:"merchant,omitempty"`
}

// Complete reports whether every field was extracted.
func (e Extraction) Complete() bool {
	return e.Category != "" && e.Amount != nil && e.Merchant != ""
}

// ReceiptDetails is a fully extracted receipt.
type ReceiptDetails struct {
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Merchant string        `json:"merchant"`
}

// BudgetAdvice is free-text advisory output; nothing downstream computes
// on it.
type BudgetAdvice struct {
	SuggestedBudget string `json:"suggestedBudget"`
	SavingsTips     string `json:"savingsTips"`
}

// model wire shapes; amounts arrive as major-unit numbers.
type extractionWire struct {
	Category string   `json:"category"`
	Amount   *float64 `json:"amount"`
	Merchant string   `json:"merchant"`
}

// CategorizeNotification extracts category, amount and merchant from a
// pasted SMS/UPI notification. Missing fields are left absent, not
// defaulted: partial extraction is a valid outcome, not an error.
func (c *Client) CategorizeNotification(ctx context.Context, notificationText string) (Extraction, error) {
	raw, err := c.gen.GenerateText(ctx, categorizePrompt(notificationText))
	if err != nil {
		return Extraction{}, fmt.Errorf("categorize notification: %w", err)
	}

	var wire extractionWire
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &wire); err != nil {
		return Extraction{}, fmt.Errorf("categorize notification: decode model output: %w", err)
	}

	out := Extraction{Merchant: strings.TrimSpace(wire.Merchant)}
	if cat, err := core.ParseCategory(strings.TrimSpace(wire.Category)); err == nil {
		out.Category = cat
	}
	if wire.Amount != nil && *wire.Amount > 0 {
		out.Amount = &core.Money{Cents: int64(math.Round(*wire.Amount * 100))}
	}
	return out, nil
}

// ScanReceipt extracts full details from a photographed receipt provided
// as a data URI ("data:<mime>;base64,<data>"). The call is bounded by the
// configured scan timeout; a timeout is terminal for this attempt and the
// user must re-trigger the scan.
func (c *Client) ScanReceipt(ctx context.Context, photoDataURI string) (ReceiptDetails, error) {
	mimeType, data, err := decodeDataURI(photoDataURI)
	if err != nil {
		return ReceiptDetails{}, err
	}

	sctx, cancel := context.WithTimeout(ctx, c.scanTimeout)
	defer cancel()

	raw, err := c.gen.GenerateFromImage(sctx, receiptPrompt(), mimeType, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sctx.Err(), context.DeadlineExceeded) {
			return ReceiptDetails{}, ErrScanTimeout
		}
		return ReceiptDetails{}, fmt.Errorf("scan receipt: %w", err)
	}

	var wire extractionWire
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &wire); err != nil {
		return ReceiptDetails{}, fmt.Errorf("scan receipt: decode model output: %w", err)
	}

	cat, catErr := core.ParseCategory(strings.TrimSpace(wire.Category))
	merchant := strings.TrimSpace(wire.Merchant)
	if catErr != nil || wire.Amount == nil || *wire.Amount <= 0 || merchant == "" {
		return ReceiptDetails{}, ErrPartialExtraction
	}

	return ReceiptDetails{
		Category: cat,
		Amount:   core.Money{Cents: int64(math.Round(*wire.Amount * 100))},
		Merchant: merchant,
	}, nil
}

// SuggestBudget generates advisory budget text from income, a spending
// summary, and the user's stated goals.
func (c *Client) SuggestBudget(ctx context.Context, income core.Money, spendingHistory, financialGoals string) (BudgetAdvice, error) {
	raw, err := c.gen.GenerateText(ctx, advicePrompt(income, spendingHistory, financialGoals))
	if err != nil {
		return BudgetAdvice{}, fmt.Errorf("suggest budget: %w", err)
	}

	var advice BudgetAdvice
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &advice); err != nil {
		return BudgetAdvice{}, fmt.Errorf("suggest budget: decode model output: %w", err)
	}
	if advice.SuggestedBudget == "" && advice.SavingsTips == "" {
		return BudgetAdvice{}, ErrEmptyResponse
	}
	return advice, nil
}

// decodeDataURI splits a "data:<mime>;base64,<payload>" blob.
func decodeDataURI(uri string) (mimeType string, data []byte, err error) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	rest := uri[len(prefix):]
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	meta := rest[:comma]
	payload := rest[comma+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("%w: only base64 encoding is supported", ErrInvalidDataURI)
	}
	mimeType = strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		return "", nil, fmt.Errorf("%w: missing MIME type", ErrInvalidDataURI)
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decode payload: %v", ErrInvalidDataURI, err)
	}
	return mimeType, data, nil
}

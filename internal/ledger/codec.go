package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// record is the persisted shape of a transaction. Field names and the
// numeric amount match what the browser widget wrote to localStorage, so
// an exported slot can be loaded as is.
type record struct {
	ID          int64       `json:"id"`
	Type        core.Kind   `json:"type"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        core.Date   `json:"date"`
}

// Encode serialises the whole collection in order.
func Encode(txs []core.Transaction) ([]byte, error) {
	out := make([]record, len(txs))
	for i, tx := range txs {
		out[i] = record{
			ID:          tx.ID,
			Type:        tx.Kind,
			Description: tx.Description,
			Amount:      json.Number(tx.Amount.String()),
			Category:    tx.Category,
			Date:        tx.Date,
		}
	}
	return json.Marshal(out)
}

// SkippedRecord describes an entry Decode could not accept.
type SkippedRecord struct {
	Index int
	Err   error
}

// Decode parses a persisted collection. A payload that is not a JSON array
// is an error; individual entries that are malformed, violate transaction
// invariants or repeat an earlier id are skipped and reported.
func Decode(b []byte) ([]core.Transaction, []SkippedRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode ledger: %w", err)
	}

	txs := make([]core.Transaction, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	var skipped []SkippedRecord
	for i, msg := range raw {
		tx, err := decodeRecord(msg)
		if err == nil {
			if _, dup := seen[tx.ID]; dup {
				err = fmt.Errorf("duplicate id %d", tx.ID)
			}
		}
		if err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Err: err})
			continue
		}
		seen[tx.ID] = struct{}{}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

func decodeRecord(msg json.RawMessage) (core.Transaction, error) {
	var r record
	if err := json.Unmarshal(msg, &r); err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, core.ErrInvalidAmount)
	}
	tx := core.Transaction{
		ID:          r.ID,
		Kind:        r.Type,
		Description: r.Description,
		Amount:      amount,
		Category:    r.Category,
		Date:        r.Date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Status is the lifecycle tag of an order.
type Status string

const (
	StatusReceived  Status = "Recebido"
	StatusPreparing Status = "Em preparação"
	StatusReady     Status = "Pronto"
	StatusFinished  Status = "Finalizado"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusReceived, StatusPreparing, StatusReady, StatusFinished}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusPreparing, StatusReady, StatusFinished:
		return true
	}
	return false
}

// LineItem is one ordered product. The shape is open-ended; callers send at
// least id, name, quantity and price.
type LineItem map[string]interface{}

// LineItems is stored as a single JSON column.
type LineItems []LineItem

// Value implements driver.Valuer.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (l *LineItems) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order: cannot scan %T into line items", src)
	}
	items := LineItems{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("order: decode line items: %w", err)
	}
	*l = items
	return nil
}

// Order is a persisted customer order.
type Order struct {
	ID         int64     `db:"id"`
	ClientID   int64     `db:"client_id"`
	TotalPrice float64   `db:"total_price"`
	Status     Status    `db:"status"`
	Products   LineItems `db:"products"`
}

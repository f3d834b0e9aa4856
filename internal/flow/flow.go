// Package flow tracks per-user, in-progress conversation flows: multi-step
// wizards that collect several fields before committing an action.
package flow

import "time"

// Kind identifies a flow variant.
type Kind string

const (
	// KindDeposit collects method, sender number, amount, and transaction id.
	KindDeposit Kind = "deposit"
	// KindMultiPurchase collects a service name and a quantity.
	KindMultiPurchase Kind = "multi_purchase"
	// KindBroadcast holds the admin's pending broadcast text.
	KindBroadcast Kind = "broadcast"
	// KindSetSupport awaits the new support contact handle.
	KindSetSupport Kind = "set_support"
	// KindSetTutorial awaits the new tutorial link.
	KindSetTutorial Kind = "set_tutorial"
)

// Field names one collected value inside a flow.
type Field string

const (
	FieldMethod  Field = "method"
	FieldNumber  Field = "number"
	FieldAmount  Field = "amount"
	FieldTxID    Field = "txid"
	FieldService Field = "service"
	FieldCount   Field = "count"
	FieldValue   Field = "value"
)

// fieldOrder fixes the collection order per flow kind. Advance always fills
// the first missing field of this sequence.
var fieldOrder = map[Kind][]Field{
	KindDeposit:       {FieldMethod, FieldNumber, FieldAmount, FieldTxID},
	KindMultiPurchase: {FieldService, FieldCount},
	KindBroadcast:     {FieldValue},
	KindSetSupport:    {FieldValue},
	KindSetTutorial:   {FieldValue},
}

// Flow is one open wizard for one user. Fields appear only once supplied.
type Flow struct {
	Kind      Kind             `json:"kind"`
	Fields    map[Field]string `json:"fields"`
	StartedAt time.Time        `json:"started_at"`
}

// Next returns the first missing field, or false when the flow is filled.
func (f *Flow) Next() (Field, bool) {
	for _, field := range fieldOrder[f.Kind] {
		if _, ok := f.Fields[field]; !ok {
			return field, true
		}
	}

	return "", false
}

// Filled reports whether every required field has been supplied.
func (f *Flow) Filled() bool {
	_, missing := f.Next()
	return !missing
}

// Get returns a collected field value, or an empty string when absent.
func (f *Flow) Get(field Field) string {
	return f.Fields[field]
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	SaleStateClosed    = "cloture"
	ReceiptStateClosed = "clôture"
)

// PartyKind tells which counterpart ledger a cash movement or balance belongs to.
type PartyKind uint8

const (
	PartyClient PartyKind = iota + 1
	PartySupplier
)

func ParsePartyKind(raw string) (PartyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "C":
		return PartyClient, nil
	case "F":
		return PartySupplier, nil
	}
	return 0, fmt.Errorf("unknown party kind %q", raw)
}

func (k PartyKind) String() string {
	switch k {
	case PartyClient:
		return "C"
	case PartySupplier:
		return "F"
	}
	return ""
}

func (k PartyKind) Origin() Origin {
	if k == PartySupplier {
		return OriginSupplierPayment
	}
	return OriginClientPayment
}

func (k PartyKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *PartyKind) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParsePartyKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k PartyKind) Value() (driver.Value, error) {
	return k.String(), nil
}

func (k *PartyKind) Scan(src any) error {
	parsed, err := ParsePartyKind(scanString(src))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Nature is the document type stored on sale and receipt headers.
type Nature uint8

const (
	NatureTicket Nature = iota + 1
	NatureCreditNote
	NatureReceipt
)

// NatureForParty returns TICKET for walk-in sales and BON DE L. otherwise.
func NatureForParty(partyID int64) Nature {
	if partyID == 0 {
		return NatureTicket
	}
	return NatureCreditNote
}

func ParseNature(raw string) (Nature, error) {
	switch strings.TrimSpace(raw) {
	case "TICKET":
		return NatureTicket, nil
	case "BON DE L.":
		return NatureCreditNote, nil
	case "Bon de réception":
		return NatureReceipt, nil
	}
	return 0, fmt.Errorf("unknown document nature %q", raw)
}

func (n Nature) String() string {
	switch n {
	case NatureTicket:
		return "TICKET"
	case NatureCreditNote:
		return "BON DE L."
	case NatureReceipt:
		return "Bon de réception"
	}
	return ""
}

func (n Nature) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *Nature) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return n.Scan(raw)
}

func (n Nature) Value() (driver.Value, error) {
	return n.String(), nil
}

func (n *Nature) Scan(src any) error {
	parsed, err := ParseNature(scanString(src))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Origin labels a cash movement.
type Origin uint8

const (
	OriginClientPayment Origin = iota + 1
	OriginSupplierPayment
)

func (o Origin) String() string {
	switch o {
	case OriginClientPayment:
		return "VERSEMENT C"
	case OriginSupplierPayment:
		return "VERSEMENT F"
	}
	return ""
}

func (o Origin) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Origin) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return o.Scan(raw)
}

func (o Origin) Value() (driver.Value, error) {
	return o.String(), nil
}

func (o *Origin) Scan(src any) error {
	switch strings.TrimSpace(scanString(src)) {
	case "VERSEMENT C":
		*o = OriginClientPayment
	case "VERSEMENT F":
		*o = OriginSupplierPayment
	default:
		return fmt.Errorf("unknown payment origin %q", scanString(src))
	}
	return nil
}

type Role uint8

const (
	RoleEmployee Role = iota + 1
	RoleAdmin
)

// ParseRole maps the stored status; anything other than admin is an employee.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), "admin") {
		return RoleAdmin
	}
	return RoleEmployee
}

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "emplo"
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r Role) Value() (driver.Value, error) {
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	*r = ParseRole(scanString(src))
	return nil
}

// PaymentMode selects whether a party sale posts a balance movement.
type PaymentMode uint8

const (
	PaymentCash PaymentMode = iota
	PaymentCredit
)

func (m PaymentMode) String() string {
	if m == PaymentCredit {
		return "a_terme"
	}
	return "espece"
}

func (m PaymentMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMode) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "espece", "cash":
		*m = PaymentCash
	case "a_terme", "credit":
		*m = PaymentCredit
	default:
		return fmt.Errorf("unknown payment mode %q", raw)
	}
	return nil
}

// Party addresses one client or supplier account. ID 0 is the walk-in client.
type Party struct {
	Kind PartyKind
	ID   int64
}

func Client(id int64) Party   { return Party{Kind: PartyClient, ID: id} }
func Supplier(id int64) Party { return Party{Kind: PartySupplier, ID: id} }

func (p Party) String() string {
	return fmt.Sprintf("%s%d", p.Kind, p.ID)
}

func scanString(src any) string {
	switch v := src.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	}
	return fmt.Sprint(src)
}

package model

import (
	"regexp"
	"strings"
	"sync"

	"larek/internal/events"
)

// Payment is the buyer's payment method.
type Payment string

const (
	PaymentNone Payment = ""
	PaymentCard Payment = "card"
	PaymentCash Payment = "cash"
)

// Buyer field names, used as keys of the validation error map.
const (
	FieldPayment = "payment"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldAddress = "address"
)

// Scope names a subset of buyer fields to validate.
type Scope string

const (
	// ScopeOrder covers the order form: payment and address.
	ScopeOrder Scope = "order-fields"
	// ScopeContacts covers the contacts form: email and phone.
	ScopeContacts Scope = "contacts-fields"
	// ScopeAll covers both forms.
	ScopeAll Scope = "all"
)

// ValidationErrors maps a failing field name to a human-readable message.
// Fields that pass are absent.
type ValidationErrors map[string]string

// Buyer is a snapshot of the checkout form fields. Unset fields are empty
// strings, never absent.
type Buyer struct {
	Payment Payment `json:"payment"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
}

// BuyerPatch is a partial update; nil fields are left untouched.
type BuyerPatch struct {
	Payment *Payment
	Email   *string
	Phone   *string
	Address *string
}

const (
	msgPaymentRequired = "Выберите способ оплаты"
	msgEmailRequired   = "Введите email"
	msgEmailInvalid    = "Некорректный email"
	msgPhoneRequired   = "Введите телефон"
	msgPhoneTooShort   = "Некорректный номер телефона"
	msgAddressRequired = "Введите адрес"
)

var (
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

const minPhoneDigits = 10

// BuyerModel owns the checkout form state. Every setter compares the new
// value to the current one and skips both mutation and notification when
// nothing changed; this breaks the echo loop when a rendered field feeds its
// value back through two-way binding.
type BuyerModel struct {
	bus *events.Bus

	mu   sync.Mutex
	data Buyer
}

// NewBuyer constructs an all-empty buyer publishing to bus.
func NewBuyer(bus *events.Bus) *BuyerModel {
	return &BuyerModel{bus: bus}
}

// SetPayment updates the payment method.
func (m *BuyerModel) SetPayment(payment Payment) {
	m.apply(BuyerPatch{Payment: &payment})
}

// SetEmail updates the email field.
func (m *BuyerModel) SetEmail(email string) {
	m.apply(BuyerPatch{Email: &email})
}

// SetPhone updates the phone field.
func (m *BuyerModel) SetPhone(phone string) {
	m.apply(BuyerPatch{Phone: &phone})
}

// SetAddress updates the address field.
func (m *BuyerModel) SetAddress(address string) {
	m.apply(BuyerPatch{Address: &address})
}

// SetBuyerData applies a partial update. One EventBuyerUpdated is emitted if
// at least one field actually changed.
func (m *BuyerModel) SetBuyerData(patch BuyerPatch) {
	m.apply(patch)
}

func (m *BuyerModel) apply(patch BuyerPatch) {
	m.mu.Lock()
	changed := false
	if patch.Payment != nil && m.data.Payment != *patch.Payment {
		m.data.Payment = *patch.Payment
		changed = true
	}
	if patch.Email != nil && m.data.Email != *patch.Email {
		m.data.Email = *patch.Email
		changed = true
	}
	if patch.Phone != nil && m.data.Phone != *patch.Phone {
		m.data.Phone = *patch.Phone
		changed = true
	}
	if patch.Address != nil && m.data.Address != *patch.Address {
		m.data.Address = *patch.Address
		changed = true
	}
	snapshot := m.data
	m.mu.Unlock()

	if changed {
		m.bus.Emit(EventBuyerUpdated, BuyerUpdated{Buyer: snapshot})
	}
}

// GetBuyer returns a copy of the four-field record.
func (m *BuyerModel) GetBuyer() Buyer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

// Clear resets every field and unconditionally emits EventBuyerUpdated.
func (m *BuyerModel) Clear() {
	m.mu.Lock()
	m.data = Buyer{}
	snapshot := m.data
	m.mu.Unlock()

	m.bus.Emit(EventBuyerUpdated, BuyerUpdated{Buyer: snapshot})
}

// Validate checks the fields covered by scope and returns the error map. The
// same map is also published as EventBuyerValidated together with the field
// snapshot, so a mounted form can react without holding a model reference.
// Validation never mutates state.
func (m *BuyerModel) Validate(scope Scope) ValidationErrors {
	snapshot := m.GetBuyer()
	errs := ValidationErrors{}

	if scope == ScopeOrder || scope == ScopeAll {
		if snapshot.Payment != PaymentCard && snapshot.Payment != PaymentCash {
			errs[FieldPayment] = msgPaymentRequired
		}
		if strings.TrimSpace(snapshot.Address) == "" {
			errs[FieldAddress] = msgAddressRequired
		}
	}

	if scope == ScopeContacts || scope == ScopeAll {
		switch {
		case snapshot.Email == "":
			errs[FieldEmail] = msgEmailRequired
		case !emailPattern.MatchString(snapshot.Email):
			errs[FieldEmail] = msgEmailInvalid
		}
		digits := nonDigitPattern.ReplaceAllString(snapshot.Phone, "")
		switch {
		case snapshot.Phone == "":
			errs[FieldPhone] = msgPhoneRequired
		case len(digits) < minPhoneDigits:
			errs[FieldPhone] = msgPhoneTooShort
		}
	}

	m.bus.Emit(EventBuyerValidated, BuyerValidated{Errors: errs, Buyer: snapshot})
	return errs
}

package enums

// Checkbox mirrors the legacy dashboard's tri-state checkbox persistence:
// "Ticked" when checked, empty when not.
type Checkbox string

const (
	CheckboxTicked   Checkbox = "Ticked"
	CheckboxUnticked Checkbox = ""
)

// IsTicked reports whether the checkbox is checked.
func (c Checkbox) IsTicked() bool {
	return c == CheckboxTicked
}

// Flag mirrors the legacy "Yes"/"No" string flags (escTicked and friends).
type Flag string

const (
	FlagYes Flag = "Yes"
	FlagNo  Flag = "No"
)

// IsYes reports whether the flag is set.
func (f Flag) IsYes() bool {
	return f == FlagYes
}

// PaymentStatus records whether the customer's card was charged for a yard.
type PaymentStatus string

const (
	PaymentStatusCharged    PaymentStatus = "Card charged"
	PaymentStatusNotCharged PaymentStatus = "Card not charged"
)

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	return p == PaymentStatusCharged || p == PaymentStatusNotCharged
}

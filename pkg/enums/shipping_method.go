package enums

import "fmt"

// ShippingMethod selects who arranges an escalation leg's shipment.
type ShippingMethod string

const (
	ShippingMethodCustomer ShippingMethod = "Customer shipping"
	ShippingMethodOwn      ShippingMethod = "Own shipping"
	ShippingMethodYard     ShippingMethod = "Yard shipping"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodCustomer,
	ShippingMethodOwn,
	ShippingMethodYard,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}

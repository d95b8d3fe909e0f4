package enums

import "fmt"

// OrderChannel records where an order was taken.
type OrderChannel string

const (
	OrderChannelWebsite   OrderChannel = "website"
	OrderChannelInstagram OrderChannel = "instagram"
	OrderChannelWhatsApp  OrderChannel = "whatsapp"
	OrderChannelWalkIn    OrderChannel = "walk_in"
	OrderChannelPhone     OrderChannel = "phone"
	OrderChannelOther     OrderChannel = "other"
)

var validOrderChannels = []OrderChannel{
	OrderChannelWebsite,
	OrderChannelInstagram,
	OrderChannelWhatsApp,
	OrderChannelWalkIn,
	OrderChannelPhone,
	OrderChannelOther,
}

// String implements fmt.Stringer.
func (c OrderChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known OrderChannel.
func (c OrderChannel) IsValid() bool {
	for _, candidate := range validOrderChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseOrderChannel converts raw input into an OrderChannel.
func ParseOrderChannel(value string) (OrderChannel, error) {
	for _, candidate := range validOrderChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order channel %q", value)
}

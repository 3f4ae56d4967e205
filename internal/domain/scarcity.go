package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ScarcityLevel is a display tier communicating remaining capacity to
// shoppers without exposing raw numbers for large stock.
type ScarcityLevel string

const (
	ScarcitySoldOut   ScarcityLevel = "sold_out"
	ScarcityScarce    ScarcityLevel = "scarce"
	ScarcityLimited   ScarcityLevel = "limited"
	ScarcityAvailable ScarcityLevel = "available"
	ScarcityAbundant  ScarcityLevel = "abundant"
)

var (
	scarceMax    = decimal.NewFromInt(3)
	limitedMax   = decimal.NewFromInt(10)
	availableMax = decimal.NewFromInt(25)
)

// ScarcityFor maps remaining quantity to a display tier.
func ScarcityFor(remaining decimal.Decimal) ScarcityLevel {
	switch {
	case remaining.Sign() <= 0:
		return ScarcitySoldOut
	case remaining.Cmp(scarceMax) <= 0:
		return ScarcityScarce
	case remaining.Cmp(limitedMax) <= 0:
		return ScarcityLimited
	case remaining.Cmp(availableMax) <= 0:
		return ScarcityAvailable
	default:
		return ScarcityAbundant
	}
}

// ScarcityMessage is the fixed storefront message for a tier.
func ScarcityMessage(level ScarcityLevel, remaining decimal.Decimal) string {
	switch level {
	case ScarcitySoldOut:
		return "Sold out"
	case ScarcityScarce:
		return fmt.Sprintf("Only %s left!", remaining.String())
	case ScarcityLimited:
		return fmt.Sprintf("Limited stock: %s remaining", remaining.String())
	case ScarcityAvailable:
		return "In stock"
	default:
		return "Plenty available"
	}
}

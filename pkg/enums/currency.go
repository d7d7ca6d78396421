package enums

import "fmt"

// Currency represents supported monetary denominations.
type Currency string

const (
	CurrencyEGP Currency = "EGP"
	CurrencyUSD Currency = "USD"
	CurrencySAR Currency = "SAR"
)

// DefaultCurrency is applied to cart rows created without an explicit currency.
const DefaultCurrency = CurrencyEGP

var validCurrencies = []Currency{
	CurrencyEGP,
	CurrencyUSD,
	CurrencySAR,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts raw input into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}

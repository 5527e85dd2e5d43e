package monobank

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitfeed/internal/bank"
)

var currencies = map[int]string{
	980: "UAH",
	840: "USD",
	978: "EUR",
	826: "GBP",
	985: "PLN",
}

// CurrencyName returns the ISO 4217 alpha code for a numeric code, or the
// number itself when unknown.
func CurrencyName(code int) string {
	if name, ok := currencies[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}

// Label formats an account for selection lists, e.g.
// "black 1234.56 UAH (ID: ...9f3a)".
func Label(a bank.Account) string {
	id := a.ID
	if len(id) > 4 {
		id = id[len(id)-4:]
	}
	balance := decimal.New(a.Balance, -2).StringFixed(2)
	return fmt.Sprintf("%s %s %s (ID: ...%s)", a.Type, balance, CurrencyName(a.CurrencyCode), id)
}

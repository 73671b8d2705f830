package transfer

import "errors"

// ErrInvalidAmount is returned for amounts that are non-numeric, not
// positive, or carry more decimal places than the currency declares.
var ErrInvalidAmount = errors.New("invalid donation amount")

// ErrUnsupportedCurrency is returned when the currency is absent from the
// catalog.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// ErrInvalidAddress is returned when the destination address does not parse
// under the currency's chain family rules.
var ErrInvalidAddress = errors.New("invalid destination address")

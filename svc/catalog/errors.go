package catalog

import "errors"

var (
	ErrNotGuildOwner       = errors.New("catalog: user does not own this guild")
	ErrBotMissing          = errors.New("catalog: bot is not a member of this guild")
	ErrKeysNotConfigured   = errors.New("catalog: seller stripe keys not configured")
	ErrCurrencyMismatch    = errors.New("catalog: monthly and yearly prices use different currencies")
	ErrMonthlyPriceMissing = errors.New("catalog: tier requires a monthly price")
)

package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// EventType records a webhook event type under the key "event_type".
func EventType(t string) slog.Attr {
	return slog.String("event_type", t)
}

// UserID records the acting user's Discord id.
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// SellerID records the seller's Discord id.
func SellerID(id string) slog.Attr {
	return slog.String("seller_id", id)
}

// GuildID records a Discord guild id.
func GuildID(id string) slog.Attr {
	return slog.String("guild_id", id)
}

// SubscriptionID records a Stripe subscription id.
func SubscriptionID(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

// TierID records a tier id.
func TierID(id string) slog.Attr {
	return slog.String("tier_id", id)
}

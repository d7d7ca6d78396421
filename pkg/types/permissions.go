package types

import "encoding/json"

// PermissionFlags is the closed record the rest of the system trusts.
// Stored flags are a loosely-typed JSON document; Coerce is the single
// point where that document becomes this shape. Unknown keys are dropped,
// missing keys default to false.
type PermissionFlags struct {
	ManageUsers    bool `json:"manage_users"`
	ManageOrders   bool `json:"manage_orders"`
	ManageProducts bool `json:"manage_products"`
	ManageArticles bool `json:"manage_articles"`
	ManageBookings bool `json:"manage_bookings"`
}

// CoercePermissionFlags converts the stored document into a PermissionFlags
// record. A nil or malformed document yields the all-false record rather
// than an error: absence of a flag means absence of the permission.
func CoercePermissionFlags(raw json.RawMessage) PermissionFlags {
	var flags PermissionFlags
	if len(raw) == 0 {
		return flags
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return PermissionFlags{}
	}

	flags.ManageUsers = boolFlag(doc, "manage_users")
	flags.ManageOrders = boolFlag(doc, "manage_orders")
	flags.ManageProducts = boolFlag(doc, "manage_products")
	flags.ManageArticles = boolFlag(doc, "manage_articles")
	flags.ManageBookings = boolFlag(doc, "manage_bookings")
	return flags
}

func boolFlag(doc map[string]any, key string) bool {
	v, ok := doc[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

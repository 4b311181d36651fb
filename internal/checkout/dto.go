package checkout

// PreferenceResult is returned to the storefront so it can redirect the
// buyer to the payment provider.
type PreferenceResult struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

// SuccessCallbackInput carries the raw query values from the provider's
// success redirect. Both arrive as strings and are validated here.
type SuccessCallbackInput struct {
	ExternalReference string
	PaymentID         string
}

// ItemDisplay is the display-only line carried to the success view.
type ItemDisplay struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// SuccessRedirect carries the query contract of the success view.
type SuccessRedirect struct {
	OrderID           string
	UserID            string
	PaymentID         string
	Subtotal          int64
	ItemsJSON         string
	AlreadyReconciled bool
}

// FailureRedirect carries the query contract of the failure view.
type FailureRedirect struct {
	OrderRef string
	Reason   string
}

// PendingRedirect carries the query contract of the pending view. Amount is
// zero when the user id was absent or unparseable.
type PendingRedirect struct {
	OrderRef  string
	PaymentID string
	Amount    int64
}

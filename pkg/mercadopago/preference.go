package mercadopago

// PreferenceItem is one purchasable line inside a checkout preference.
type PreferenceItem struct {
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

// BackURLs tells MercadoPago where to redirect the buyer after payment.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceCreateParams collects the inputs for preference creation.
type PreferenceCreateParams struct {
	Items             []PreferenceItem
	BackURLs          BackURLs
	ExternalReference string
}

type preferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	ExternalReference string           `json:"external_reference"`
}

// Preference is the created checkout preference returned by MercadoPago.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

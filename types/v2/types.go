package v2

// PaymentRequirements is the payment requirements.
type PaymentRequirements struct {
	Scheme            Scheme  `json:"scheme"`
	Network           Network `json:"network"`
	Asset             string  `json:"asset"`
	PayTo             string  `json:"payTo"`
	Amount            string  `json:"amount"`
	MaxTimeoutSeconds int64   `json:"maxTimeoutSeconds"`
	Extra             Extra   `json:"extra"`
}

// Extra is the extra of the payment requirements.
type Extra struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

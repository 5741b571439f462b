package payments

type CheckoutSessionResponse struct {
	SessionID   string `json:"sessionId"`
	URL         string `json:"url"`
	AmountTotal int64  `json:"amountTotal"`
	Currency    string `json:"currency"`
}

// WebhookAck is returned for every verified delivery
type WebhookAck struct {
	Received bool `json:"received"`
}

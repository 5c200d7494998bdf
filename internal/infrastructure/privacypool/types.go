package privacypool

type balanceResponse struct {
	Amount uint64 `json:"amount"`
}

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

type withdrawRequest struct {
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

type signatureResponse struct {
	Signature string `json:"signature"`
}

type errorResponse struct {
	Error string `json:"error"`
}

package aptos

// Fullnode REST API paths consumed by the gateway.
const (
	transactionsPath = "/v1/transactions"
	txByHashPath     = "/v1/transactions/by_hash/"
	viewPath         = "/v1/view"
)

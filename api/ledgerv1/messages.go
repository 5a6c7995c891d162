package ledgerv1

import "github.com/shopspring/decimal"

// 金額在 JSON 中以字串表示，避免浮點誤差

type CreateAccountRequest struct {
	AccountId string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type CreateAccountResponse struct{}

type GetAccountRequest struct {
	AccountId string `json:"account_id"`
}

type Account struct {
	AccountId string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type TransferRequest struct {
	FromAccountId string          `json:"from_account_id"`
	ToAccountId   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type TransferResponse struct {
	TransferId  string   `json:"transfer_id"`
	FromAccount *Account `json:"from_account"`
	ToAccount   *Account `json:"to_account"`
}

package core

// AccountBalance is one account's running balance as of a snapshot
// date: opening balance plus all incoming minus all outgoing entries
// dated on or before it. IsLowBalance is set when the balance is
// strictly below the account's threshold.
type AccountBalance struct {
	AccountID    int64  `json:"account_id"`
	Name         string `json:"name"`
	Balance      Money  `json:"balance"`
	IsLowBalance bool   `json:"is_low_balance"`
}

// BalanceSnapshot is the full balance picture for one user on one day:
// the pooled cash position, each account's running balance, and the
// overall total across all of them.
type BalanceSnapshot struct {
	UserID   string           `json:"user_id"`
	Date     Date             `json:"date"`
	CashNet  Money            `json:"cash_net"`
	Accounts []AccountBalance `json:"accounts"`
	Overall  Money            `json:"overall"`
}

package report

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a stored report does not exist.
var ErrNotFound = errors.New("report not found")

// Report is the normalized view of one bureau document.
type Report struct {
	BasicDetails   BasicDetails    `json:"basicDetails"`
	ReportSummary  ReportSummary   `json:"reportSummary"`
	CreditAccounts []CreditAccount `json:"creditAccounts"`
}

// BasicDetails identifies the applicant.
type BasicDetails struct {
	Name        string `json:"name"`
	MobilePhone string `json:"mobilePhone"`
	PAN         string `json:"pan"`
	CreditScore int64  `json:"creditScore"`
}

// ReportSummary holds the aggregate account figures.
type ReportSummary struct {
	TotalAccounts                int64   `json:"totalAccounts"`
	ActiveAccounts               int64   `json:"activeAccounts"`
	ClosedAccounts               int64   `json:"closedAccounts"`
	CurrentBalanceAmount         float64 `json:"currentBalanceAmount"`
	SecuredAccountsAmount        float64 `json:"securedAccountsAmount"`
	UnsecuredAccountsAmount      float64 `json:"unsecuredAccountsAmount"`
	LastSevenDaysCreditEnquiries int64   `json:"lastSevenDaysCreditEnquiries"`
}

// CreditAccount is one tradeline.
type CreditAccount struct {
	Type           string  `json:"type"`
	Bank           string  `json:"bank"`
	AccountNumber  string  `json:"accountNumber"`
	Address        string  `json:"address"`
	AmountOverdue  float64 `json:"amountOverdue"`
	CurrentBalance float64 `json:"currentBalance"`
}

// Record is a persisted report with its store-assigned identity.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Report
}

// Facts flattens a report into the nested maps used by expression evaluation.
func (r *Report) Facts() map[string]any {
	accounts := make([]any, 0, len(r.CreditAccounts))
	for _, acc := range r.CreditAccounts {
		accounts = append(accounts, map[string]any{
			"type":           acc.Type,
			"bank":           acc.Bank,
			"accountNumber":  acc.AccountNumber,
			"address":        acc.Address,
			"amountOverdue":  acc.AmountOverdue,
			"currentBalance": acc.CurrentBalance,
		})
	}

	return map[string]any{
		"basicDetails": map[string]any{
			"name":        r.BasicDetails.Name,
			"mobilePhone": r.BasicDetails.MobilePhone,
			"pan":         r.BasicDetails.PAN,
			"creditScore": r.BasicDetails.CreditScore,
		},
		"reportSummary": map[string]any{
			"totalAccounts":                r.ReportSummary.TotalAccounts,
			"activeAccounts":               r.ReportSummary.ActiveAccounts,
			"closedAccounts":               r.ReportSummary.ClosedAccounts,
			"currentBalanceAmount":         r.ReportSummary.CurrentBalanceAmount,
			"securedAccountsAmount":        r.ReportSummary.SecuredAccountsAmount,
			"unsecuredAccountsAmount":      r.ReportSummary.UnsecuredAccountsAmount,
			"lastSevenDaysCreditEnquiries": r.ReportSummary.LastSevenDaysCreditEnquiries,
		},
		"creditAccounts": accounts,
	}
}

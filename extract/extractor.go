// Package extract maps a parsed bureau document onto the normalized report.
package extract

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/liamcoop/creditreports/report"
	"github.com/liamcoop/creditreports/xmltree"
)

// NoPAN is reported when no PAN value was found.
const NoPAN = "N/A"

// PANSource selects where basicDetails.pan comes from.
type PANSource int

const (
	// PANFromAccounts aggregates Income_TAX_PAN across every account's
	// holder identity blocks.
	PANFromAccounts PANSource = iota

	// PANFromApplicant reads IncomeTaxPan from the applicant block. A missing
	// or empty value yields NoPAN, the same as PANFromAccounts, rather than "".
	PANFromApplicant
)

// ParsePANSource maps a configuration value onto a PANSource.
func ParsePANSource(s string) (PANSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accounts":
		return PANFromAccounts, nil
	case "applicant":
		return PANFromApplicant, nil
	default:
		return PANFromAccounts, fmt.Errorf("unknown PAN source %q (use: accounts, applicant)", s)
	}
}

func (s PANSource) String() string {
	if s == PANFromApplicant {
		return "applicant"
	}
	return "accounts"
}

var addressFields = []string{
	"First_Line_Of_Address_non_normalized",
	"Second_Line_Of_Address_non_normalized",
	"Third_Line_Of_Address_non_normalized",
	"City_non_normalized",
	"State_non_normalized",
	"ZIP_Postal_Code_non_normalized",
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPANSource overrides the PAN source.
func WithPANSource(src PANSource) Option {
	return func(x *Extractor) {
		x.panSource = src
	}
}

// Extractor holds no per-document state and is safe for concurrent use.
type Extractor struct {
	panSource PANSource
}

// New creates an Extractor. PANs are aggregated from accounts by default.
func New(opts ...Option) *Extractor {
	x := &Extractor{panSource: PANFromAccounts}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ExtractBytes parses raw XML and extracts the normalized report. It is the
// routine every entry point goes through.
func (x *Extractor) ExtractBytes(data []byte) (*report.Report, error) {
	tree, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	return x.Extract(tree)
}

// Extract walks a tree produced by xmltree.Parse. Missing fields take their
// zero defaults; structural mismatches return a *ProcessingError.
func (x *Extractor) Extract(tree *xmltree.Node) (*report.Report, error) {
	w := &walker{}

	root := w.object(tree.Child(xmltree.RootElement).First(), xmltree.RootElement)
	if root == nil && w.err == nil {
		w.fail(xmltree.RootElement, ErrEmptyRoot)
	}
	if w.err != nil {
		return nil, w.err
	}

	applicant, applicantPath := w.descend(root, xmltree.RootElement,
		"Current_Application", "Current_Application_Details", "Current_Applicant_Details")
	score, scorePath := w.descend(root, xmltree.RootElement, "SCORE")
	cais, caisPath := w.descend(root, xmltree.RootElement, "CAIS_Account")
	summary, summaryPath := w.descend(cais, caisPath, "CAIS_Summary")
	counts, countsPath := w.descend(summary, summaryPath, "Credit_Account")
	outstanding, outstandingPath := w.descend(summary, summaryPath, "Total_Outstanding_Balance")

	firstName := w.text(applicant, applicantPath, "First_Name")
	lastName := w.text(applicant, applicantPath, "Last_Name")

	rep := &report.Report{
		BasicDetails: report.BasicDetails{
			Name:        strings.TrimSpace(firstName + " " + lastName),
			MobilePhone: w.text(applicant, applicantPath, "MobilePhoneNumber"),
			CreditScore: ParseIntOrZero(w.text(score, scorePath, "BureauScore")),
		},
		ReportSummary: report.ReportSummary{
			TotalAccounts:           ParseIntOrZero(w.text(counts, countsPath, "CreditAccountTotal")),
			ActiveAccounts:          ParseIntOrZero(w.text(counts, countsPath, "CreditAccountActive")),
			ClosedAccounts:          ParseIntOrZero(w.text(counts, countsPath, "CreditAccountClosed")),
			CurrentBalanceAmount:    ParseFloatOrZero(w.text(outstanding, outstandingPath, "Outstanding_Balance_All")),
			SecuredAccountsAmount:   ParseFloatOrZero(w.text(outstanding, outstandingPath, "Outstanding_Balance_Secured")),
			UnsecuredAccountsAmount: ParseFloatOrZero(w.text(outstanding, outstandingPath, "Outstanding_Balance_UnSecured")),
		},
	}

	details := cais.Child("CAIS_Account_DETAILS")
	rep.CreditAccounts = make([]report.CreditAccount, 0, details.Len())
	var pans []string
	for i, acc := range details.Items() {
		path := indexed(caisPath+"/CAIS_Account_DETAILS", details, i)
		account, accountPANs := w.account(acc, path)
		rep.CreditAccounts = append(rep.CreditAccounts, account)
		pans = append(pans, accountPANs...)
	}

	if x.panSource == PANFromApplicant {
		pans = []string{w.text(applicant, applicantPath, "IncomeTaxPan")}
	}
	rep.BasicDetails.PAN = joinPANs(pans)

	if w.err != nil {
		return nil, w.err
	}
	return rep, nil
}

func joinPANs(pans []string) string {
	pans = lo.Uniq(lo.Compact(pans))
	if len(pans) == 0 {
		return NoPAN
	}
	return strings.Join(pans, ", ")
}

// walker keeps the first structural error so field reads stay linear.
type walker struct {
	err error
}

func (w *walker) fail(path string, err error) {
	if w.err == nil {
		w.err = &ProcessingError{Path: path, Err: err}
	}
}

// object resolves n as an element with children. Absent nodes and empty
// leaves such as <SCORE/> count as absent.
func (w *walker) object(n *xmltree.Node, path string) *xmltree.Node {
	switch {
	case n == nil:
		return nil
	case n.IsObject():
		return n
	case n.String() == "":
		return nil
	}
	w.fail(path, fmt.Errorf("%w %q", ErrUnexpectedText, n.String()))
	return nil
}

// descend follows the first occurrence of each key below n.
func (w *walker) descend(n *xmltree.Node, path string, keys ...string) (*xmltree.Node, string) {
	for _, key := range keys {
		if n == nil {
			return nil, path
		}
		path += "/" + key
		n = w.object(n.Child(key).First(), path)
	}
	return n, path
}

// text reads the leaf under key, or "" when n or the leaf is absent.
func (w *walker) text(n *xmltree.Node, path, key string) string {
	leaf := n.Child(key).First()
	if leaf.IsObject() {
		w.fail(path+"/"+key, ErrUnexpectedElement)
		return ""
	}
	return leaf.String()
}

func (w *walker) account(n *xmltree.Node, path string) (report.CreditAccount, []string) {
	acc := w.object(n, path)

	account := report.CreditAccount{
		Type:           w.text(acc, path, "Account_Type"),
		Bank:           w.text(acc, path, "Subscriber_Name"),
		AccountNumber:  w.text(acc, path, "Account_Number"),
		Address:        w.address(acc, path),
		AmountOverdue:  ParseFloatOrZero(w.text(acc, path, "Amount_Past_Due")),
		CurrentBalance: ParseFloatOrZero(w.text(acc, path, "Current_Balance")),
	}

	ids := acc.Child("CAIS_Holder_ID_Details")
	pans := make([]string, 0, ids.Len())
	for i, id := range ids.Items() {
		idPath := indexed(path+"/CAIS_Holder_ID_Details", ids, i)
		pans = append(pans, w.text(w.object(id, idPath), idPath, "Income_TAX_PAN"))
	}

	return account, pans
}

// address composes the first holder address; later entries are ignored.
func (w *walker) address(acc *xmltree.Node, path string) string {
	entries := acc.Child("CAIS_Holder_Address_Details")
	path = indexed(path+"/CAIS_Holder_Address_Details", entries, 0)

	addr := w.object(entries.First(), path)
	if addr == nil {
		return ""
	}

	parts := make([]string, 0, len(addressFields))
	for _, field := range addressFields {
		parts = append(parts, w.text(addr, path, field))
	}
	return strings.Join(lo.Compact(parts), ", ")
}

func indexed(path string, v xmltree.Value, i int) string {
	if !v.IsMany() {
		return path
	}
	return fmt.Sprintf("%s[%d]", path, i)
}

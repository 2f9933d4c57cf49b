// Package xmlutils provides XML-related utility functions used throughout the application.
package xmlutils

import "gopkg.in/xmlpath.v2"

// CAMT053 holds the compiled paths used to read a CAMT.053 document.
// Statement paths are evaluated from the document root, entry paths from
// a single Ntry node so that fields of one entry never mix with another.
type CAMT053 struct {
	Statement struct {
		Stmt        *xmlpath.Path
		Entries     *xmlpath.Path
		IBAN        *xmlpath.Path
		OtherAcctID *xmlpath.Path
		Servicer    *xmlpath.Path
		FromDate    *xmlpath.Path
		ToDate      *xmlpath.Path
	}

	Entry struct {
		Amount          *xmlpath.Path
		Currency        *xmlpath.Path
		CreditDebitInd  *xmlpath.Path
		BookingDate     *xmlpath.Path
		BookingDateTime *xmlpath.Path
		ValueDate       *xmlpath.Path
		Status          *xmlpath.Path
		AccountSvcRef   *xmlpath.Path
		AddEntryInfo    *xmlpath.Path
	}

	References struct {
		EndToEndID    *xmlpath.Path
		TransactionID *xmlpath.Path
	}

	Remittance struct {
		UnstructuredInfo *xmlpath.Path
		AdditionalTxInfo *xmlpath.Path
	}

	Party struct {
		DebtorName   *xmlpath.Path
		CreditorName *xmlpath.Path
	}
}

// DefaultCamt053XPaths returns the paths for camt.053.001.02 through .08.
func DefaultCamt053XPaths() CAMT053 {
	camt := CAMT053{}

	camt.Statement.Stmt = xmlpath.MustCompile("//BkToCstmrStmt/Stmt")
	camt.Statement.Entries = xmlpath.MustCompile("//BkToCstmrStmt/Stmt/Ntry")
	camt.Statement.IBAN = xmlpath.MustCompile("//BkToCstmrStmt/Stmt/Acct/Id/IBAN")
	camt.Statement.OtherAcctID = xmlpath.MustCompile("//BkToCstmrStmt/Stmt/Acct/Id/Othr/Id")
	camt.Statement.Servicer = xmlpath.MustCompile("//BkToCstmrStmt/Stmt/Acct/Svcr/FinInstnId/Nm")
	camt.Statement.FromDate = xmlpath.MustCompile("//BkToCstmrStmt/Stmt/FrToDt/FrDtTm")
	camt.Statement.ToDate = xmlpath.MustCompile("//BkToCstmrStmt/Stmt/FrToDt/ToDtTm")

	camt.Entry.Amount = xmlpath.MustCompile("Amt")
	camt.Entry.Currency = xmlpath.MustCompile("Amt/@Ccy")
	camt.Entry.CreditDebitInd = xmlpath.MustCompile("CdtDbtInd")
	camt.Entry.BookingDate = xmlpath.MustCompile("BookgDt/Dt")
	camt.Entry.BookingDateTime = xmlpath.MustCompile("BookgDt/DtTm")
	camt.Entry.ValueDate = xmlpath.MustCompile("ValDt/Dt")
	camt.Entry.Status = xmlpath.MustCompile("Sts")
	camt.Entry.AccountSvcRef = xmlpath.MustCompile("AcctSvcrRef")
	camt.Entry.AddEntryInfo = xmlpath.MustCompile("AddtlNtryInf")

	camt.References.EndToEndID = xmlpath.MustCompile("NtryDtls/TxDtls/Refs/EndToEndId")
	camt.References.TransactionID = xmlpath.MustCompile("NtryDtls/TxDtls/Refs/TxId")

	camt.Remittance.UnstructuredInfo = xmlpath.MustCompile("NtryDtls/TxDtls/RmtInf/Ustrd")
	camt.Remittance.AdditionalTxInfo = xmlpath.MustCompile("NtryDtls/TxDtls/AddtlTxInf")

	camt.Party.DebtorName = xmlpath.MustCompile("NtryDtls/TxDtls/RltdPties/Dbtr/Nm")
	camt.Party.CreditorName = xmlpath.MustCompile("NtryDtls/TxDtls/RltdPties/Cdtr/Nm")

	return camt
}

package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mcclellann/moneymap/pkg/ledger"
	"github.com/mcclellann/moneymap/pkg/models"
)

type createLoanRequest struct {
	LoanName  string          `json:"loan_name" validate:"max=150"`
	Principal decimal.Decimal `json:"principal"`
	Rate      decimal.Decimal `json:"rate"`
	Tenure    int             `json:"tenure"` // years
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date" validate:"required,datetime=2006-01-02"`
	Note   string          `json:"note" validate:"max=255"`
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createLoanRequest
	if !s.decode(w, r, &req) {
		return
	}

	loan, err := s.ledger.CreateLoan(r.Context(), userID, ledger.LoanInput{
		Name:        req.LoanName,
		Principal:   req.Principal,
		Rate:        req.Rate,
		TenureYears: req.Tenure,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, okBody(&loan.ID))
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	loanID, ok := pathID(w, r)
	if !ok {
		return
	}

	loan, err := s.ledger.GetLoan(r.Context(), userID, loanID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	loans, err := s.ledger.ListLoans(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	loanID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.DeleteLoan(r.Context(), userID, loanID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	loanID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	paidDate, err := models.ParseDate(req.Date)
	if err != nil {
		badRequest(w, "date must be a date in YYYY-MM-DD format")
		return
	}

	payment, err := s.ledger.RecordPayment(r.Context(), userID, loanID, ledger.PaymentInput{
		Amount: req.Amount,
		Date:   paidDate,
		Note:   req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, okBody(&payment.ID))
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	loanID, ok := pathID(w, r)
	if !ok {
		return
	}

	payments, err := s.ledger.GetPayments(r.Context(), userID, loanID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

package banking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentCandidate(t *testing.T, amount string, date time.Time, name, ref string) MatchCandidate {
	t.Helper()
	return MatchCandidate{
		ID:        uuid.New(),
		Kind:      CandidatePayment,
		Amount:    usd(t, amount),
		Date:      date,
		Name:      name,
		Reference: ref,
	}
}

func expenseCandidate(t *testing.T, amount string, date time.Time, name string) MatchCandidate {
	t.Helper()
	return MatchCandidate{
		ID:     uuid.New(),
		Kind:   CandidateExpense,
		Amount: usd(t, amount),
		Date:   date,
		Name:   name,
	}
}

func TestSuggestMatches_HardRequirements(t *testing.T) {
	matcher := NewTransactionMatcher()
	now := time.Now()
	txn := createTestTransaction(t, "250.00")
	txn.TransactionDate = now

	tests := []struct {
		name      string
		candidate MatchCandidate
		want      int
	}{
		{name: "exact amount same day", candidate: paymentCandidate(t, "250.00", now, "Acme", ""), want: 1},
		{name: "off by one cent excluded", candidate: paymentCandidate(t, "250.01", now, "Acme", ""), want: 0},
		{name: "inside window", candidate: paymentCandidate(t, "250.00", now.Add(-5*24*time.Hour), "Acme", ""), want: 1},
		{name: "outside window excluded", candidate: paymentCandidate(t, "250.00", now.Add(-6*24*time.Hour), "Acme", ""), want: 0},
		{name: "wrong kind excluded", candidate: expenseCandidate(t, "250.00", now, "Acme"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcher.SuggestMatches(txn, []MatchCandidate{tt.candidate})
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSuggestMatches_OutflowMatchesExpenses(t *testing.T) {
	matcher := NewTransactionMatcher()
	now := time.Now()
	txn := createTestTransaction(t, "-99.95")
	txn.TransactionDate = now
	txn.MerchantName = "Datto"

	got := matcher.SuggestMatches(txn, []MatchCandidate{
		expenseCandidate(t, "99.95", now, "Datto Inc"),
		paymentCandidate(t, "99.95", now, "Datto Inc", ""),
	})

	require.Len(t, got, 1)
	assert.Equal(t, CandidateExpense, got[0].Candidate.Kind)
}

func TestSuggestMatches_Ranking(t *testing.T) {
	matcher := NewTransactionMatcher()
	now := time.Now()
	txn := createTestTransaction(t, "250.00")
	txn.TransactionDate = now
	txn.Name = "ACME NETWORKS ACH PMT"
	txn.Reference = "INV-2026-0001"

	exactDateAndName := paymentCandidate(t, "250.00", now, "Acme Networks", "INV-2026-0001")
	exactDateOnly := paymentCandidate(t, "250.00", now, "Globex Corp", "")
	threeDaysOff := paymentCandidate(t, "250.00", now.Add(3*24*time.Hour), "Acme Networks", "")

	got := matcher.SuggestMatches(txn, []MatchCandidate{threeDaysOff, exactDateOnly, exactDateAndName})
	require.Len(t, got, 3)

	assert.Equal(t, exactDateAndName.ID, got[0].Candidate.ID)
	assert.Equal(t, ConfidenceHigh, got[0].Confidence)
	assert.Greater(t, got[0].Score, got[1].Score)
	assert.Greater(t, got[1].Score, got[2].Score)
}

func TestSuggestMatches_ReconciledTransactionGetsNothing(t *testing.T) {
	matcher := NewTransactionMatcher()
	txn := createTestTransaction(t, "250.00")
	require.NoError(t, txn.ReconcileWithPayment(uuid.New()))

	got := matcher.SuggestMatches(txn, []MatchCandidate{
		paymentCandidate(t, "250.00", txn.TransactionDate, "Acme", ""),
	})
	assert.Empty(t, got)
}

func TestSelectAutoMatch(t *testing.T) {
	matcher := NewTransactionMatcher()
	now := time.Now()

	t.Run("single strong candidate is selected", func(t *testing.T) {
		txn := createTestTransaction(t, "250.00")
		txn.TransactionDate = now

		suggestions := matcher.SuggestMatches(txn, []MatchCandidate{
			paymentCandidate(t, "250.00", now, "Acme Networks", ""),
		})
		got := matcher.SelectAutoMatch(suggestions)
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, got.Score, AutoMatchConfidence)
	})

	t.Run("two equal candidates is ambiguity, no match", func(t *testing.T) {
		txn := createTestTransaction(t, "250.00")
		txn.TransactionDate = now
		txn.Name = ""
		txn.MerchantName = ""
		txn.Reference = ""

		suggestions := matcher.SuggestMatches(txn, []MatchCandidate{
			paymentCandidate(t, "250.00", now, "Client A", ""),
			paymentCandidate(t, "250.00", now, "Client B", ""),
		})
		require.Len(t, suggestions, 2)
		assert.Nil(t, matcher.SelectAutoMatch(suggestions))
	})

	t.Run("weak best candidate is not auto-matched", func(t *testing.T) {
		txn := createTestTransaction(t, "250.00")
		txn.TransactionDate = now
		txn.Name = ""
		txn.MerchantName = ""
		txn.Reference = ""

		suggestions := matcher.SuggestMatches(txn, []MatchCandidate{
			paymentCandidate(t, "250.00", now.Add(-4*24*time.Hour), "Client A", ""),
		})
		require.Len(t, suggestions, 1)
		assert.Nil(t, matcher.SelectAutoMatch(suggestions))
	})

	t.Run("no suggestions yields no match", func(t *testing.T) {
		assert.Nil(t, matcher.SelectAutoMatch(nil))
	})
}

package banking

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// Matching rules. Amount comparison is exact decimal equality with no
// tolerance; a candidate outside the date window is never suggested.
const (
	// MatchWindowDays is how far the candidate date may sit from the
	// transaction date, in either direction
	MatchWindowDays = 5
	// AutoMatchConfidence is the minimum score a suggestion needs before
	// auto-reconciliation may act on it
	AutoMatchConfidence = 0.85

	scoreAmountInWindow = 0.70
	scoreSameDay        = 0.15
	scoreNameOverlap    = 0.10
	scoreReference      = 0.05
)

// CandidateKind tells which ledger a match candidate comes from
type CandidateKind string

const (
	CandidatePayment CandidateKind = "PAYMENT"
	CandidateExpense CandidateKind = "EXPENSE"
)

// MatchCandidate is an unreconciled payment or expense offered to the
// matcher. Amount is always positive; kind carries the direction.
type MatchCandidate struct {
	ID        uuid.UUID
	Kind      CandidateKind
	Amount    valueobject.Money
	Date      time.Time
	Name      string
	Reference string
}

// ConfidenceLevel buckets a match score for display
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// MatchSuggestion is one scored candidate for a transaction
type MatchSuggestion struct {
	Candidate  MatchCandidate
	Score      float64
	Confidence ConfidenceLevel
	DaysApart  int
}

// TransactionMatcher scores unreconciled payments and expenses against
// bank transactions. Inflows match payments, outflows match expenses;
// candidates of the wrong kind are ignored.
type TransactionMatcher struct{}

// NewTransactionMatcher creates a TransactionMatcher
func NewTransactionMatcher() *TransactionMatcher {
	return &TransactionMatcher{}
}

// SuggestMatches returns candidates that pass the hard requirements (exact
// amount, date within the window), scored and sorted best first. Ties sort
// by smaller date distance, then candidate ID for determinism.
func (m *TransactionMatcher) SuggestMatches(txn *BankTransaction, candidates []MatchCandidate) []MatchSuggestion {
	if txn == nil || !txn.CanReconcile() {
		return nil
	}

	wantKind := CandidatePayment
	if txn.IsOutflow() {
		wantKind = CandidateExpense
	}
	target := txn.Amount.Abs()

	suggestions := make([]MatchSuggestion, 0, len(candidates))
	for _, c := range candidates {
		if c.Kind != wantKind {
			continue
		}
		if !c.Amount.Equals(target) {
			continue
		}
		days := daysApart(txn.TransactionDate, c.Date)
		if days > MatchWindowDays {
			continue
		}

		score := scoreAmountInWindow
		if days == 0 {
			score += scoreSameDay
		} else {
			score += scoreSameDay * float64(MatchWindowDays-days) / float64(MatchWindowDays)
		}
		if nameOverlaps(c.Name, txn.Name, txn.MerchantName) {
			score += scoreNameOverlap
		}
		if referenceMatches(c.Reference, txn.Reference) {
			score += scoreReference
		}

		suggestions = append(suggestions, MatchSuggestion{
			Candidate:  c,
			Score:      score,
			Confidence: confidenceFor(score),
			DaysApart:  days,
		})
	}

	sort.SliceStable(suggestions, func(a, b int) bool {
		if suggestions[a].Score != suggestions[b].Score {
			return suggestions[a].Score > suggestions[b].Score
		}
		if suggestions[a].DaysApart != suggestions[b].DaysApart {
			return suggestions[a].DaysApart < suggestions[b].DaysApart
		}
		return suggestions[a].Candidate.ID.String() < suggestions[b].Candidate.ID.String()
	})
	return suggestions
}

// SelectAutoMatch picks the suggestion an unattended sweep may act on. It
// returns nil unless a single candidate holds the top score at or above
// the auto-match bar; two candidates tied at the top is ambiguity, and
// ambiguity means no match.
func (m *TransactionMatcher) SelectAutoMatch(suggestions []MatchSuggestion) *MatchSuggestion {
	if len(suggestions) == 0 {
		return nil
	}
	top := suggestions[0]
	if top.Score < AutoMatchConfidence {
		return nil
	}
	if len(suggestions) > 1 && suggestions[1].Score == top.Score {
		return nil
	}
	return &top
}

func daysApart(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(ad.Sub(bd).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// nameOverlaps reports whether any meaningful token of the candidate name
// appears in the transaction's name or merchant fields
func nameOverlaps(candidateName string, txnFields ...string) bool {
	haystack := strings.ToLower(strings.Join(txnFields, " "))
	if strings.TrimSpace(haystack) == "" {
		return false
	}
	for _, token := range strings.Fields(strings.ToLower(candidateName)) {
		if len(token) < 3 {
			continue
		}
		if strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}

func referenceMatches(candidateRef, txnRef string) bool {
	candidateRef = strings.TrimSpace(candidateRef)
	txnRef = strings.TrimSpace(txnRef)
	if candidateRef == "" || txnRef == "" {
		return false
	}
	return strings.EqualFold(candidateRef, txnRef)
}

func confidenceFor(score float64) ConfidenceLevel {
	switch {
	case score >= 0.90:
		return ConfidenceHigh
	case score >= 0.80:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

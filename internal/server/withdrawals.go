package server

import (
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/store"
)

// withdrawalFilters are the status filter tabs, in display order. "all" is
// the fourth option; "pending" is the default.
var withdrawalFilters = []string{"pending", "approved", "rejected", "all"}

type withdrawalsData struct {
	baseData
	Withdrawals []store.WithdrawalRequest
	Filters     []string
	Filter      string
}

// SortWithdrawals returns the snapshot's requests newest first. The order is
// recomputed from the live snapshot on every render, never persisted.
// Unparsable timestamps sort last.
func SortWithdrawals(withdrawals map[string]store.WithdrawalRequest) []store.WithdrawalRequest {
	out := make([]store.WithdrawalRequest, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339, out[i].Timestamp)
		tj, errj := time.Parse(time.RFC3339, out[j].Timestamp)
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		return ti.After(tj)
	})
	return out
}

// FilterWithdrawals keeps the requests matching the status filter; "all" (or
// anything unrecognized) keeps everything.
func FilterWithdrawals(list []store.WithdrawalRequest, filter string) []store.WithdrawalRequest {
	switch store.WithdrawalStatus(filter) {
	case store.StatusPending, store.StatusApproved, store.StatusRejected:
	default:
		return list
	}
	out := make([]store.WithdrawalRequest, 0, len(list))
	for _, w := range list {
		if w.Status == store.WithdrawalStatus(filter) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Server) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("status")
	if filter == "" {
		filter = "pending"
	}
	sorted := SortWithdrawals(s.hub.Withdrawals())
	s.render(w, http.StatusOK, "withdrawals", withdrawalsData{
		baseData:    newBaseData(r, "Withdrawals", "withdrawals"),
		Withdrawals: FilterWithdrawals(sorted, filter),
		Filters:     withdrawalFilters,
		Filter:      filter,
	})
}

// setWithdrawalStatus issues the single status-field merge for one request.
// No other field is touched and no balance adjustment happens; payout
// execution is manual operator policy.
func (s *Server) setWithdrawalStatus(w http.ResponseWriter, r *http.Request, status store.WithdrawalStatus) {
	id := chi.URLParam(r, "id")

	err := s.store.Merge(r.Context(), store.PathWithdrawals+"/"+id,
		map[string]store.WithdrawalStatus{"status": status})
	metrics.RecordMutation("withdrawal_"+string(status), err)
	if err != nil {
		s.failAction(w, r, "/withdrawals", "withdrawal_"+string(status), err)
		return
	}
	s.log.Info("withdrawal status updated", "id", id, "status", status)
	s.redirect(w, r, "/withdrawals", url.Values{"flash": {"Request marked " + string(status) + "."}})
}

func (s *Server) handleWithdrawalApprove(w http.ResponseWriter, r *http.Request) {
	s.setWithdrawalStatus(w, r, store.StatusApproved)
}

func (s *Server) handleWithdrawalReject(w http.ResponseWriter, r *http.Request) {
	s.setWithdrawalStatus(w, r, store.StatusRejected)
}

// handleWithdrawalDelete removes the request entry outright. Deletion does
// not refund any balance; the confirmation copy states this.
func (s *Server) handleWithdrawalDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.store.Remove(r.Context(), store.PathWithdrawals+"/"+id)
	metrics.RecordMutation("withdrawal_delete", err)
	if err != nil {
		s.failAction(w, r, "/withdrawals", "withdrawal_delete", err)
		return
	}
	s.redirect(w, r, "/withdrawals", url.Values{"flash": {"Request deleted."}})
}

package server

import (
	"net/http"

	"github.com/woomarket/console/internal/store"
)

// DashboardStats are the read-only aggregates shown on the dashboard. They
// are a pure function of the current snapshots; order of entries never
// matters and absent collections produce zeroes.
type DashboardStats struct {
	TotalUsers    int
	TaskCount     int
	PendingCount  int
	ApprovedCount int
	TotalBalance  float64
	TotalEarned   float64
	TotalPaidOut  float64
}

// ComputeStats derives the dashboard aggregates from the given snapshots.
func ComputeStats(tasks map[string]store.Task, users map[string]store.User, withdrawals map[string]store.WithdrawalRequest) DashboardStats {
	stats := DashboardStats{
		TotalUsers: len(users),
		TaskCount:  len(tasks),
	}
	for _, u := range users {
		stats.TotalBalance += u.Balance
		stats.TotalEarned += u.TotalEarned
	}
	for _, w := range withdrawals {
		switch w.Status {
		case store.StatusPending:
			stats.PendingCount++
		case store.StatusApproved:
			stats.ApprovedCount++
			stats.TotalPaidOut += w.Amount
		}
	}
	return stats
}

type dashboardData struct {
	baseData
	Stats     DashboardStats
	Config    store.SiteConfig
	HasConfig bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	siteConfig, hasConfig := s.hub.SiteConfig()
	s.render(w, http.StatusOK, "dashboard", dashboardData{
		baseData:  newBaseData(r, "Dashboard", "dashboard"),
		Stats:     ComputeStats(s.hub.Tasks(), s.hub.Users(), s.hub.Withdrawals()),
		Config:    siteConfig,
		HasConfig: hasConfig,
	})
}

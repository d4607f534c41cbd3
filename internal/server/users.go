package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/store"
)

type usersData struct {
	baseData
	Users  []store.User
	Search string
}

// FilterUsers returns the users whose display name or identifier contains
// search, case-insensitively. An empty search matches everyone. The result
// is sorted by name so renders are stable.
func FilterUsers(users map[string]store.User, search string) []store.User {
	needle := strings.ToLower(search)
	out := make([]store.User, 0, len(users))
	for _, u := range users {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.FullName), needle) ||
			strings.Contains(strings.ToLower(u.ID), needle) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	s.render(w, http.StatusOK, "users", usersData{
		baseData: newBaseData(r, "Users", "users"),
		Users:    FilterUsers(s.hub.Users(), search),
		Search:   search,
	})
}

// ParseBalance parses an operator-supplied replacement balance. Unlike the
// config form, an unparsable value here is rejected before any write.
func ParseBalance(input string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %q", input)
	}
	return v, nil
}

// handleUserBalance overwrites the user's balance with the supplied value.
// Earned and withdrawn totals and referral counts are never touched.
func (s *Server) handleUserBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "/users", url.Values{"error": {"invalid form submission"}})
		return
	}

	balance, err := ParseBalance(r.PostForm.Get("balance"))
	if err != nil {
		s.redirect(w, r, "/users", url.Values{"error": {err.Error()}})
		return
	}

	err = s.store.Merge(r.Context(), store.PathUsers+"/"+id, map[string]float64{"balance": balance})
	metrics.RecordMutation("user_balance", err)
	if err != nil {
		s.failAction(w, r, "/users", "user_balance", err)
		return
	}
	s.log.Info("user balance overwritten", "id", id, "balance", balance)
	s.redirect(w, r, "/users", url.Values{"flash": {"Balance updated."}})
}

package server

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/store"
)

type configData struct {
	baseData
	Config store.SiteConfig
}

// handleConfig renders the global settings form from the latest snapshot.
// There is no server-held draft: a refresh after an external write shows the
// external state, discarding anything the operator had typed but not saved.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	siteConfig, _ := s.hub.SiteConfig()
	s.render(w, http.StatusOK, "config", configData{
		baseData: newBaseData(r, "Global Settings", "config"),
		Config:   siteConfig,
	})
}

// handleConfigSave merges the whole edited document into the config path.
// Payment methods are not part of the form and are left untouched by the
// shallow merge.
func (s *Server) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "/config", url.Values{"error": {"invalid form submission"}})
		return
	}

	edited := decodeConfigForm(r.PostForm)
	err := s.store.Merge(r.Context(), store.PathConfig, edited)
	metrics.RecordMutation("config_save", err)
	if err != nil {
		s.failAction(w, r, "/config", "config_save", err)
		return
	}
	s.redirect(w, r, "/config", url.Values{"saved": {"1"}})
}

// decodeConfigForm maps the posted form onto the typed config document.
// Support links are a typed sub-structure with their own field names; there
// is no string-keyed path parsing.
func decodeConfigForm(form url.Values) store.SiteConfig {
	return store.SiteConfig{
		MonetagZoneId:       form.Get("monetagZoneId"),
		MonetagDailyAdLimit: formFloat(form, "monetagDailyAdLimit"),
		MonetagAdReward:     formFloat(form, "monetagAdReward"),
		MonetagAdTimer:      formFloat(form, "monetagAdTimer"),
		AdexoraZoneId:       form.Get("adexoraZoneId"),
		AdexoraDailyAdLimit: formFloat(form, "adexoraDailyAdLimit"),
		AdexoraAdReward:     formFloat(form, "adexoraAdReward"),

		ReferralBonus:                formFloat(form, "referralBonus"),
		ReferralCommissionPercentage: formFloat(form, "referralCommissionPercentage"),
		MinReferralsForWithdrawal:    formFloat(form, "minReferralsForWithdrawal"),

		SupportLinks: store.SupportLinks{
			Channel: form.Get("supportChannel"),
			Chat:    form.Get("supportChat"),
		},
	}
}

// formFloat parses a numeric form field. An unparsable value yields NaN and
// is still submitted; the store rejects it and the failure surfaces as the
// save error banner. This mirrors the reference console's behavior.
func formFloat(form url.Values, key string) float64 {
	v, err := strconv.ParseFloat(form.Get(key), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

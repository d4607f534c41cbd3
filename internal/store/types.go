package store

// Collection paths in the remote document store.
const (
	PathConfig      = "config"
	PathTasks       = "tasks"
	PathUsers       = "users"
	PathWithdrawals = "withdrawal_requests"
)

// SupportLinks holds the operator-facing contact links shown to end users.
type SupportLinks struct {
	Channel string `json:"channel"`
	Chat    string `json:"chat"`
}

// PaymentMethod describes one named payout option and its minimum amount.
type PaymentMethod struct {
	Name          string  `json:"name"`
	MinWithdrawal float64 `json:"minWithdrawal"`
}

// SiteConfig is the singleton global configuration document. It has no
// identity of its own and is overwritten in place via merge.
type SiteConfig struct {
	MonetagZoneId       string  `json:"monetagZoneId"`
	MonetagDailyAdLimit float64 `json:"monetagDailyAdLimit"`
	MonetagAdReward     float64 `json:"monetagAdReward"`
	MonetagAdTimer      float64 `json:"monetagAdTimer"`
	AdexoraZoneId       string  `json:"adexoraZoneId"`
	AdexoraDailyAdLimit float64 `json:"adexoraDailyAdLimit"`
	AdexoraAdReward     float64 `json:"adexoraAdReward"`

	ReferralBonus                float64 `json:"referralBonus"`
	ReferralCommissionPercentage float64 `json:"referralCommissionPercentage"`
	MinReferralsForWithdrawal    float64 `json:"minReferralsForWithdrawal"`

	SupportLinks   SupportLinks             `json:"supportLinks"`
	PaymentMethods map[string]PaymentMethod `json:"paymentMethods,omitempty"`
}

// TaskCategory is the fixed four-way task categorization.
type TaskCategory string

const (
	CategoryYouTube  TaskCategory = "youtube"
	CategoryTelegram TaskCategory = "telegram"
	CategoryFacebook TaskCategory = "facebook"
	CategoryOther    TaskCategory = "other"
)

// Categories lists all task categories in display order.
func Categories() []TaskCategory {
	return []TaskCategory{CategoryTelegram, CategoryYouTube, CategoryFacebook, CategoryOther}
}

// Icon returns the glyph shown next to tasks of this category.
func (c TaskCategory) Icon() string {
	switch c {
	case CategoryYouTube:
		return "📺"
	case CategoryTelegram:
		return "✈️"
	case CategoryFacebook:
		return "👥"
	default:
		return "⭐"
	}
}

// Task is one catalog entry users can complete for a reward. Tasks are fully
// replaced by operator edits and deleted outright; there is no versioning.
type Task struct {
	ID          string       `json:"id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Reward      float64      `json:"reward"`
	Category    TaskCategory `json:"category"`
}

// User is a platform member. All fields except Balance are mutated by the
// platform's earning flows outside this console; the only operator write is
// the balance overwrite.
type User struct {
	ID                string  `json:"id,omitempty"`
	FullName          string  `json:"fullName"`
	Balance           float64 `json:"balance"`
	TotalEarned       float64 `json:"totalEarned"`
	TotalWithdrawn    float64 `json:"totalWithdrawn"`
	TotalReferrals    int     `json:"totalReferrals"`
	AdsWatchedMonetag int     `json:"adsWatchedMonetag"`
	AdsWatchedAdexora int     `json:"adsWatchedAdexora"`
	CreatedAt         string  `json:"createdAt,omitempty"`
	ReferredBy        string  `json:"referredBy,omitempty"`
}

// WithdrawalStatus is the tri-state request status. Pending moves to approved
// or rejected; both are terminal. Deletion is orthogonal to status.
type WithdrawalStatus string

const (
	StatusPending  WithdrawalStatus = "pending"
	StatusApproved WithdrawalStatus = "approved"
	StatusRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest is a payout request. UserName is denormalized at request
// time and is not kept in sync with the User record.
type WithdrawalRequest struct {
	ID        string           `json:"id,omitempty"`
	UserID    string           `json:"userId"`
	UserName  string           `json:"userName"`
	Method    string           `json:"method"`
	Account   string           `json:"account"`
	Amount    float64          `json:"amount"`
	Status    WithdrawalStatus `json:"status"`
	Timestamp string           `json:"timestamp"`
}

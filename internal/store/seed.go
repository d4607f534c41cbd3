package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// SeedDemoData loads a small fixture set into s for local development.
func SeedDemoData(ctx context.Context, s Store, clock clockwork.Clock) error {
	now := clock.Now().UTC()

	if err := s.Merge(ctx, PathConfig, SiteConfig{
		MonetagZoneId:                "demo-zone-1",
		MonetagDailyAdLimit:          40,
		MonetagAdReward:              0.5,
		MonetagAdTimer:               15,
		AdexoraZoneId:                "demo-zone-2",
		AdexoraDailyAdLimit:          30,
		AdexoraAdReward:              0.4,
		ReferralBonus:                5,
		ReferralCommissionPercentage: 10,
		MinReferralsForWithdrawal:    3,
		SupportLinks: SupportLinks{
			Channel: "https://t.me/woomarket",
			Chat:    "https://t.me/woomarket_admin",
		},
		PaymentMethods: map[string]PaymentMethod{
			"bkash": {Name: "bKash", MinWithdrawal: 100},
			"nagad": {Name: "Nagad", MinWithdrawal: 150},
		},
	}); err != nil {
		return fmt.Errorf("failed to seed config: %w", err)
	}

	tasks := []Task{
		{Title: "Join our channel", Description: "Join the announcement channel and stay subscribed.", URL: "https://t.me/woomarket", Reward: 2, Category: CategoryTelegram},
		{Title: "Subscribe on YouTube", Description: "Subscribe and watch the latest video.", URL: "https://youtube.com/@woomarket", Reward: 3, Category: CategoryYouTube},
		{Title: "Like our page", Description: "Follow the official page.", URL: "https://facebook.com/woomarket", Reward: 1.5, Category: CategoryFacebook},
	}
	for _, task := range tasks {
		if _, err := s.Append(ctx, PathTasks, task); err != nil {
			return fmt.Errorf("failed to seed task: %w", err)
		}
	}

	users := []User{
		{FullName: "Ayesha Rahman", Balance: 120.5, TotalEarned: 310, TotalWithdrawn: 150, TotalReferrals: 4, AdsWatchedMonetag: 62, AdsWatchedAdexora: 18, CreatedAt: now.Add(-40 * 24 * time.Hour).Format(time.RFC3339)},
		{FullName: "Tanvir Hasan", Balance: 35, TotalEarned: 95, TotalWithdrawn: 60, TotalReferrals: 1, AdsWatchedMonetag: 20, AdsWatchedAdexora: 11, CreatedAt: now.Add(-12 * 24 * time.Hour).Format(time.RFC3339)},
		{FullName: "Nusrat Jahan", Balance: 210, TotalEarned: 210, TotalReferrals: 7, AdsWatchedMonetag: 80, CreatedAt: now.Add(-3 * 24 * time.Hour).Format(time.RFC3339)},
	}
	userIDs := make([]string, 0, len(users))
	for _, user := range users {
		id, err := s.Append(ctx, PathUsers, user)
		if err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	withdrawals := []WithdrawalRequest{
		{UserID: userIDs[0], UserName: "Ayesha Rahman", Method: "bKash", Account: "01711000000", Amount: 100, Status: StatusPending, Timestamp: now.Add(-2 * time.Hour).Format(time.RFC3339)},
		{UserID: userIDs[1], UserName: "Tanvir Hasan", Method: "Nagad", Account: "01822000000", Amount: 150, Status: StatusApproved, Timestamp: now.Add(-30 * time.Hour).Format(time.RFC3339)},
		{UserID: userIDs[2], UserName: "Nusrat Jahan", Method: "bKash", Account: "01933000000", Amount: 200, Status: StatusRejected, Timestamp: now.Add(-70 * time.Hour).Format(time.RFC3339)},
	}
	for _, w := range withdrawals {
		if _, err := s.Append(ctx, PathWithdrawals, w); err != nil {
			return fmt.Errorf("failed to seed withdrawal: %w", err)
		}
	}

	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"genesis-intake/metrics"
	"genesis-intake/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminService answers the read-only back-office queries. Every answer is
// computed from the store's current contents.
type AdminService struct {
	Store            SubmissionStore
	Metals           []string
	LeaderboardLimit int
	DisplayLimit     int
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

func NewAdminService(store SubmissionStore, metals []string, limit, display int, m *metrics.Metrics) *AdminService {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if display <= 0 || display > limit {
		display = DefaultLeaderboardDisplay
	}
	return &AdminService{
		Store:            store,
		Metals:           metals,
		LeaderboardLimit: limit,
		DisplayLimit:     display,
		Metrics:          m,
		Now:              time.Now,
	}
}

// Dashboard assembles the back-office view model from one read of the store.
func (s *AdminService) Dashboard(ctx context.Context) (models.DashboardView, error) {
	subs, err := s.Store.All(ctx)
	if err != nil {
		return models.DashboardView{}, fmt.Errorf("load dashboard: %w", err)
	}
	return BuildDashboard(subs, s.Metals, s.DisplayLimit, s.Now().UTC()), nil
}

// GetPending is GET /api/admin/pending.
func (s *AdminService) GetPending(c *fiber.Ctx) error {
	s.Metrics.AdminRequest("pending")
	pending, err := s.Store.FindPending(c.UserContext())
	if err != nil {
		return adminError(c, "pending", err)
	}
	return ok(c, pending)
}

// GetStats is GET /api/admin/stats.
func (s *AdminService) GetStats(c *fiber.Ctx) error {
	s.Metrics.AdminRequest("stats")
	stats, err := s.Store.AggregateStats(c.UserContext())
	if err != nil {
		return adminError(c, "stats", err)
	}
	return ok(c, stats)
}

// GetLeaderboard is GET /api/admin/leaderboard?limit=N. N is capped at the
// configured leaderboard limit.
func (s *AdminService) GetLeaderboard(c *fiber.Ctx) error {
	s.Metrics.AdminRequest("leaderboard")
	limit := c.QueryInt("limit", s.LeaderboardLimit)
	if limit <= 0 || limit > s.LeaderboardLimit {
		limit = s.LeaderboardLimit
	}
	board, err := s.Store.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return adminError(c, "leaderboard", err)
	}
	return ok(c, board)
}

// GetDashboard is GET /api/admin/dashboard.
func (s *AdminService) GetDashboard(c *fiber.Ctx) error {
	s.Metrics.AdminRequest("dashboard")
	view, err := s.Dashboard(c.UserContext())
	if err != nil {
		return adminError(c, "dashboard", err)
	}
	return ok(c, view)
}

// GetReferralStats is GET /api/admin/referrals/:referral_id.
func (s *AdminService) GetReferralStats(c *fiber.Ctx) error {
	s.Metrics.AdminRequest("referrals")
	id := strings.ToUpper(strings.TrimSpace(c.Params("referral_id")))
	stats, err := s.Store.ReferralStats(c.UserContext(), id)
	if err != nil {
		return adminError(c, "referrals", err)
	}
	return ok(c, stats)
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func adminError(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, ErrSubmissionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Not found"})
	}
	zap.L().Error("❌ [ADMIN] query failed", zap.String("action", action), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Internal server error",
		"message": "query failed",
	})
}

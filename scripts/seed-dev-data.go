package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/repository"
)

type output struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Tier      string `json:"tier"`
	SessionID string `json:"session_id"`
	ChartID   string `json:"chart_id"`
	CSVID     string `json:"csv_id"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "dev@patlas.local", "User email")
		tier        = flag.String("tier", model.TierUnlimited, "Subscription tier (free,pay_per_use,unlimited)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	if !isValidTier(*tier) {
		fmt.Fprintf(os.Stderr, "invalid tier: %s\n", *tier)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user, err := ensureUser(ctx, repo, *email, *tier)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	session, err := seedChatSession(ctx, repo, user.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	chartID, csvID, err := seedArtifacts(ctx, repo, user.ID, session.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		Tier:      user.Tier,
		SessionID: session.ID,
		ChartID:   chartID,
		CSVID:     csvID,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func isValidTier(tier string) bool {
	for _, allowed := range model.ValidTiers {
		if tier == allowed {
			return true
		}
	}
	return false
}

func ensureUser(ctx context.Context, repo *repository.Repository, email, tier string) (*model.User, error) {
	if existing, err := repo.GetUserByEmail(ctx, email); err == nil {
		if existing.Tier != tier {
			return nil, fmt.Errorf("user %s exists with tier %s", email, existing.Tier)
		}
		return existing, nil
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:               uuid.New().String(),
		Email:            email,
		Name:             "Dev User",
		Tier:             tier,
		EmailConfirmedAt: &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func seedChatSession(ctx context.Context, repo *repository.Repository, userID string) (*model.ChatSession, error) {
	now := time.Now().UTC()
	session := &model.ChatSession{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Title:     "Prior art for widget fasteners",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateChatSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}

	messages := []struct {
		role    string
		content string
	}{
		{model.RoleUser, "Find patents about self-locking widget fasteners."},
		{model.RoleAssistant, "I found 12 relevant patents. The closest match is US1234567A."},
	}
	for _, m := range messages {
		msg := &model.ChatMessage{
			ID:        ulid.Make().String(),
			SessionID: session.ID,
			Role:      m.role,
			Content:   m.content,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.AppendChatMessage(ctx, userID, msg); err != nil {
			return nil, fmt.Errorf("append chat message: %w", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	return session, nil
}

func seedArtifacts(ctx context.Context, repo *repository.Repository, userID, sessionID string) (string, string, error) {
	chart := &model.Chart{
		ID:         uuid.New().String(),
		UserID:     userID,
		SessionID:  sessionID,
		ChartType:  model.ChartBar,
		Title:      "Widget fastener filings per year",
		XLabel:     "Year",
		YLabel:     "Filings",
		DataSeries: json.RawMessage(`[{"label":"2021","value":8},{"label":"2022","value":11},{"label":"2023","value":14}]`),
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.CreateChart(ctx, chart); err != nil {
		return "", "", fmt.Errorf("create chart: %w", err)
	}

	csvArtifact := &model.CSVArtifact{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: sessionID,
		Filename:  "widget-fasteners.csv",
		Columns:   []string{"patent_id", "title", "year"},
		RowCount:  2,
		Content:   "patent_id,title,year\nUS1234567A,Self-locking widget fastener,2021\nUS2345678B1,Quick-release widget mount,2022\n",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateCSVArtifact(ctx, csvArtifact); err != nil {
		return "", "", fmt.Errorf("create csv artifact: %w", err)
	}

	return chart.ID, csvArtifact.ID, nil
}

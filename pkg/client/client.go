package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError はサーバーが返した失敗エンベロープを表す。
type APIError struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Profile はユーザープロフィールを表す。
type Profile struct {
	UserID          string     `json:"userId"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"displayName"`
	PhotoURL        string     `json:"photoURL"`
	AccountType     string     `json:"accountType"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsPremium       bool       `json:"isPremium"`
	PremiumUntil    *time.Time `json:"premiumUntil"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     time.Time  `json:"lastLoginAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Progress は学習進捗レコードを表す。
type Progress struct {
	CompletedLessons      []string   `json:"completedLessons"`
	CurrentLesson         string     `json:"currentLesson"`
	InProgressLessons     []string   `json:"inProgressLessons"`
	TotalScore            int        `json:"totalScore"`
	TotalStars            int        `json:"totalStars"`
	Streak                int        `json:"streak"`
	LongestStreak         int        `json:"longestStreak"`
	TodayProgress         int        `json:"todayProgress"`
	LastPracticeDate      *time.Time `json:"lastPracticeDate"`
	TotalPracticeTime     int        `json:"totalPracticeTime"`
	LessonsCompleted      int        `json:"lessonsCompleted"`
	SignsLearned          int        `json:"signsLearned"`
	PracticeSessionsCount int        `json:"practiceSessionsCount"`
	AverageAccuracy       float64    `json:"averageAccuracy"`
	BestAccuracy          float64    `json:"bestAccuracy"`
}

// Settings はユーザー設定を表す。
type Settings struct {
	PracticeReminders        bool   `json:"practiceReminders"`
	AchievementNotifications bool   `json:"achievementNotifications"`
	SoundEnabled             bool   `json:"soundEnabled"`
	MusicEnabled             bool   `json:"musicEnabled"`
	HapticEnabled            bool   `json:"hapticEnabled"`
	Theme                    string `json:"theme"`
	Language                 string `json:"language"`
	DailyGoal                int    `json:"dailyGoal"`
	DifficultyLevel          string `json:"difficultyLevel"`
}

// SettingsPatch は設定の部分更新を表す。nilフィールドは変更しない。
type SettingsPatch struct {
	PracticeReminders        *bool   `json:"practiceReminders,omitempty"`
	AchievementNotifications *bool   `json:"achievementNotifications,omitempty"`
	SoundEnabled             *bool   `json:"soundEnabled,omitempty"`
	MusicEnabled             *bool   `json:"musicEnabled,omitempty"`
	HapticEnabled            *bool   `json:"hapticEnabled,omitempty"`
	Theme                    *string `json:"theme,omitempty"`
	Language                 *string `json:"language,omitempty"`
	DailyGoal                *int    `json:"dailyGoal,omitempty"`
	DifficultyLevel          *string `json:"difficultyLevel,omitempty"`
}

// CompletionResult はレッスン完了報告の結果を表す。
type CompletionResult struct {
	AlreadyCompleted bool `json:"alreadyCompleted"`
	Streak           int  `json:"streak"`
	LongestStreak    int  `json:"longestStreak"`
}

// StreakInfo はストリーク照会の結果を表す。
type StreakInfo struct {
	Streak           int        `json:"streak"`
	LongestStreak    int        `json:"longestStreak"`
	LastPracticeDate *time.Time `json:"lastPracticeDate"`
}

// StreakResult はストリーク更新の結果を表す。
type StreakResult struct {
	Streak        int `json:"streak"`
	LongestStreak int `json:"longestStreak"`
}

// Client はAPIサーバーへのHTTPクライアント。
// 読み取り系リソース（プロフィール、進捗統計、完了済みレッスン）をTTLキャッシュし、
// 変更操作の成功直後に関連キャッシュを同期的に無効化する。
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *Cache
	now        func() time.Time
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithHTTPClient は使用するHTTPクライアントを差し替える。
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock はキャッシュのTTL判定に使用するクロックを差し替える。
// テストでの時刻制御用。
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
		c.cache = NewCache(now)
	}
}

// New は新しいClientを生成する。
// tokenはAuthorizationヘッダーにbearerトークンとして付与される。
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	c.cache = NewCache(c.now)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Cache はクライアントが保持するキャッシュインスタンスを返す。
// 明示的な無効化（InvalidateAllなど）を行う場合に使用する。
func (c *Client) Cache() *Cache {
	return c.cache
}

// Register はユーザー登録を行う。
// 成功時は全キャッシュを無効化する（登録によりサーバー側状態が変わるため）。
func (c *Client) Register(ctx context.Context, displayName string) (*Profile, error) {
	var envelope struct {
		Success bool    `json:"success"`
		Error   string  `json:"error"`
		Data    Profile `json:"data"`
	}

	body := map[string]string{}
	if displayName != "" {
		body["displayName"] = displayName
	}

	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	c.cache.InvalidateAll()
	return &envelope.Data, nil
}

// GetProfile はプロフィールを取得する。TTL内はキャッシュを返す。
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	if cached, ok := c.cache.Get(KindProfile); ok {
		return cached.(*Profile), nil
	}

	var envelope struct {
		Success bool    `json:"success"`
		Error   string  `json:"error"`
		Data    Profile `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	profile := &envelope.Data
	c.cache.Set(KindProfile, profile)
	return profile, nil
}

// UpdateProfile はプロフィールの部分更新を行う。
// 成功時はプロフィールキャッシュを無効化する。
func (c *Client) UpdateProfile(ctx context.Context, displayName, photoURL *string) (*Profile, error) {
	body := map[string]any{}
	if displayName != nil {
		body["displayName"] = *displayName
	}
	if photoURL != nil {
		body["photoURL"] = *photoURL
	}

	var envelope struct {
		Success bool    `json:"success"`
		Error   string  `json:"error"`
		Data    Profile `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/auth/profile", body, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	c.cache.Invalidate(KindProfile)
	return &envelope.Data, nil
}

// GetSettings はユーザー設定を取得する。設定はキャッシュ対象外。
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var envelope struct {
		Success bool     `json:"success"`
		Error   string   `json:"error"`
		Data    Settings `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/settings", nil, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// UpdateSettings は設定の部分更新を適用する。
func (c *Client) UpdateSettings(ctx context.Context, patch *SettingsPatch) (*Settings, error) {
	var envelope struct {
		Success bool     `json:"success"`
		Error   string   `json:"error"`
		Data    Settings `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/auth/settings", patch, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// GetProgress は進捗統計を取得する。TTL内はキャッシュを返す。
func (c *Client) GetProgress(ctx context.Context) (*Progress, error) {
	if cached, ok := c.cache.Get(KindStats); ok {
		return cached.(*Progress), nil
	}

	var envelope struct {
		Success bool     `json:"success"`
		Error   string   `json:"error"`
		Data    Progress `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/progress", nil, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	progress := &envelope.Data
	c.cache.Set(KindStats, progress)
	return progress, nil
}

// GetCompletedLessons は完了済みレッスンIDの一覧を取得する。TTL内はキャッシュを返す。
func (c *Client) GetCompletedLessons(ctx context.Context) ([]string, error) {
	if cached, ok := c.cache.Get(KindCompletedLessons); ok {
		return cached.([]string), nil
	}

	var envelope struct {
		Success bool     `json:"success"`
		Error   string   `json:"error"`
		Lessons []string `json:"lessons"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/progress/completed-lessons", nil, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	lessons := envelope.Lessons
	if lessons == nil {
		lessons = []string{}
	}
	c.cache.Set(KindCompletedLessons, lessons)
	return lessons, nil
}

// CompleteLesson はレッスン完了を報告する。
// 成功時は進捗統計と完了済みレッスンのキャッシュを無効化する。
func (c *Client) CompleteLesson(ctx context.Context, lessonID string, score, stars, signsLearned int) (*CompletionResult, error) {
	body := map[string]any{
		"lessonId":     lessonID,
		"score":        score,
		"stars":        stars,
		"signsLearned": signsLearned,
	}

	var envelope struct {
		Success          bool   `json:"success"`
		Error            string `json:"error"`
		AlreadyCompleted bool   `json:"alreadyCompleted"`
		Streak           int    `json:"streak"`
		LongestStreak    int    `json:"longestStreak"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/progress/lesson", body, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	c.cache.Invalidate(KindStats)
	c.cache.Invalidate(KindCompletedLessons)

	return &CompletionResult{
		AlreadyCompleted: envelope.AlreadyCompleted,
		Streak:           envelope.Streak,
		LongestStreak:    envelope.LongestStreak,
	}, nil
}

// UpdateTodayProgress は本日の進捗率を設定する。
// 成功時は進捗統計キャッシュを無効化する。
func (c *Client) UpdateTodayProgress(ctx context.Context, percent int) error {
	body := map[string]any{"progress": percent}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/progress/today", body, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return err
	}

	c.cache.Invalidate(KindStats)
	return nil
}

// AddPracticeTime は練習時間（分）を記録する。
// 成功時は進捗統計キャッシュを無効化する。
func (c *Client) AddPracticeTime(ctx context.Context, minutes int) error {
	body := map[string]any{"minutes": minutes}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/progress/practice-time", body, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return err
	}

	c.cache.Invalidate(KindStats)
	return nil
}

// GetStreak はストリーク情報を取得する。
func (c *Client) GetStreak(ctx context.Context) (*StreakInfo, error) {
	var envelope struct {
		Success          bool       `json:"success"`
		Error            string     `json:"error"`
		Streak           int        `json:"streak"`
		LongestStreak    int        `json:"longestStreak"`
		LastPracticeDate *time.Time `json:"lastPracticeDate"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/streak", nil, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	return &StreakInfo{
		Streak:           envelope.Streak,
		LongestStreak:    envelope.LongestStreak,
		LastPracticeDate: envelope.LastPracticeDate,
	}, nil
}

// UpdateStreak はストリークの再計算をサーバーに要求する。
// 成功時は進捗統計キャッシュを無効化する。
func (c *Client) UpdateStreak(ctx context.Context) (*StreakResult, error) {
	var envelope struct {
		Success       bool   `json:"success"`
		Error         string `json:"error"`
		Streak        int    `json:"streak"`
		LongestStreak int    `json:"longestStreak"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/streak/update", nil, &envelope, &envelope.Success, &envelope.Error); err != nil {
		return nil, err
	}

	c.cache.Invalidate(KindStats)

	return &StreakResult{
		Streak:        envelope.Streak,
		LongestStreak: envelope.LongestStreak,
	}, nil
}

// doJSON はJSONリクエストを送信し、エンベロープをデコードする。
// success=falseの場合はAPIErrorを返す。失敗したレスポンスはキャッシュに格納されない。
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any, envelope any, success *bool, errMsg *string) error {
	var bodyReader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !*success {
		message := *errMsg
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return nil
}

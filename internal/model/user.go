// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDは外部IdPが発行するユーザー識別子をそのまま使用する。
type User struct {
	ID              string
	Email           string
	DisplayName     string
	PhotoURL        string
	AccountType     string
	IsEmailVerified bool
	IsPremium       bool
	PremiumUntil    *time.Time
	CreatedAt       time.Time
	LastLoginAt     time.Time
	UpdatedAt       time.Time
}

// Progress はユーザーごとの学習進捗レコードを表す。
// カウンター類はアカウントリセットを除き単調非減少。
type Progress struct {
	UserID                string
	CompletedLessons      []string
	CurrentLesson         string
	InProgressLessons     []string
	TotalScore            int
	TotalStars            int
	Streak                int
	LongestStreak         int
	TodayProgress         int
	LastPracticeDate      *time.Time
	TotalPracticeTime     int
	LessonsCompleted      int
	SignsLearned          int
	PracticeSessionsCount int
	AverageAccuracy       float64
	BestAccuracy          float64
	UpdatedAt             time.Time
}

// Settings はユーザー設定を表す。
type Settings struct {
	UserID                   string
	PracticeReminders        bool
	AchievementNotifications bool
	SoundEnabled             bool
	MusicEnabled             bool
	HapticEnabled            bool
	Theme                    string
	Language                 string
	DailyGoal                int
	DifficultyLevel          string
	UpdatedAt                time.Time
}

// SettingsPatch は設定の部分更新を表す。
// nilフィールドは変更しない。許可された設定キー以外は受け付けない。
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

// IsEmpty は更新対象のフィールドが1つも無い場合にtrueを返す。
func (p *SettingsPatch) IsEmpty() bool {
	return p.PracticeReminders == nil &&
		p.AchievementNotifications == nil &&
		p.SoundEnabled == nil &&
		p.MusicEnabled == nil &&
		p.HapticEnabled == nil &&
		p.Theme == nil &&
		p.Language == nil &&
		p.DailyGoal == nil &&
		p.DifficultyLevel == nil
}

// LessonCompletionResult はレッスン完了操作の結果を表す。
type LessonCompletionResult struct {
	// AlreadyCompleted は同一レッスンが完了済みで何も変更されなかったことを示す。
	AlreadyCompleted bool
	Streak           int
	LongestStreak    int
}

// StreakResult はストリーク更新操作の結果を表す。
type StreakResult struct {
	Streak        int
	LongestStreak int
}

// StreakInfo はストリーク照会の結果を表す。
type StreakInfo struct {
	Streak           int
	LongestStreak    int
	LastPracticeDate *time.Time
}

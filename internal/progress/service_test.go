package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/signage/internal/model"
)

// mockProgressRepo は関数フィールドで挙動を差し替えられるProgressRepositoryモック。
type mockProgressRepo struct {
	findByUserIDFunc          func(ctx context.Context, userID string) (*model.Progress, error)
	completeLessonFunc        func(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error)
	updateStreakFunc          func(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error)
	setTodayProgressFunc      func(ctx context.Context, userID string, percent int, now time.Time) (bool, error)
	addPracticeTimeFunc       func(ctx context.Context, userID string, minutes int, now time.Time) (bool, error)
	resetTodayProgressAllFunc func(ctx context.Context) (int64, error)
}

func (m *mockProgressRepo) FindByUserID(ctx context.Context, userID string) (*model.Progress, error) {
	return m.findByUserIDFunc(ctx, userID)
}

func (m *mockProgressRepo) CompleteLesson(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error) {
	return m.completeLessonFunc(ctx, userID, lessonID, score, stars, signsLearned, now)
}

func (m *mockProgressRepo) UpdateStreak(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error) {
	return m.updateStreakFunc(ctx, userID, now)
}

func (m *mockProgressRepo) SetTodayProgress(ctx context.Context, userID string, percent int, now time.Time) (bool, error) {
	return m.setTodayProgressFunc(ctx, userID, percent, now)
}

func (m *mockProgressRepo) AddPracticeTime(ctx context.Context, userID string, minutes int, now time.Time) (bool, error) {
	return m.addPracticeTimeFunc(ctx, userID, minutes, now)
}

func (m *mockProgressRepo) ResetTodayProgressAll(ctx context.Context) (int64, error) {
	return m.resetTodayProgressAllFunc(ctx)
}

// recordingCollector はメトリクス呼び出しを記録するMetricsCollectorモック。
type recordingCollector struct {
	lessonCompleted int
	lessonReplayed  int
	streakUpdated   int
	streakReset     int
	practiceMinutes int
}

func (c *recordingCollector) RecordLessonCompleted(lessonID string)       { c.lessonCompleted++ }
func (c *recordingCollector) RecordLessonReplayed(lessonID string)        { c.lessonReplayed++ }
func (c *recordingCollector) RecordStreakUpdated()                        { c.streakUpdated++ }
func (c *recordingCollector) RecordStreakReset()                          { c.streakReset++ }
func (c *recordingCollector) RecordPracticeMinutes(minutes int)           { c.practiceMinutes += minutes }
func (c *recordingCollector) RecordHTTPStatus(statusCode int)             {}
func (c *recordingCollector) RecordRequestLatency(duration time.Duration) {}

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *model.APIError: %v", err)
	}
	return apiErr.Code
}

func TestGetProgress_NotFound(t *testing.T) {
	repo := &mockProgressRepo{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Progress, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	_, err := svc.GetProgress(context.Background(), "missing")
	if code := apiErrorCode(t, err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

func TestGetProgress_Found(t *testing.T) {
	repo := &mockProgressRepo{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Progress, error) {
			return &model.Progress{UserID: userID, Streak: 3, TotalScore: 450}, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	progress, err := svc.GetProgress(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if progress.Streak != 3 || progress.TotalScore != 450 {
		t.Errorf("unexpected progress: %+v", progress)
	}
}

func TestCompletedLessons_AbsentUserReturnsEmptySlice(t *testing.T) {
	repo := &mockProgressRepo{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Progress, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	lessons, err := svc.CompletedLessons(context.Background(), "missing")
	if err != nil {
		t.Fatalf("CompletedLessons() error = %v", err)
	}
	if lessons == nil {
		t.Fatal("lessons = nil, want empty slice")
	}
	if len(lessons) != 0 {
		t.Errorf("len(lessons) = %d, want 0", len(lessons))
	}
}

func TestCompletedLessons_ReturnsList(t *testing.T) {
	repo := &mockProgressRepo{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Progress, error) {
			return &model.Progress{UserID: userID, CompletedLessons: []string{"lesson_1", "lesson_2"}}, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	lessons, err := svc.CompletedLessons(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CompletedLessons() error = %v", err)
	}
	if len(lessons) != 2 || lessons[0] != "lesson_1" {
		t.Errorf("lessons = %v, want [lesson_1 lesson_2]", lessons)
	}
}

func TestCompleteLesson_EmptyLessonID(t *testing.T) {
	svc := NewService(&mockProgressRepo{}, nil, fixedClock)

	_, err := svc.CompleteLesson(context.Background(), "user-1", "", 100, 3, 5)
	if code := apiErrorCode(t, err); code != model.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, model.ErrCodeInvalidInput)
	}
}

func TestCompleteLesson_NegativeValues(t *testing.T) {
	svc := NewService(&mockProgressRepo{}, nil, fixedClock)

	_, err := svc.CompleteLesson(context.Background(), "user-1", "lesson_1", -1, 0, 0)
	if code := apiErrorCode(t, err); code != model.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, model.ErrCodeInvalidInput)
	}
}

func TestCompleteLesson_FirstCompletion(t *testing.T) {
	collector := &recordingCollector{}
	repo := &mockProgressRepo{
		completeLessonFunc: func(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error) {
			if lessonID != "lesson_1" || score != 100 || stars != 3 || signsLearned != 5 {
				t.Errorf("unexpected args: lessonID=%q score=%d stars=%d signsLearned=%d", lessonID, score, stars, signsLearned)
			}
			if !now.Equal(fixedNow) {
				t.Errorf("now = %v, want %v", now, fixedNow)
			}
			return &model.LessonCompletionResult{Streak: 4, LongestStreak: 7}, nil
		},
	}
	svc := NewService(repo, collector, fixedClock)

	result, err := svc.CompleteLesson(context.Background(), "user-1", "lesson_1", 100, 3, 5)
	if err != nil {
		t.Fatalf("CompleteLesson() error = %v", err)
	}
	if result.AlreadyCompleted {
		t.Error("AlreadyCompleted = true, want false")
	}
	if collector.lessonCompleted != 1 || collector.lessonReplayed != 0 {
		t.Errorf("metrics: completed=%d replayed=%d, want 1/0", collector.lessonCompleted, collector.lessonReplayed)
	}
}

func TestCompleteLesson_ReplayIsNoOp(t *testing.T) {
	collector := &recordingCollector{}
	repo := &mockProgressRepo{
		completeLessonFunc: func(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error) {
			return &model.LessonCompletionResult{AlreadyCompleted: true, Streak: 4, LongestStreak: 7}, nil
		},
	}
	svc := NewService(repo, collector, fixedClock)

	result, err := svc.CompleteLesson(context.Background(), "user-1", "lesson_1", 100, 3, 5)
	if err != nil {
		t.Fatalf("CompleteLesson() error = %v", err)
	}
	if !result.AlreadyCompleted {
		t.Error("AlreadyCompleted = false, want true")
	}
	if collector.lessonCompleted != 0 || collector.lessonReplayed != 1 {
		t.Errorf("metrics: completed=%d replayed=%d, want 0/1", collector.lessonCompleted, collector.lessonReplayed)
	}
}

func TestCompleteLesson_UserNotFound(t *testing.T) {
	repo := &mockProgressRepo{
		completeLessonFunc: func(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	_, err := svc.CompleteLesson(context.Background(), "missing", "lesson_1", 100, 3, 5)
	if code := apiErrorCode(t, err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

func TestUpdateStreak_RecordsMetrics(t *testing.T) {
	collector := &recordingCollector{}
	repo := &mockProgressRepo{
		updateStreakFunc: func(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error) {
			return &model.StreakResult{Streak: 5, LongestStreak: 8}, nil
		},
	}
	svc := NewService(repo, collector, fixedClock)

	result, err := svc.UpdateStreak(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UpdateStreak() error = %v", err)
	}
	if result.Streak != 5 || result.LongestStreak != 8 {
		t.Errorf("result = %+v, want Streak=5 LongestStreak=8", result)
	}
	if collector.streakUpdated != 1 || collector.streakReset != 0 {
		t.Errorf("metrics: updated=%d reset=%d, want 1/0", collector.streakUpdated, collector.streakReset)
	}
}

func TestUpdateStreak_ResetRecordsResetMetric(t *testing.T) {
	collector := &recordingCollector{}
	repo := &mockProgressRepo{
		updateStreakFunc: func(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error) {
			return &model.StreakResult{Streak: 1, LongestStreak: 8}, nil
		},
	}
	svc := NewService(repo, collector, fixedClock)

	if _, err := svc.UpdateStreak(context.Background(), "user-1"); err != nil {
		t.Fatalf("UpdateStreak() error = %v", err)
	}
	if collector.streakReset != 1 {
		t.Errorf("streakReset = %d, want 1", collector.streakReset)
	}
}

func TestUpdateStreak_UserNotFound(t *testing.T) {
	repo := &mockProgressRepo{
		updateStreakFunc: func(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	_, err := svc.UpdateStreak(context.Background(), "missing")
	if code := apiErrorCode(t, err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

func TestGetStreak_AbsentUserReturnsZeros(t *testing.T) {
	repo := &mockProgressRepo{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Progress, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	info, err := svc.GetStreak(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetStreak() error = %v", err)
	}
	if info.Streak != 0 || info.LongestStreak != 0 || info.LastPracticeDate != nil {
		t.Errorf("info = %+v, want zeros", info)
	}
}

func TestGetStreak_Found(t *testing.T) {
	last := fixedNow.Add(-24 * time.Hour)
	repo := &mockProgressRepo{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Progress, error) {
			return &model.Progress{UserID: userID, Streak: 6, LongestStreak: 9, LastPracticeDate: &last}, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	info, err := svc.GetStreak(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetStreak() error = %v", err)
	}
	if info.Streak != 6 || info.LongestStreak != 9 {
		t.Errorf("info = %+v, want Streak=6 LongestStreak=9", info)
	}
	if info.LastPracticeDate == nil || !info.LastPracticeDate.Equal(last) {
		t.Errorf("LastPracticeDate = %v, want %v", info.LastPracticeDate, last)
	}
}

func TestUpdateTodayProgress_ClampsRange(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"負の値は0に", -10, 0},
		{"100超は100に", 150, 100},
		{"範囲内はそのまま", 65, 65},
		{"境界値0", 0, 0},
		{"境界値100", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved int
			repo := &mockProgressRepo{
				setTodayProgressFunc: func(ctx context.Context, userID string, percent int, now time.Time) (bool, error) {
					saved = percent
					return true, nil
				},
			}
			svc := NewService(repo, nil, fixedClock)

			if err := svc.UpdateTodayProgress(context.Background(), "user-1", tt.input); err != nil {
				t.Fatalf("UpdateTodayProgress() error = %v", err)
			}
			if saved != tt.want {
				t.Errorf("saved percent = %d, want %d", saved, tt.want)
			}
		})
	}
}

func TestUpdateTodayProgress_UserNotFound(t *testing.T) {
	repo := &mockProgressRepo{
		setTodayProgressFunc: func(ctx context.Context, userID string, percent int, now time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	err := svc.UpdateTodayProgress(context.Background(), "missing", 50)
	if code := apiErrorCode(t, err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

func TestAddPracticeTime_NegativeMinutes(t *testing.T) {
	svc := NewService(&mockProgressRepo{}, nil, fixedClock)

	err := svc.AddPracticeTime(context.Background(), "user-1", -5)
	if code := apiErrorCode(t, err); code != model.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, model.ErrCodeInvalidInput)
	}
}

func TestAddPracticeTime_RecordsMinutes(t *testing.T) {
	collector := &recordingCollector{}
	repo := &mockProgressRepo{
		addPracticeTimeFunc: func(ctx context.Context, userID string, minutes int, now time.Time) (bool, error) {
			if minutes != 25 {
				t.Errorf("minutes = %d, want 25", minutes)
			}
			return true, nil
		},
	}
	svc := NewService(repo, collector, fixedClock)

	if err := svc.AddPracticeTime(context.Background(), "user-1", 25); err != nil {
		t.Fatalf("AddPracticeTime() error = %v", err)
	}
	if collector.practiceMinutes != 25 {
		t.Errorf("practiceMinutes = %d, want 25", collector.practiceMinutes)
	}
}

func TestAddPracticeTime_UserNotFound(t *testing.T) {
	repo := &mockProgressRepo{
		addPracticeTimeFunc: func(ctx context.Context, userID string, minutes int, now time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, nil, fixedClock)

	err := svc.AddPracticeTime(context.Background(), "missing", 10)
	if code := apiErrorCode(t, err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

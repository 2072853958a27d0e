package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/signage/internal/auth"
	"github.com/hitoshi/signage/internal/model"
)

// mockAuthService は関数フィールドで挙動を差し替えられるAuthServiceInterfaceモック。
type mockAuthService struct {
	registerFunc       func(ctx context.Context, identity *auth.Identity) (*model.User, bool, error)
	getProfileFunc     func(ctx context.Context, userID string) (*model.User, error)
	updateProfileFunc  func(ctx context.Context, userID string, displayName, photoURL *string) (*model.User, error)
	getSettingsFunc    func(ctx context.Context, userID string) (*model.Settings, error)
	updateSettingsFunc func(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error)
}

func (m *mockAuthService) Register(ctx context.Context, identity *auth.Identity) (*model.User, bool, error) {
	return m.registerFunc(ctx, identity)
}

func (m *mockAuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return m.getProfileFunc(ctx, userID)
}

func (m *mockAuthService) UpdateProfile(ctx context.Context, userID string, displayName, photoURL *string) (*model.User, error) {
	return m.updateProfileFunc(ctx, userID, displayName, photoURL)
}

func (m *mockAuthService) GetSettings(ctx context.Context, userID string) (*model.Settings, error) {
	return m.getSettingsFunc(ctx, userID)
}

func (m *mockAuthService) UpdateSettings(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error) {
	return m.updateSettingsFunc(ctx, userID, patch)
}

func testUser(id string) *model.User {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	return &model.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "Taro",
		AccountType: "email",
		CreatedAt:   now,
		LastLoginAt: now,
		UpdatedAt:   now,
	}
}

func TestRegister_NewUserReturns201(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, identity *auth.Identity) (*model.User, bool, error) {
			return testUser(identity.UserID), true, nil
		},
	}
	h := NewAuthHandler(service)

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{}`)), "user-1")
	rec := do(h.Register, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	payload := decodeBody(t, rec.Body)
	assertSuccess(t, payload, true)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("data field missing: %v", payload)
	}
	if data["userId"] != "user-1" {
		t.Errorf("data.userId = %v, want user-1", data["userId"])
	}
}

func TestRegister_ExistingUserReturns200(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, identity *auth.Identity) (*model.User, bool, error) {
			return testUser(identity.UserID), false, nil
		},
	}
	h := NewAuthHandler(service)

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{}`)), "user-1")
	rec := do(h.Register, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRegister_BodyDisplayNameOverridesTokenName(t *testing.T) {
	var gotName string
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, identity *auth.Identity) (*model.User, bool, error) {
			gotName = identity.Name
			return testUser(identity.UserID), true, nil
		},
	}
	h := NewAuthHandler(service)

	body := `{"displayName":"Custom Name"}`
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)), "user-1")
	do(h.Register, req)

	if gotName != "Custom Name" {
		t.Errorf("identity.Name = %q, want %q", gotName, "Custom Name")
	}
}

func TestRegister_WithoutIdentityReturns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{}`))
	rec := do(h.Register, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	assertSuccess(t, decodeBody(t, rec.Body), false)
}

func TestGetProfile_NotFoundReturns404(t *testing.T) {
	service := &mockAuthService{
		getProfileFunc: func(ctx context.Context, userID string) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(service)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/auth/profile", nil), "missing")
	rec := do(h.GetProfile, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	payload := decodeBody(t, rec.Body)
	assertSuccess(t, payload, false)
	if payload["error"] == nil {
		t.Error("error field missing")
	}
}

func TestUpdateProfile_PassesFieldsToService(t *testing.T) {
	var gotName, gotURL *string
	service := &mockAuthService{
		updateProfileFunc: func(ctx context.Context, userID string, displayName, photoURL *string) (*model.User, error) {
			gotName, gotURL = displayName, photoURL
			return testUser(userID), nil
		},
	}
	h := NewAuthHandler(service)

	body := `{"displayName":"New Name","photoURL":"https://cdn.example.com/a.png"}`
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(body)), "user-1")
	rec := do(h.UpdateProfile, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotName == nil || *gotName != "New Name" {
		t.Errorf("displayName = %v, want New Name", gotName)
	}
	if gotURL == nil || *gotURL != "https://cdn.example.com/a.png" {
		t.Errorf("photoURL = %v, want https://cdn.example.com/a.png", gotURL)
	}
}

func TestUpdateProfile_InvalidPhotoURLReturns400(t *testing.T) {
	service := &mockAuthService{
		updateProfileFunc: func(ctx context.Context, userID string, displayName, photoURL *string) (*model.User, error) {
			return nil, model.NewInvalidPhotoURLError("blocked IP address")
		},
	}
	h := NewAuthHandler(service)

	body := `{"photoURL":"https://169.254.169.254/x.png"}`
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(body)), "user-1")
	rec := do(h.UpdateProfile, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateProfile_MalformedJSONReturns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := withIdentity(httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(`{broken`)), "user-1")
	rec := do(h.UpdateProfile, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateSettings_AppliesTypedPatch(t *testing.T) {
	var gotPatch *model.SettingsPatch
	service := &mockAuthService{
		updateSettingsFunc: func(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error) {
			gotPatch = patch
			return &model.Settings{UserID: userID, Theme: "dark", DailyGoal: 30}, nil
		},
	}
	h := NewAuthHandler(service)

	body := `{"theme":"dark","dailyGoal":30}`
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/auth/settings", strings.NewReader(body)), "user-1")
	rec := do(h.UpdateSettings, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotPatch == nil || gotPatch.Theme == nil || *gotPatch.Theme != "dark" {
		t.Errorf("patch.Theme = %v, want dark", gotPatch)
	}
	if gotPatch.DailyGoal == nil || *gotPatch.DailyGoal != 30 {
		t.Errorf("patch.DailyGoal = %v, want 30", gotPatch.DailyGoal)
	}
}

func TestUpdateSettings_UnknownKeyReturns400(t *testing.T) {
	service := &mockAuthService{
		updateSettingsFunc: func(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error) {
			t.Fatal("UpdateSettings should not be called for unknown key")
			return nil, nil
		},
	}
	h := NewAuthHandler(service)

	body := `{"theme":"dark","adminFlag":true}`
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/auth/settings", strings.NewReader(body)), "user-1")
	rec := do(h.UpdateSettings, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertSuccess(t, decodeBody(t, rec.Body), false)
}

func TestUpdateSettings_EmptyPatchReturns400(t *testing.T) {
	service := &mockAuthService{
		updateSettingsFunc: func(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error) {
			return nil, model.NewInvalidInputError("更新対象の設定がありません")
		},
	}
	h := NewAuthHandler(service)

	req := withIdentity(httptest.NewRequest(http.MethodPut, "/auth/settings", strings.NewReader(`{}`)), "user-1")
	rec := do(h.UpdateSettings, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetSettings_ReturnsSettings(t *testing.T) {
	service := &mockAuthService{
		getSettingsFunc: func(ctx context.Context, userID string) (*model.Settings, error) {
			return &model.Settings{
				UserID: userID, Theme: "light", Language: "en", DailyGoal: 20, DifficultyLevel: "beginner",
			}, nil
		},
	}
	h := NewAuthHandler(service)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/auth/settings", nil), "user-1")
	rec := do(h.GetSettings, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	payload := decodeBody(t, rec.Body)
	data := payload["data"].(map[string]any)
	if data["theme"] != "light" || data["dailyGoal"] != float64(20) {
		t.Errorf("unexpected settings data: %v", data)
	}
}

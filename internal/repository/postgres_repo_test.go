package repository

import "testing"

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresProgressRepoはProgressRepositoryインターフェースを満たすことを検証
func TestPostgresProgressRepo_ImplementsInterface(t *testing.T) {
	var _ ProgressRepository = (*PostgresProgressRepo)(nil)
}

// PostgresSettingsRepoはSettingsRepositoryインターフェースを満たすことを検証
func TestPostgresSettingsRepo_ImplementsInterface(t *testing.T) {
	var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresProgressRepoが正しく初期化されることを検証
func TestNewPostgresProgressRepo_Initializes(t *testing.T) {
	repo := NewPostgresProgressRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresSettingsRepoが正しく初期化されることを検証
func TestNewPostgresSettingsRepo_Initializes(t *testing.T) {
	repo := NewPostgresSettingsRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

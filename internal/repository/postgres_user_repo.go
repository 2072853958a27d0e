package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/signage/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, account_type, is_email_verified,
		        is_premium, premium_until, created_at, last_login_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PhotoURL, &user.AccountType,
		&user.IsEmailVerified, &user.IsPremium, &user.PremiumUntil,
		&user.CreatedAt, &user.LastLoginAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// CreateWithDefaults はユーザーと進捗・設定の初期レコードを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithDefaults(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ユーザーを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, account_type, created_at, last_login_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5, $5)`,
		user.ID, user.Email, user.DisplayName, user.AccountType, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	// 進捗レコードをデフォルトスキーマで作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, updated_at) VALUES ($1, $2)`,
		user.ID, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user progress: %w", err)
	}

	// 設定レコードをデフォルト値で作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, updated_at) VALUES ($1, $2)`,
		user.ID, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// TouchLogin は最終ログイン日時と更新日時のみを更新する。進捗には触れない。
func (r *PostgresUserRepo) TouchLogin(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("failed to touch login: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateProfile はdisplayName/photoURLの部分更新を行う。nilフィールドは変更しない。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id string, displayName, photoURL *string, now time.Time) error {
	query := `UPDATE users SET updated_at = $2`
	args := []any{id, now}

	if displayName != nil {
		args = append(args, *displayName)
		query += fmt.Sprintf(", display_name = $%d", len(args))
	}
	if photoURL != nil {
		args = append(args, *photoURL)
		query += fmt.Sprintf(", photo_url = $%d", len(args))
	}
	query += ` WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/lib/pq"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーをロール付きで取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `WHERE u.id = $1`, id)
}

// FindByName はユーザー名でユーザーをロール付きで検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	return r.findOne(ctx, `WHERE u.name = $1`, name)
}

// findOne はロールを集約した1ユーザー取得クエリを実行する。
func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user := &model.User{}
	var roles pq.StringArray

	err := r.db.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.created_at, u.updated_at,
		        coalesce(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
		 FROM users u
		 LEFT JOIN user_roles ur ON ur.user_id = u.id
		 `+where+`
		 GROUP BY u.id`,
		arg,
	).Scan(&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt, &roles)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	user.Roles = []string(roles)
	return user, nil
}

// PasswordHashByName はユーザー名に対応するパスワードハッシュを返す。
// 見つからない場合は空文字列を返す。
func (r *PostgresUserRepo) PasswordHashByName(ctx context.Context, name string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE name = $1`,
		name,
	).Scan(&hash)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("パスワードハッシュの取得に失敗しました: %w", err)
	}

	return hash, nil
}

// Create はユーザーとロールを同一トランザクションで作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, passwordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	for _, role := range user.Roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
			user.ID, role,
		); err != nil {
			return fmt.Errorf("failed to insert user role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)

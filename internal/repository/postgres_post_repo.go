package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/lib/pq"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postColumns は記事取得クエリで共通に使用するSELECT句。
// 著者名はusersテーブルからJOINで取得する。
const postColumns = `p.id, p.title, p.content, p.author_id, p.created, p.published, u.name`

// Get は指定IDの記事を著者情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) Get(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1`,
		id,
	)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}

	if err := r.loadTags(ctx, []*model.Post{post}); err != nil {
		return nil, err
	}

	return post, nil
}

// GetAll は全記事をcreated降順で返す。
// titleContainsが空でない場合、タイトルの部分一致で絞り込む。
func (r *PostgresPostRepo) GetAll(ctx context.Context, titleContains string) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE ($1 = '' OR strpos(p.title, $1) > 0)
		 ORDER BY p.created DESC`,
		titleContains,
	)
}

// GetByAuthor は指定著者の記事をcreated降順で返す。
func (r *PostgresPostRepo) GetByAuthor(ctx context.Context, authorID, titleContains string) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.author_id = $1
		   AND ($2 = '' OR strpos(p.title, $2) > 0)
		 ORDER BY p.created DESC`,
		authorID, titleContains,
	)
}

// GetPublished は公開済みの記事をpublished降順で返す。
func (r *PostgresPostRepo) GetPublished(ctx context.Context) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.published IS NOT NULL AND p.published <= now()
		 ORDER BY p.published DESC`,
	)
}

// GetByTag は指定タグを持つ記事をcreated降順で返す。
// タグは保存時に正規化済みのため完全一致で検索する。
func (r *PostgresPostRepo) GetByTag(ctx context.Context, tag string) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE EXISTS (
		     SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag = $1
		 )
		 ORDER BY p.created DESC`,
		tag,
	)
}

// GetPage は公開済み記事をpublished降順で1始まりのページ窓で返す。
func (r *PostgresPostRepo) GetPage(ctx context.Context, page, size int) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.published IS NOT NULL AND p.published <= now()
		 ORDER BY p.published DESC
		 OFFSET $1 LIMIT $2`,
		(page-1)*size, size,
	)
}

// Create は記事とタグを同一トランザクションで作成する。
// ID衝突時は状態を変更せずDuplicatePostIDエラーを返す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id, created, published)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.Title, post.Content, post.AuthorID, post.Created, nullTime(post.Published),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicatePostIDError(post.ID)
		}
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	if err := insertTags(ctx, tx, post.ID, post.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Edit は指定IDの記事の id, title, content, published, tags を上書きする。
// author_idとcreatedは変更しない。記事が存在しない場合はPostNotFoundエラーを返す。
func (r *PostgresPostRepo) Edit(ctx context.Context, id string, updated *model.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// post_tags.post_id はON UPDATE CASCADEのためID変更に追随する
	result, err := tx.ExecContext(ctx,
		`UPDATE posts
		 SET id = $2, title = $3, content = $4, published = $5
		 WHERE id = $1`,
		id, updated.ID, updated.Title, updated.Content, nullTime(updated.Published),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicatePostIDError(updated.ID)
		}
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPostNotFoundError(id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_tags WHERE post_id = $1`,
		updated.ID,
	); err != nil {
		return fmt.Errorf("タグの削除に失敗しました: %w", err)
	}

	if err := insertTags(ctx, tx, updated.ID, updated.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete は指定IDの記事を削除する。記事が存在しない場合はPostNotFoundエラーを返す。
// タグはCASCADE削除される。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPostNotFoundError(id)
	}

	return nil
}

// CountPublished は公開済み記事の件数を返す。
func (r *PostgresPostRepo) CountPublished(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM posts WHERE published IS NOT NULL AND published <= now()`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("公開済み記事数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// queryPosts は記事一覧クエリを実行し、タグをまとめてロードして返す。
func (r *PostgresPostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	if err := r.loadTags(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// loadTags は記事群のタグをposition順で一括ロードする。
func (r *PostgresPostRepo) loadTags(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	byID := make(map[string]*model.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id, tag FROM post_tags WHERE post_id = ANY($1) ORDER BY post_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, tag string
		if err := rows.Scan(&postID, &tag); err != nil {
			return fmt.Errorf("タグの読み取りに失敗しました: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Tags = append(p.Tags, tag)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("タグの走査に失敗しました: %w", err)
	}

	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost は記事1行をスキャンする。著者名はAuthorフィールドに展開する。
func scanPost(row rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var published sql.NullTime
	var authorName string

	if err := row.Scan(
		&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.Created, &published, &authorName,
	); err != nil {
		return nil, err
	}

	if published.Valid {
		t := published.Time
		post.Published = &t
	}
	post.Author = &model.User{ID: post.AuthorID, Name: authorName}

	return post, nil
}

// insertTags は正規化済みタグをposition付きで挿入する。
func insertTags(ctx context.Context, tx *sql.Tx, postID string, tags []string) error {
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag, position) VALUES ($1, $2, $3)`,
			postID, tag, i,
		); err != nil {
			return fmt.Errorf("タグの作成に失敗しました: %w", err)
		}
	}
	return nil
}

// nullTime は*time.TimeをNULL対応で永続化するための変換を行う。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// isUniqueViolation はPostgreSQLのunique_violation(23505)かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)

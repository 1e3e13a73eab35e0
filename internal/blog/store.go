package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/jsonapi/pkg/web/query"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// dbtx is implemented by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	articleColumns = "articles.id, articles.title, articles.body, articles.status, articles.author_id, articles.created_at"
	commentColumns = "comments.id, comments.body, comments.article_id, comments.author_id"
	personColumns  = "people.id, people.name, people.email"
)

// Store reads and writes blog records
type Store struct {
	db          *sql.DB
	q           dbtx
	driver      string
	placeholder query.Placeholder
}

// NewStore creates a store for a database opened with the named
// database/sql driver
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{
		db:          db,
		q:           db,
		driver:      driver,
		placeholder: query.PlaceholderFor(driver),
	}
}

// Placeholder returns the bind parameter style of the store's driver
func (s *Store) Placeholder() query.Placeholder {
	return s.placeholder
}

// WithTx runs fn with a store bound to a transaction. The transaction is
// committed when fn succeeds and rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, q: tx, driver: s.driver, placeholder: s.placeholder}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateSchema creates the blog tables when they do not exist
func (s *Store) CreateSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY"
	if s.driver == "postgres" || s.driver == "pgx" {
		id = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS people (
			id %s,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS articles (
			id %s,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL,
			author_id BIGINT NOT NULL REFERENCES people(id),
			created_at TIMESTAMP NOT NULL
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comments (
			id %s,
			body TEXT NOT NULL,
			article_id BIGINT NOT NULL REFERENCES articles(id),
			author_id BIGINT NOT NULL REFERENCES people(id)
		)`, id),
	}

	for _, statement := range statements {
		if _, err := s.q.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// ListArticles returns a page of articles and the number of articles
// matching the clauses' filters
func (s *Store) ListArticles(ctx context.Context, clauses *query.Clauses) ([]*Article, int, error) {
	statement, args := clauses.Select("SELECT " + articleColumns + " FROM articles")
	rows, err := s.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query articles: %w", err)
	}
	articles, err := scanArticles(rows)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, clauses, "articles")
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// FindArticle returns an article by id
func (s *Store) FindArticle(ctx context.Context, id int64) (*Article, error) {
	statement := fmt.Sprintf("SELECT %s FROM articles WHERE articles.id = %s", articleColumns, s.placeholder(1))
	rows, err := s.q.QueryContext(ctx, statement, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query article %d: %w", id, err)
	}
	articles, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNotFound
	}
	return articles[0], nil
}

// FindPerson returns a person by id
func (s *Store) FindPerson(ctx context.Context, id int64) (*Person, error) {
	people, err := s.PeopleByID(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	person, ok := people[id]
	if !ok {
		return nil, ErrNotFound
	}
	return person, nil
}

// PeopleByID loads people by id. Missing ids are absent from the result.
func (s *Store) PeopleByID(ctx context.Context, ids []int64) (map[int64]*Person, error) {
	people := make(map[int64]*Person)
	if len(ids) == 0 {
		return people, nil
	}

	in, args := s.in(ids)
	statement := fmt.Sprintf("SELECT %s FROM people WHERE people.id IN (%s)", personColumns, in)
	rows, err := s.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read people: %w", err)
	}
	return people, nil
}

// CommentsByArticle loads the comments of articles, grouped by article id
// and ordered by comment id
func (s *Store) CommentsByArticle(ctx context.Context, articleIDs []int64) (map[int64][]*Comment, error) {
	grouped := make(map[int64][]*Comment)
	if len(articleIDs) == 0 {
		return grouped, nil
	}

	in, args := s.in(articleIDs)
	statement := fmt.Sprintf("SELECT %s FROM comments WHERE comments.article_id IN (%s) ORDER BY comments.id ASC", commentColumns, in)
	rows, err := s.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	comments, err := scanComments(rows)
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		grouped[c.ArticleID] = append(grouped[c.ArticleID], c)
	}
	return grouped, nil
}

// ListComments returns a page of comments and the number of comments
// matching the clauses' filters
func (s *Store) ListComments(ctx context.Context, clauses *query.Clauses) ([]*Comment, int, error) {
	statement, args := clauses.Select("SELECT " + commentColumns + " FROM comments")
	rows, err := s.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query comments: %w", err)
	}
	comments, err := scanComments(rows)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, clauses, "comments")
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// CreatePerson inserts a person and sets its id
func (s *Store) CreatePerson(ctx context.Context, p *Person) error {
	statement := fmt.Sprintf("INSERT INTO people (name, email) VALUES (%s) RETURNING id", s.values(2))
	if err := s.q.QueryRowContext(ctx, statement, p.Name, p.Email).Scan(&p.ID); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// CreateArticle inserts an article and sets its id
func (s *Store) CreateArticle(ctx context.Context, a *Article) error {
	statement := fmt.Sprintf("INSERT INTO articles (title, body, status, author_id, created_at) VALUES (%s) RETURNING id", s.values(5))
	err := s.q.QueryRowContext(ctx, statement, a.Title, a.Body, a.Status, a.AuthorID, a.CreatedAt.UTC()).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// CreateComment inserts a comment and sets its id
func (s *Store) CreateComment(ctx context.Context, c *Comment) error {
	statement := fmt.Sprintf("INSERT INTO comments (body, article_id, author_id) VALUES (%s) RETURNING id", s.values(3))
	if err := s.q.QueryRowContext(ctx, statement, c.Body, c.ArticleID, c.AuthorID).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *Store) count(ctx context.Context, clauses *query.Clauses, table string) (int, error) {
	statement, args := clauses.Count("SELECT COUNT(*) FROM " + table)
	var total int
	if err := s.q.QueryRowContext(ctx, statement, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

// in renders the placeholders of an IN list
func (s *Store) in(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.values(len(ids)), args
}

func (s *Store) values(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = s.placeholder(i + 1)
	}
	return strings.Join(placeholders, ", ")
}

func scanArticles(rows *sql.Rows) ([]*Article, error) {
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Status, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}
	return articles, nil
}

func scanComments(rows *sql.Rows) ([]*Comment, error) {
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Body, &c.ArticleID, &c.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	return comments, nil
}

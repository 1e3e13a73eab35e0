package blog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// Fixtures is seed data. Articles and comments reference their authors by
// email.
type Fixtures struct {
	People   []PersonFixture  `yaml:"people"`
	Articles []ArticleFixture `yaml:"articles"`
}

// PersonFixture is a person in a fixture file
type PersonFixture struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// ArticleFixture is an article in a fixture file
type ArticleFixture struct {
	Title     string           `yaml:"title"`
	Body      string           `yaml:"body"`
	Status    string           `yaml:"status"`
	Author    string           `yaml:"author"`
	CreatedAt time.Time        `yaml:"created_at"`
	Comments  []CommentFixture `yaml:"comments"`
}

// CommentFixture is a comment of an article fixture
type CommentFixture struct {
	Body   string `yaml:"body"`
	Author string `yaml:"author"`
}

// LoadFixtures decodes YAML fixtures
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var fixtures Fixtures
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return &fixtures, nil
}

// DefaultFixtures returns the bundled sample data
func DefaultFixtures() (*Fixtures, error) {
	return LoadFixtures(bytes.NewReader(defaultFixtures))
}

// Seed inserts fixtures in a single transaction and returns the number of
// records created
func (s *Store) Seed(ctx context.Context, fixtures *Fixtures) (int, error) {
	created := 0
	err := s.WithTx(ctx, func(tx *Store) error {
		created = 0
		people := make(map[string]int64, len(fixtures.People))

		for _, pf := range fixtures.People {
			person := &Person{Name: pf.Name, Email: pf.Email}
			if err := tx.CreatePerson(ctx, person); err != nil {
				return err
			}
			people[pf.Email] = person.ID
			created++
		}

		author := func(email, owner string) (int64, error) {
			id, ok := people[email]
			if !ok {
				return 0, fmt.Errorf("%s references unknown author %q", owner, email)
			}
			return id, nil
		}

		for _, af := range fixtures.Articles {
			authorID, err := author(af.Author, fmt.Sprintf("article %q", af.Title))
			if err != nil {
				return err
			}
			createdAt := af.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			article := &Article{
				Title:     af.Title,
				Body:      af.Body,
				Status:    af.Status,
				AuthorID:  authorID,
				CreatedAt: createdAt,
			}
			if err := tx.CreateArticle(ctx, article); err != nil {
				return err
			}
			created++

			for _, cf := range af.Comments {
				commenterID, err := author(cf.Author, fmt.Sprintf("comment on %q", af.Title))
				if err != nil {
					return err
				}
				comment := &Comment{Body: cf.Body, ArticleID: article.ID, AuthorID: commenterID}
				if err := tx.CreateComment(ctx, comment); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// Package blog is a small blogging API built on the jsonapi package. It
// stores people, articles and comments in SQL and serves them as JSON:API
// compound documents.
package blog

import "time"

// Resource types served by the API
const (
	TypeArticles = "articles"
	TypePeople   = "people"
	TypeComments = "comments"
)

// Person writes articles and comments
type Person struct {
	ID    int64
	Name  string
	Email string
}

// Article is a blog post. Author and Comments are only set when loaded.
type Article struct {
	ID        int64
	Title     string
	Body      string
	Status    string
	AuthorID  int64
	CreatedAt time.Time

	Author   *Person
	Comments []*Comment
}

// Comment is a reply to an article. Author is only set when loaded.
type Comment struct {
	ID        int64
	Body      string
	ArticleID int64
	AuthorID  int64

	Author *Person
}

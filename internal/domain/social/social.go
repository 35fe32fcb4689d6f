// Package social describes the posting account the tracker talks to.
package social

import (
	"context"
	"time"
)

// Post is a published message.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
}

// Page is one page of posts. NextToken is empty on the last page.
type Page struct {
	Posts     []Post
	NextToken string
}

// Publisher publishes post text.
type Publisher interface {
	Publish(ctx context.Context, text string) (Post, error)
}

// Account lists and deletes the tracker's own posts.
type Account interface {
	Timeline(ctx context.Context, token string) (Page, error)
	Search(ctx context.Context, query, token string) (Page, error)
	Delete(ctx context.Context, id string) error
}

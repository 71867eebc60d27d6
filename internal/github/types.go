package github

import (
	"fmt"
	"time"
)

const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Repo identifies a repository by owner and name
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Issue is a GitHub issue as read from a source repository. Pull requests are never represented as an Issue
type Issue struct {
	Number int

	Title     string
	Body      string
	Author    string
	CreatedAt time.Time
	URL       string
	State     string

	Labels []string
}

// Comment is a comment on an issue
type Comment struct {
	ID        int64
	Author    string
	CreatedAt time.Time
	Body      string
}

package entity

import "fmt"

// Notification announces one enriched article to its team's channels.
type Notification struct {
	ArticleID int64
	TeamCode  string
	Title     string
	URL       string
	Content   string
}

// NewNotification builds the announcement of an enriched article.
func NewNotification(a *Article, teamCode string) *Notification {
	return &Notification{
		ArticleID: a.ID,
		TeamCode:  teamCode,
		Title:     fmt.Sprintf("New article for team %s: %s", teamCode, a.Title),
		URL:       a.URL,
		Content:   a.AIContent,
	}
}

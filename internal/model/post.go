package model

import "time"

// CommunityFeed is the feed name Steam uses for posts written in its own
// editor. Their bodies are BBCode, every other feed carries raw HTML.
const CommunityFeed = "steam_community_announcements"

// DefaultAuthor is recorded when a feed item carries no author.
const DefaultAuthor = "Unknown"

// NewsItem is a single entry of a Steam news feed.
type NewsItem struct {
	Gid           string `json:"gid" yaml:"gid"`
	Title         string `json:"title" yaml:"title"`
	URL           string `json:"url" yaml:"url"`
	IsExternalURL bool   `json:"is_external_url,omitempty" yaml:"is_external_url,omitempty"`
	Author        string `json:"author,omitempty" yaml:"author,omitempty"`
	Contents      string `json:"contents" yaml:"contents"`
	FeedLabel     string `json:"feedlabel,omitempty" yaml:"feedlabel,omitempty"`
	Date          int64  `json:"date" yaml:"date"`
	FeedName      string `json:"feedname" yaml:"feedname"`
	FeedType      int    `json:"feed_type,omitempty" yaml:"feed_type,omitempty"`
	AppID         int    `json:"appid,omitempty" yaml:"appid,omitempty"`
}

// IsCommunity reports whether the item body is BBCode that must be rewritten.
func (n NewsItem) IsCommunity() bool {
	return n.FeedName == CommunityFeed
}

// Post is a processed news item, ready to be handed to storage.
type Post struct {
	Gid       string    `json:"gid" yaml:"gid"`
	AppID     int       `json:"appid,omitempty" yaml:"appid,omitempty"`
	Title     string    `json:"title" yaml:"title"`
	Author    string    `json:"author" yaml:"author"`
	Date      int64     `json:"date" yaml:"date"`
	SourceURL string    `json:"source_url" yaml:"source_url"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Community bool      `json:"community" yaml:"community"`

	// Image is the cover path relative to the media root, empty when the post has no cover.
	Image string `json:"post_image" yaml:"post_image"`
}

// NewPost copies the pass-through fields of an item into a Post.
func NewPost(item NewsItem) Post {
	author := item.Author
	if author == "" {
		author = DefaultAuthor
	}
	return Post{
		Gid:       item.Gid,
		AppID:     item.AppID,
		Title:     item.Title,
		Author:    author,
		Date:      item.Date,
		SourceURL: item.URL,
		Content:   item.Contents,
		CreatedAt: time.Unix(item.Date, 0).UTC(),
		Community: item.IsCommunity(),
	}
}

// Package models defines the domain types for the content hub.
package models

import "time"

// Category is the kind of a content item. It is determined by where the
// source file lives and selects the page template and slug prefix.
type Category string

const (
	CategoryTool   Category = "tools"
	CategoryVideo  Category = "videos"
	CategoryLesson Category = "lessons"
)

// Categories lists every category in classification priority order.
var Categories = []Category{CategoryTool, CategoryVideo, CategoryLesson}

// ParseCategory returns the category named s, if any.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Label returns the plural display name ("Tools").
func (c Category) Label() string {
	switch c {
	case CategoryTool:
		return "Tools"
	case CategoryVideo:
		return "Videos"
	case CategoryLesson:
		return "Lessons"
	}
	return string(c)
}

// Singular returns the lowercase singular name ("tool").
func (c Category) Singular() string {
	switch c {
	case CategoryTool:
		return "tool"
	case CategoryVideo:
		return "video"
	case CategoryLesson:
		return "lesson"
	}
	return string(c)
}

// Template returns the page template used for items of this category.
func (c Category) Template() TemplateID {
	switch c {
	case CategoryTool:
		return TemplateTool
	case CategoryVideo:
		return TemplateVideo
	case CategoryLesson:
		return TemplateLesson
	}
	return ""
}

// ContentItem is one authored unit: a tool, a video, or a lesson.
type ContentItem struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	SourcePath  string    `json:"source_path"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Date        time.Time `json:"date"`
	GitHub      string    `json:"github,omitempty"`
	YouTubeLink string    `json:"youtube_link,omitempty"`
	SlideLink   string    `json:"slide_link,omitempty"`
	VideoID     string    `json:"video_id,omitempty"`
	HTML        string    `json:"-"`
	Checksum    string    `json:"checksum"`
}

// Capabilities reports which optional blocks a card or page shows for the item.
func (i ContentItem) Capabilities() Capabilities {
	return Capabilities{
		HasExternalLink: i.GitHub != "",
		HasVideoEmbed:   i.VideoID != "",
		HasSlides:       i.SlideLink != "",
	}
}

// Capabilities is the capability record the generic content card is
// parameterised by.
type Capabilities struct {
	HasExternalLink bool `json:"has_external_link"`
	HasVideoEmbed   bool `json:"has_video_embed"`
	HasSlides       bool `json:"has_slides"`
}

// TagCount pairs a tag with the number of distinct items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

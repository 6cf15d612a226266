package models

// TemplateID names a page template.
type TemplateID string

const (
	TemplateHome     TemplateID = "home"
	TemplateListing  TemplateID = "listing"
	TemplateTool     TemplateID = "tool"
	TemplateVideo    TemplateID = "video"
	TemplateLesson   TemplateID = "lesson"
	TemplateTagIndex TemplateID = "tags"
	TemplateTag      TemplateID = "tag"
)

// PageSpec is one page to emit: its site path, the template, and the
// context the template needs to look up its data.
type PageSpec struct {
	Path     string      `json:"path"`
	Template TemplateID  `json:"template"`
	Context  PageContext `json:"context"`
}

// PageContext carries the lookup keys for a page.
type PageContext struct {
	ItemID      string   `json:"item_id,omitempty"`
	RelatedTags []string `json:"related_tags,omitempty"`
	Tag         string   `json:"tag,omitempty"`
	Category    Category `json:"category,omitempty"`
}

package domain

import "strings"

// ColumnStyle holds terminal colors (hex or ANSI index) for one column.
type ColumnStyle struct {
	Accent         string `json:"accent,omitempty"`
	Background     string `json:"background,omitempty"`
	Text           string `json:"text,omitempty"`
	DarkBackground string `json:"darkBackground,omitempty"`
	DarkText       string `json:"darkText,omitempty"`
}

// Column represents column data used by this package.
type Column struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Style ColumnStyle `json:"style"`
}

// NewColumn constructs a new value for this package.
func NewColumn(id, title string, style ColumnStyle) (Column, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Column{}, ErrInvalidColumnID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	return Column{
		ID:    id,
		Title: title,
		Style: style,
	}, nil
}

// Rename sets the column title. A blank title keeps the previous one.
func (c *Column) Rename(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" || title == c.Title {
		return false
	}
	c.Title = title
	return true
}

// DefaultColumns returns the columns a fresh board is seeded with.
func DefaultColumns() []Column {
	return []Column{
		{
			ID:    "todo",
			Title: "To Do",
			Style: ColumnStyle{Accent: "245", Background: "#F3F4F6", Text: "#374151", DarkBackground: "#1F2937", DarkText: "#E5E7EB"},
		},
		{
			ID:    "inprogress",
			Title: "In Progress",
			Style: ColumnStyle{Accent: "75", Background: "#DBEAFE", Text: "#1D4ED8", DarkBackground: "#1E3A8A", DarkText: "#BFDBFE"},
		},
		{
			ID:    "completed",
			Title: "Completed",
			Style: ColumnStyle{Accent: "78", Background: "#DCFCE7", Text: "#15803D", DarkBackground: "#14532D", DarkText: "#BBF7D0"},
		},
	}
}

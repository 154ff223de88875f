package api

import (
	"time"

	"github.com/poiesic/todoey/core"
)

// Category is the JSON form of a category.
type Category struct {
	ID          core.ID   `json:"id"`
	Name        string    `json:"name"`
	DateCreated time.Time `json:"dateCreated"`
	Color       string    `json:"color,omitempty"`
}

// Item is the JSON form of an item.
type Item struct {
	ID          core.ID   `json:"id"`
	CategoryID  core.ID   `json:"categoryId"`
	Title       string    `json:"title"`
	Done        bool      `json:"done"`
	DateCreated time.Time `json:"dateCreated"`
}

// NameRequest is the body for creating or renaming a category.
type NameRequest struct {
	Name string `json:"name"`
}

// TitleRequest is the body for creating or renaming an item.
type TitleRequest struct {
	Title string `json:"title"`
}

func toCategory(c *core.Category) Category {
	return Category{ID: c.ID, Name: c.Name, DateCreated: c.DateCreated, Color: c.Color}
}

func toCategories(categories []*core.Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategory(c))
	}
	return out
}

func toItem(i *core.Item) Item {
	return Item{ID: i.ID, CategoryID: i.CategoryID, Title: i.Title, Done: i.Done, DateCreated: i.DateCreated}
}

func toItems(items []*core.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, i := range items {
		out = append(out, toItem(i))
	}
	return out
}

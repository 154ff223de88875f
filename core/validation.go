// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"strings"
)

// NewCategory builds a Category with a fresh ID and the trimmed name.
// DateCreated and Color are left for the caller to assign.
func NewCategory(name string) (*Category, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return &Category{ID: NewID(), Name: name}, nil
}

// NewItem builds an Item under categoryID with a fresh ID and the trimmed title.
// Done starts out false.
func NewItem(categoryID ID, title string) (*Item, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrMissingCategory)
	}
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return &Item{ID: NewID(), CategoryID: categoryID, Title: title}, nil
}

// NormalizeName trims surrounding whitespace from a category name.
// Returns ErrEmptyName (wrapped in ErrValidation) if nothing is left.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrEmptyName)
	}
	return name, nil
}

// NormalizeTitle trims surrounding whitespace from an item title.
// Returns ErrEmptyTitle (wrapped in ErrValidation) if nothing is left.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrEmptyTitle)
	}
	return title, nil
}

// ValidateCategory validates a Category according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Name must not be empty after trimming
//
// Color and DateCreated are not validated.
func ValidateCategory(category *Category) error {
	if category == nil {
		return fmt.Errorf("%w: category is nil", ErrValidation)
	}
	if category.ID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingID)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyName)
	}
	return nil
}

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - CategoryID must not be empty
//   - Title must not be empty after trimming
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrValidation)
	}
	if item.ID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingID)
	}
	if item.CategoryID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingCategory)
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyTitle)
	}
	return nil
}

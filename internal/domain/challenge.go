// Package domain contains core domain types for the codewars bot.
package domain

import (
	"fmt"
	"strings"
)

// Challenge is an immutable snapshot of a kata returned by the judging
// service. It is owned by one session and replaced wholesale on each fetch.
type Challenge struct {
	Slug         string `json:"slug"`
	Title        string `json:"name"`
	Instructions string `json:"instructions"`
	Language     string `json:"language"`
	Description  string `json:"description"`
}

// Render returns the challenge header shown when a challenge is presented.
func (c *Challenge) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* (%s)\n", c.Title, c.Language)
	if c.Description != "" {
		b.WriteString(c.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderFull returns the challenge header plus its full instructions,
// used by the print command.
func (c *Challenge) RenderFull() string {
	return c.Render() + "----\n" + c.Instructions
}

// AcceptedMessage is posted after the challenge is accepted for training.
func (c *Challenge) AcceptedMessage() string {
	return fmt.Sprintf("Challenge `%s` accepted. Paste your solution with `codewars verify <code>` when ready.", c.Slug)
}

// SolutionsURL points at the public solutions page for a completed kata.
func (c *Challenge) SolutionsURL() string {
	return fmt.Sprintf("http://www.codewars.com/kata/%s/solutions/%s", c.Slug, c.Language)
}

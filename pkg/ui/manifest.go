package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CardItem is one row of a Card.
type CardItem struct {
	Label    string
	Value    string
	Emphasis bool
}

// Card is a titled, boxed list of label/value rows, used for the pre-run
// manifest and the run summary.
type Card struct {
	Title string
	Items []CardItem
}

// NewCard returns an empty card.
func NewCard(title string) *Card {
	return &Card{Title: title}
}

// Add appends a row. Empty values are skipped.
func (c *Card) Add(label string, value any) *Card {
	return c.add(label, value, false)
}

// AddEmphasis appends a highlighted row.
func (c *Card) AddEmphasis(label string, value any) *Card {
	return c.add(label, value, true)
}

func (c *Card) add(label string, value any, emphasis bool) *Card {
	s := fmt.Sprint(value)
	if s == "" {
		return c
	}
	c.Items = append(c.Items, CardItem{Label: label, Value: s, Emphasis: emphasis})
	return c
}

// Render returns the card as a string. Without a Unicode terminal the box
// is dropped and rows are printed plain.
func (c *Card) Render() string {
	width := 0
	for _, it := range c.Items {
		width = max(width, lipgloss.Width(it.Label))
	}

	var rows []string
	if c.Title != "" {
		rows = append(rows, SectionStyle.Render(c.Title))
	}
	for _, it := range c.Items {
		value := ConfigValueStyle.Render(it.Value)
		if it.Emphasis {
			value = StatValueStyle.Foreground(Secondary).Render(it.Value)
		}
		label := StatLabelStyle.Render(it.Label + strings.Repeat(" ", width-lipgloss.Width(it.Label)))
		rows = append(rows, label+"  "+value)
	}
	body := strings.Join(rows, "\n")

	if !UnicodeTerminal() {
		return body
	}
	return BoxStyle.Render(body)
}

// Print writes the card to the UI output.
func (c *Card) Print() {
	if IsSilent() {
		return
	}
	fmt.Fprintln(writer(), c.Render())
}

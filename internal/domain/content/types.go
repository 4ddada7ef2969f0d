package content

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/labmat/internal/domain/explain"
)

// ErrContentNotFound is matched by every lookup miss.
var ErrContentNotFound = errors.New("content not found")

// ContentNotFoundError reports which lookup missed.
type ContentNotFoundError struct {
	Kind string
	ID   int
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrContentNotFound) hold.
func (e *ContentNotFoundError) Is(target error) bool {
	return target == ErrContentNotFound
}

// Practical is one lab exercise.
type Practical struct {
	ID           int                `json:"id"`
	Title        string             `json:"title"`
	Objective    string             `json:"objective"`
	Theory       string             `json:"theory"`
	Code         string             `json:"code"`
	Explanations explain.Dictionary `json:"explanations"`
}

// Summary is the catalog listing form of a practical.
type Summary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Objective string `json:"objective"`
}

// TutorTopic is one page of the tutor.
type TutorTopic struct {
	ID      int    `json:"id" yaml:"id" toml:"id"`
	Title   string `json:"title" yaml:"title" toml:"title"`
	Content string `json:"content" yaml:"content" toml:"content"`
}

// QuickRef is an insertable command snippet.
type QuickRef struct {
	Command string `json:"command" yaml:"command" toml:"command"`
	Label   string `json:"label" yaml:"label" toml:"label"`
}

func (p *Practical) summary() Summary {
	return Summary{ID: p.ID, Title: p.Title, Objective: p.Objective}
}

func (p *Practical) clone() *Practical {
	cp := *p
	cp.Explanations = append(explain.Dictionary(nil), p.Explanations...)
	return &cp
}

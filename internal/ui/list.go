package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/tgillam/jukebox/internal/models"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [models.RemoteCandidate] to implement [list.Item].
type candidateItem struct {
	rank      int
	candidate models.RemoteCandidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }
func (i candidateItem) Title() string       { return i.candidate.Title }
func (i candidateItem) Description() string {
	desc := i.candidate.AuthorLabel
	if i.candidate.DurationLabel != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.candidate.DurationLabel)
	}
	return desc
}

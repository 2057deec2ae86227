package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/pictag/internal/formatter"
	"github.com/desertthunder/pictag/internal/models"
)

var _ list.Item = mediaItem{}

// mediaItem wraps [models.Media] to implement [list.Item]. The selection map
// is shared with the model so toggles render immediately.
type mediaItem struct {
	media    models.Media
	selected map[string]bool
}

func (i mediaItem) FilterValue() string { return i.media.Filename }

func (i mediaItem) Title() string {
	marker := "[ ]"
	if i.selected[i.media.ID] {
		marker = "[x]"
	}
	return fmt.Sprintf("%s %s", marker, i.media.Filename)
}

func (i mediaItem) Description() string {
	desc := i.media.ContentType
	if i.media.Size > 0 {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatBytes(i.media.Size))
	}
	if !i.media.IsImage() {
		desc = fmt.Sprintf("%s • not analyzable", desc)
	}
	return desc
}

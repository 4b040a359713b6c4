package ui

import (
	"fmt"

	"github.com/desertthunder/screener/internal/models"
)

// assetItem wraps [models.AssetSummary] to implement list.Item.
type assetItem struct {
	asset  models.AssetSummary
	marked bool
}

func (i assetItem) FilterValue() string { return i.asset.Title }

func (i assetItem) Title() string {
	title := i.asset.Title
	if title == "" {
		title = i.asset.ID
	}
	if i.marked {
		return fmt.Sprintf("* %s", title)
	}
	return title
}

func (i assetItem) Description() string {
	desc := string(i.asset.State)
	if i.asset.MediaType != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.asset.MediaType)
	}
	return desc
}

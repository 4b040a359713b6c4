package ui

import (
	"time"

	"github.com/desertthunder/screener/internal/batch"
	"github.com/desertthunder/screener/internal/models"
)

type assetsFetchedMsg struct {
	page *models.AssetPage
	err  error
}

type assetFetchedMsg struct {
	asset *models.Asset
	err   error
}

type decisionDoneMsg struct {
	id      string
	changed bool
	err     error
}

type batchQueuedMsg struct {
	err error
}

type batchDoneMsg struct {
	snap batch.Snapshot
}

type tickMsg time.Time

// Package models defines domain entities shared across the screener client.
//
// The package contains two categories of types:
//
// 1. Asset representations consumed from the review backend:
//   - [AssetSummary] : List-view metadata from GET /assets
//   - [Asset] : Full detail from GET /assets/{id}
//   - [MetadataPatch] : Mutable tags/notes payload for PATCH /assets/{id}
//
// 2. Review workflow values owned by the client:
//   - [AssetState] / [DecisionAction] : The KEEP/REJECT/CLEAR decision table ([NextState])
//   - [BatchReport] / [ReportError] : Terminal report for a batch move
//
// The client never invents assets; it only mutates State, Tags and Notes.
// Tag and note payloads are normalized ([NormalizeTags], [NormalizeNotes])
// before submission so that a patch followed by a read returns exactly
// what was sent.
package models

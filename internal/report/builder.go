// Package report renders the site follow-up spreadsheet: one styled
// section per date, one row per entry, with thumbnails pulled from
// object storage.
package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
	entrymodels "io.winapps.sitefollowup/internal/models/entry"
	"io.winapps.sitefollowup/internal/repository"
	"io.winapps.sitefollowup/internal/storage"
)

const sheetName = "Site Follow-up"

// imageLoadFailedMarker is rendered in the photo cell when a thumbnail
// cannot be fetched or decoded; the report itself still completes.
const imageLoadFailedMarker = "[Image Load Failed]"

const (
	entryRowHeight = 80.0
	thumbWidthPx   = 100.0
	thumbHeightPx  = 75.0
)

// Builder produces the complete spreadsheet in memory. Downloads run on
// a bounded worker pool; embedding into the document is serialized in
// row order because the writer is not concurrency-safe.
type Builder struct {
	repo    repository.EntryReader
	store   storage.ObjectStore
	logger  *zap.SugaredLogger
	workers int
}

func NewBuilder(repo repository.EntryReader, store storage.ObjectStore, logger *zap.SugaredLogger) *Builder {
	return &Builder{
		repo:    repo,
		store:   store,
		logger:  logger,
		workers: 4,
	}
}

// Filename returns the attachment name for a report generated now.
func Filename(t time.Time) string {
	return fmt.Sprintf("Site_Followup_%s.xlsx", t.Format("20060102_150405"))
}

// Build queries every date and its entries and renders the document.
// Dates are rendered in the order the repository yields them; a date
// whose entry list comes back empty contributes nothing.
func (b *Builder) Build(ctx context.Context) (*bytes.Buffer, error) {
	dates, err := b.repo.ListDates(ctx)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, errs.ErrEmptyReport
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetColWidth(sheetName, "A", "A", 15); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "C", 40)
	_ = f.SetColWidth(sheetName, "D", "D", 30)

	row := 1
	for _, date := range dates {
		entries, err := b.repo.ListEntriesByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		// The date list and a date-filtered fetch may disagree.
		if len(entries) == 0 {
			continue
		}

		row, err = b.writeSection(ctx, f, styles, date, entries, row)
		if err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

// writeSection renders one date: banner, header row, entry rows, and a
// blank separator row. Returns the next free row.
func (b *Builder) writeSection(ctx context.Context, f *excelize.File, styles *styleSet, date string, entries []entrymodels.Entry, row int) (int, error) {
	// Date banner spanning the first two columns.
	left := cell(1, row)
	if err := f.MergeCell(sheetName, left, cell(2, row)); err != nil {
		return 0, err
	}
	_ = f.SetCellValue(sheetName, left, "Date : "+date)
	_ = f.SetCellStyle(sheetName, left, cell(2, row), styles.banner)
	row++

	for col, h := range []struct {
		label string
		style int
	}{
		{"Time", styles.timeHeader},
		{"Name", styles.nameHeader},
		{"Location", styles.locationHeader},
		{"Photo", styles.photoHeader},
	} {
		c := cell(col+1, row)
		_ = f.SetCellValue(sheetName, c, h.label)
		_ = f.SetCellStyle(sheetName, c, c, h.style)
	}
	row++

	photos := b.downloadPhotos(ctx, entries)

	for i, entry := range entries {
		_ = f.SetRowHeight(sheetName, row, entryRowHeight)

		_ = f.SetCellValue(sheetName, cell(1, row), entry.Timestamp)
		_ = f.SetCellValue(sheetName, cell(2, row), entry.Name)
		_ = f.SetCellValue(sheetName, cell(3, row), entry.Location())
		_ = f.SetCellStyle(sheetName, cell(1, row), cell(4, row), styles.body)

		if err := b.embedPhoto(f, cell(4, row), photos[i], entry, row); err != nil {
			return 0, err
		}
		row++
	}

	// Separator before the next section.
	return row + 1, nil
}

// embedPhoto anchors the thumbnail at the photo cell, or writes the
// failure marker when the bytes are missing or undecodable.
func (b *Builder) embedPhoto(f *excelize.File, anchor string, data []byte, entry entrymodels.Entry, row int) error {
	if data == nil {
		return f.SetCellValue(sheetName, anchor, imageLoadFailedMarker)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		b.logger.Warnw("stored photo is not decodable, rendering marker",
			"key", entry.PhotoRef.Primary(), "row", row, "error", err)
		return f.SetCellValue(sheetName, anchor, imageLoadFailedMarker)
	}

	err = f.AddPictureFromBytes(sheetName, anchor, &excelize.Picture{
		Extension: ".jpg",
		File:      data,
		Format: &excelize.GraphicOptions{
			ScaleX:      thumbWidthPx / float64(cfg.Width),
			ScaleY:      thumbHeightPx / float64(cfg.Height),
			Positioning: "oneCell",
		},
	})
	if err != nil {
		b.logger.Warnw("failed to embed photo, rendering marker",
			"key", entry.PhotoRef.Primary(), "row", row, "error", err)
		return f.SetCellValue(sheetName, anchor, imageLoadFailedMarker)
	}
	return nil
}

// downloadPhotos fetches each entry's representative photo on a fixed
// worker pool. The result slice is index-aligned with entries; a nil
// element means the download failed and the marker should be rendered.
func (b *Builder) downloadPhotos(ctx context.Context, entries []entrymodels.Entry) [][]byte {
	results := make([][]byte, len(entries))

	workers := b.workers
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers < 1 {
		workers = 1
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				key := entries[i].PhotoRef.Primary()
				if key == "" {
					continue
				}
				data, err := b.store.Download(ctx, key)
				if err != nil {
					b.logger.Warnw("photo download failed", "key", key, "error", err)
					continue
				}
				results[i] = data
			}
		}()
	}
	for i := range entries {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportPageSize is the page size requested while exporting.
const ExportPageSize = 10000

// ExportFileName is the download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("cost-database-export-%s.json", t.Format(time.DateOnly))
}

// ProgressFunc reports export progress after each page.
type ProgressFunc func(page, pages int)

// ExportItems writes every item as one indented JSON array and returns the item count.
func (c *Client) ExportItems(ctx context.Context, w io.Writer, pageSize int) (int, error) {
	return c.ExportItemsWithProgress(ctx, w, pageSize, nil)
}

// ExportItemsWithProgress is ExportItems with a per-page callback.
func (c *Client) ExportItemsWithProgress(ctx context.Context, w io.Writer, pageSize int, progress ProgressFunc) (int, error) {
	if pageSize <= 0 {
		pageSize = ExportPageSize
	}

	bw := bufio.NewWriter(w)
	count := 0
	for page := 1; ; page++ {
		result, err := c.Items(ctx, ItemsQuery{Page: page, PerPage: pageSize})
		if err != nil {
			return count, err
		}

		for _, item := range result.Items {
			data, err := json.MarshalIndent(item, "  ", "  ")
			if err != nil {
				return count, fmt.Errorf("export failed: encoding item %s: %w", item.ItemCode, err)
			}
			sep := ",\n  "
			if count == 0 {
				sep = "[\n  "
			}
			if _, err := bw.WriteString(sep); err != nil {
				return count, fmt.Errorf("export failed: %w", err)
			}
			if _, err := bw.Write(data); err != nil {
				return count, fmt.Errorf("export failed: %w", err)
			}
			count++
		}

		if progress != nil {
			progress(page, max(result.Pages, page))
		}
		if page >= result.Pages || len(result.Items) == 0 {
			break
		}
	}

	closing := "\n]\n"
	if count == 0 {
		closing = "[]\n"
	}
	if _, err := bw.WriteString(closing); err != nil {
		return count, fmt.Errorf("export failed: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return count, fmt.Errorf("export failed: %w", err)
	}
	return count, nil
}

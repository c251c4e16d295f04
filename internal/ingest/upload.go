package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/model"
)

// ErrNoColumns reports a CSV without a header row.
var ErrNoColumns = errors.New("no columns to parse from file")

// MissingColumnsError lists the required columns an upload lacks.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *MissingColumnsError) Unwrap() error {
	return common.ErrMissingColumns
}

// Upload is a validated purchase order file.
type Upload struct {
	Columns []string
	Orders  []model.PurchaseOrder
}

// Rows returns the number of data rows.
func (u *Upload) Rows() int {
	return len(u.Orders)
}

func invalidCSV(err error) error {
	return common.NewUserError("Invalid CSV format: "+err.Error(), fmt.Errorf("%w: %w", common.ErrInvalidCSV, err))
}

// ParseUpload validates data against the purchase order schema. Column order
// is not enforced and extra columns are kept in Columns.
func ParseUpload(data []byte) (*Upload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalidCSV(fmt.Errorf("%w: %w", common.ErrEmptyUpload, ErrNoColumns))
	}

	t, err := readTable(bytes.NewReader(data))
	if err != nil {
		return nil, invalidCSV(err)
	}

	if missing := t.missing(model.UploadColumns); len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	orders := make([]model.PurchaseOrder, 0, len(t.rows))
	for i, row := range t.rows {
		po, err := parseOrder(t, row)
		if err != nil {
			// Header is line 1.
			return nil, invalidCSV(fmt.Errorf("row %d: %w", i+2, err))
		}
		orders = append(orders, po)
	}

	return &Upload{Columns: t.header, Orders: orders}, nil
}

func parseOrder(t *table, row []string) (model.PurchaseOrder, error) {
	po := model.PurchaseOrder{
		POID:            t.str(row, "po_id"),
		ItemDescription: t.str(row, "item_description"),
		Unit:            t.str(row, "unit"),
		PODate:          t.str(row, "po_date"),
		Region:          t.str(row, "region"),
		Department:      t.str(row, "department"),
		Supplier:        t.str(row, "supplier"),
	}
	if po.POID == "" {
		return po, errors.New("po_id is empty")
	}

	var err error
	if po.UnitPrice, _, err = t.float(row, "unit_price"); err != nil {
		return po, err
	}
	if po.Quantity, _, err = t.float(row, "quantity"); err != nil {
		return po, err
	}
	return po, nil
}

// IsCSV reports whether name carries a .csv extension, in any case.
func IsCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename strips directories and every character outside [A-Za-z0-9._-].
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" || name == "csv" {
		return "upload.csv"
	}
	return name
}

// Timestamp formats t the way saved uploads and backups are named.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// SavedName is the name an upload is stored under.
func SavedName(original string, at time.Time) string {
	return fmt.Sprintf("upload_%s_%s", Timestamp(at), SanitizeFilename(original))
}

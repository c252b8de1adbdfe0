package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const catalogSheetName = "Games"

// catalogColumns is the header row of the catalog sheet. Import relies on
// this order.
var catalogColumns = []string{
	"ID",
	"Title",
	"Price",
	"Old Price",
	"Categories",
	"Platforms",
	"Rating",
	"Developer",
	"Publisher",
	"Release Date",
	"Classification",
	"Description",
	"Cover Image",
	"Header Image",
	"Related Games",
}

// WriteCatalogSheet writes products as an XLSX workbook to w.
func WriteCatalogSheet(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), catalogSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(catalogColumns))
	for i, c := range catalogColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(catalogSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range products {
		var oldPrice interface{}
		if p.OldPrice != nil {
			oldPrice = *p.OldPrice
		}
		row := []interface{}{
			p.ID,
			p.Title,
			p.Price,
			oldPrice,
			strings.Join(p.Categories, ", "),
			strings.Join(p.Platforms, ", "),
			p.Rating,
			p.Developer,
			p.Publisher,
			p.ReleaseDate,
			p.Classification,
			p.Description,
			p.CoverImageURL,
			p.HeaderImageURL,
			strings.Join(p.RelatedGameNames, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(catalogSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SheetImport is the result of reading a catalog sheet.
type SheetImport struct {
	Products []model.Product
	Skipped  int
}

// ReadCatalogSheet parses the first sheet of an XLSX workbook laid out like
// WriteCatalogSheet's output. Rows without a title, a positive price or a
// category are skipped. The ID column is ignored.
func ReadCatalogSheet(r io.Reader) (*SheetImport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	result := &SheetImport{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		title := cell(1)
		price, err := strconv.ParseFloat(cell(2), 64)
		categories := splitCell(cell(4))
		if title == "" || err != nil || price <= 0 || len(categories) == 0 {
			result.Skipped++
			continue
		}

		product := model.Product{
			Title:            title,
			Price:            price,
			Categories:       categories,
			Platforms:        splitCell(cell(5)),
			Developer:        cell(7),
			Publisher:        cell(8),
			ReleaseDate:      cell(9),
			Classification:   cell(10),
			Description:      cell(11),
			CoverImageURL:    cell(12),
			HeaderImageURL:   cell(13),
			RelatedGameNames: splitCell(cell(14)),
		}
		if old, err := strconv.ParseFloat(cell(3), 64); err == nil && old > 0 {
			product.OldPrice = &old
		}
		if rating, err := strconv.ParseFloat(cell(6), 64); err == nil {
			product.Rating = rating
		}
		if product.Classification == "" {
			product.Classification = model.DefaultClassification
		}
		result.Products = append(result.Products, product)
	}

	return result, nil
}

func splitCell(v string) model.StringList {
	return model.StringList(compact(strings.Split(v, ",")))
}

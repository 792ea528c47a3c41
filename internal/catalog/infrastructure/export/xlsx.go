// Package export 将商品目录导出为 Excel
package export

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
	"github.com/wyfcoding/musicstore/internal/catalog/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var productHeaders = []string{
	"ID", "Name", "Price", "Stock", "Category", "SubCategory",
	"ImageURL", "Description", "CreatedAt", "UpdatedAt",
}

// WriteProducts 写出单 sheet 的商品表
func WriteProducts(w io.Writer, products []*domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Price)
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.SubCategory)
		row.AddCell().SetValue(p.ImageURL)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.CreatedAt.Format(timeLayout))
		row.AddCell().SetValue(p.UpdatedAt.Format(timeLayout))
	}

	return file.Write(w)
}

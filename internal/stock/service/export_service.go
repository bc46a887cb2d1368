package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService 库存清单导出服务
type ExportService struct {
	itemRepo *repository.ItemRepository
	quantity *QuantityService
}

func NewExportService(itemRepo *repository.ItemRepository, quantity *QuantityService) *ExportService {
	return &ExportService{itemRepo: itemRepo, quantity: quantity}
}

var stockExportHeaders = []string{
	"编码", "名称", "类别", "跟踪方式", "单位", "总数", "可用", "占用", "补货线",
}

// ExportStock 导出全量库存清单（统一数量视图），返回工作簿与文件名
func (s *ExportService) ExportStock(ctx context.Context) (*excelize.File, string, error) {
	items, _, err := s.itemRepo.List(ctx, repository.ItemListParams{
		ActiveOnly: true,
		Page:       1,
		PageSize:   10000,
	})
	if err != nil {
		return nil, "", fmt.Errorf("查询物资列表失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "库存清单"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range stockExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, item := range items {
		qty, err := s.quantity.GetQuantities(ctx, item.ID)
		if err != nil {
			return nil, "", fmt.Errorf("汇总物资 %s 数量失败: %w", item.Code, err)
		}

		row := i + 2
		values := []interface{}{
			item.Code,
			item.Name,
			item.Category,
			item.TrackingMode,
			item.Unit,
			qty.Total.String(),
			qty.Available.String(),
			qty.Allocated.String(),
			item.ReorderLevel.String(),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	filename := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}

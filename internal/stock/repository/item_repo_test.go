package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/testutil"
)

// 编码唯一性最终由唯一索引保证：预查通过后并发落库的重复编码
// 也要转换为 DuplicateCodeError，而不是裸的数据库错误。
func TestItemCreateTranslatesDuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	first := &entity.Item{
		ID:           "item-dup-001",
		Code:         "GEN-001",
		Name:         "柴油发电机",
		TrackingMode: entity.TrackingModeBulk,
		Active:       true,
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first item: %v", err)
	}

	second := &entity.Item{
		ID:           "item-dup-002",
		Code:         "GEN-001",
		Name:         "柴油发电机B",
		TrackingMode: entity.TrackingModeBulk,
		Active:       true,
	}
	err := repo.Create(ctx, second)
	var dup *entity.DuplicateCodeError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateCodeError, got %v", err)
	}
	if dup.Code != "GEN-001" {
		t.Fatalf("expected code GEN-001 in error, got %s", dup.Code)
	}
}

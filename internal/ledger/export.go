package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"

	// NullCategoryLabel names the group of transactions without a category.
	NullCategoryLabel = "null"
)

// ExportWorkbook writes the account's transactions and category totals as
// an xlsx workbook.
func (s *Service) ExportWorkbook(ctx context.Context, accountID int64, w io.Writer) error {
	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	totals, err := s.store.SumByCategory(ctx, accountID)
	if err != nil {
		return fmt.Errorf("sum by category: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(transactionsSheet, "A1", &[]any{"ID", "Description", "Amount", "Category"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(transactionsSheet, "A1", "D1", headerStyle); err != nil {
		return err
	}
	f.SetColWidth(transactionsSheet, "B", "B", 30)
	f.SetColWidth(transactionsSheet, "D", "D", 18)

	for i, tx := range txs {
		cell := fmt.Sprintf("A%d", i+2)
		category := ""
		if tx.Category != nil {
			category = *tx.Category
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &[]any{tx.ID, tx.Description, tx.Amount, category}); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Category", "Total"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	f.SetColWidth(summarySheet, "A", "A", 18)

	for i, t := range totals {
		label := NullCategoryLabel
		if t.Category != nil {
			label = *t.Category
		}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &[]any{label, t.Total}); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

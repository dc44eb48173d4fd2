package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReportUseCase genera el reporte PDF de niveles de stock.
type ReportUseCase struct {
	stockRepo repository.StockRepository
	hydrate   hydrator
	generator StockReportGenerator
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso inyectando el generador.
func NewReportUseCase(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	generator StockReportGenerator,
) *ReportUseCase {
	return &ReportUseCase{
		stockRepo: stockRepo,
		hydrate:   hydrator{productRepo: productRepo},
		generator: generator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StockLevelsPDF arma el reporte de todos los registros (o solo los de location) y devuelve
// los bytes del PDF con su nombre de archivo sugerido.
func (uc *ReportUseCase) StockLevelsPDF(
	ctx context.Context,
	location, generatedBy string,
) (pdfBytes []byte, filename string, err error) {
	filter := repository.StockFilter{}
	if strings.TrimSpace(location) != "" {
		filter.Location = inventory.NormalizeLocation(location)
	}
	records, err := uc.stockRepo.List(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: listar stock: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}
	products, err := uc.hydrate.productsByID(ctx, unique(ids))
	if err != nil {
		return nil, "", err
	}

	now := uc.now()
	report := StockReport{
		Title:       "Reporte de niveles de stock",
		GeneratedAt: now,
		GeneratedBy: generatedBy,
		Location:    filter.Location,
		Lines:       make([]StockReportLine, 0, len(records)),
		Valuation:   decimal.Zero,
	}
	for _, r := range records {
		line := StockReportLine{
			Location:      r.Location,
			Current:       r.CurrentQuantity,
			Reserved:      r.ReservedQuantity,
			Incoming:      r.IncomingQuantity,
			MinLevel:      r.MinLevel,
			MaxLevel:      r.MaxLevel,
			BelowMin:      inventory.BelowMinimum(r),
			PurchasePrice: decimal.Zero,
		}
		if p, ok := products[r.ProductID]; ok {
			line.Code = p.Code
			line.Name = p.Name
			line.PurchasePrice = p.PurchasePrice
		} else {
			line.Code = r.ProductID
		}
		report.TotalUnits += r.CurrentQuantity
		report.Valuation = report.Valuation.Add(line.PurchasePrice.Mul(decimal.NewFromInt(r.CurrentQuantity)))
		report.Lines = append(report.Lines, line)
	}
	sort.SliceStable(report.Lines, func(i, j int) bool {
		a, b := report.Lines[i], report.Lines[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Code < b.Code
	})

	pdfBytes, err = uc.generator.GenerateStockReport(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("niveles_stock_%s.pdf", now.Format("20060102")), nil
}

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func newImportProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-products",
		Short: "Importa el catálogo desde un CSV (codigo;nombre;unidad;categoria;precio_compra;precio_venta)",
		Long: `Crea los productos nuevos y actualiza los existentes por código.
Exportaciones de hojas de cálculo antiguas suelen venir en ISO-8859-1: usar --latin1.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			latin1, _ := cmd.Flags().GetBool("latin1")

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("abrir CSV: %w", err)
			}
			defer f.Close()

			var r io.Reader = f
			if latin1 {
				r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
			}
			rows, err := parseProductCSV(r)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
			be, err := openBackend(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer be.close(cmd.Context())

			res, err := usecase.NewProductUseCase(be.products).Import(cmd.Context(), rows)
			log.Info().Int("creados", res.Created).Int("actualizados", res.Updated).Msg("importación de productos")
			return err
		},
	}
	cmd.Flags().String("file", "", "ruta del CSV")
	cmd.Flags().Bool("latin1", false, "el archivo está en ISO-8859-1")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseProductCSV lee filas separadas por ';'. La primera fila se omite si es encabezado.
// Los precios aceptan coma decimal.
func parseProductCSV(r io.Reader) ([]usecase.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var rows []usecase.ImportRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV línea %d: %w", line, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("CSV línea %d: se esperan al menos código y nombre", line)
		}
		row := usecase.ImportRow{
			Code: strings.TrimSpace(rec[0]),
			Name: strings.TrimSpace(rec[1]),
		}
		if len(rec) > 2 {
			row.Unit = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			row.Category = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 {
			if row.PurchasePrice, err = parsePrice(rec[4]); err != nil {
				return nil, fmt.Errorf("CSV línea %d: precio de compra: %w", line, err)
			}
		}
		if len(rec) > 5 {
			if row.SalePrice, err = parsePrice(rec[5]); err != nil {
				return nil, fmt.Errorf("CSV línea %d: precio de venta: %w", line, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(rec[0])) {
	case "codigo", "código", "code":
		return true
	}
	return false
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
}

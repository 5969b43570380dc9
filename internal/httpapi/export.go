package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"spbunet/api/internal/store"

	"github.com/xuri/excelize/v2"
)

const (
	fuelSheet = "BBM"
	lpgSheet  = "LPG"
	xlsxType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// writeSalesWorkbook lays fuel sales on the BBM sheet and LPG sales on the
// LPG sheet of a fresh workbook, one row per (location, period, product).
// The caller owns f and closes it.
func writeSalesWorkbook(f *excelize.File, fuel []store.FuelSale, lpg []store.LPGSale) error {
	if err := f.SetSheetName("Sheet1", fuelSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(lpgSheet); err != nil {
		return err
	}

	fuelRows := make([][]any, 0, len(fuel))
	for _, s := range fuel {
		fuelRows = append(fuelRows, []any{s.LocationID, s.LocationName, s.Period, s.Product, s.VolumeKL})
	}
	if err := writeRows(f, fuelSheet, []any{"location_id", "location", "period", "product", "volume_kl"}, fuelRows); err != nil {
		return fmt.Errorf("write %s: %w", fuelSheet, err)
	}

	lpgRows := make([][]any, 0, len(lpg))
	for _, s := range lpg {
		lpgRows = append(lpgRows, []any{s.LocationID, s.LocationName, s.Period, s.Product, s.VolumeTon})
	}
	if err := writeRows(f, lpgSheet, []any{"location_id", "location", "period", "product", "volume_ton"}, lpgRows); err != nil {
		return fmt.Errorf("write %s: %w", lpgSheet, err)
	}
	return nil
}

func (a *App) handleExportSales(w http.ResponseWriter, r *http.Request) {
	filter, ok := salesFilter(w, r)
	if !ok {
		return
	}
	fuel, err := a.store.ListFuelSales(r.Context(), filter)
	if err != nil {
		a.writeStoreError(w, err, "fuel sale")
		return
	}
	lpg, err := a.store.ListLPGSales(r.Context(), filter)
	if err != nil {
		a.writeStoreError(w, err, "lpg sale")
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := writeSalesWorkbook(f, fuel, lpg); err != nil {
		a.log.WithError(err).Error("build sales workbook")
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "export failed")
		return
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		a.log.WithError(err).Error("write sales workbook")
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "export failed")
		return
	}

	label := filter.Period
	if label == "" {
		label = time.Now().Format("2006-01-02")
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="penjualan-%s.xlsx"`, label))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

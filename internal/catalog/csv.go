package catalog

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed data/phones.csv
var embeddedCSV string

var csvHeader = []string{
	"id", "name", "brand", "price_inr", "battery_mah", "main_camera_mp",
	"display_inches", "refresh_rate_hz", "ram_gb", "storage_gb",
	"charging_watts", "has_5g", "weight_grams", "os", "features",
}

func loadCSVFile(path string) ([]Phone, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return parseCSV(string(b))
}

func parseCSV(raw string) ([]Phone, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("catalog: csv has no data rows")
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	phones := make([]Phone, 0, len(rows)-1)
	for i, row := range rows[1:] {
		p, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("catalog: row %d: %w", i+2, err)
		}
		phones = append(phones, p)
	}
	return phones, nil
}

func checkHeader(got []string) error {
	if len(got) != len(csvHeader) {
		return fmt.Errorf("catalog: expected %d columns, got %d", len(csvHeader), len(got))
	}
	for i, want := range csvHeader {
		if strings.TrimSpace(strings.ToLower(got[i])) != want {
			return fmt.Errorf("catalog: column %d is %q, want %q", i+1, got[i], want)
		}
	}
	return nil
}

func parseRow(row []string) (Phone, error) {
	if len(row) != len(csvHeader) {
		return Phone{}, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(row))
	}
	var (
		p   Phone
		err error
	)
	p.ID = strings.TrimSpace(row[0])
	p.Name = strings.TrimSpace(row[1])
	p.Brand = strings.TrimSpace(row[2])
	if p.PriceINR, err = atoiField(row[3], "price_inr"); err != nil {
		return Phone{}, err
	}
	if p.BatteryMAh, err = atoiField(row[4], "battery_mah"); err != nil {
		return Phone{}, err
	}
	if p.MainCameraMP, err = atoiField(row[5], "main_camera_mp"); err != nil {
		return Phone{}, err
	}
	if p.DisplayInches, err = strconv.ParseFloat(strings.TrimSpace(row[6]), 64); err != nil {
		return Phone{}, fmt.Errorf("display_inches: %w", err)
	}
	if p.RefreshRateHz, err = atoiField(row[7], "refresh_rate_hz"); err != nil {
		return Phone{}, err
	}
	if p.RAMGB, err = atoiField(row[8], "ram_gb"); err != nil {
		return Phone{}, err
	}
	if p.StorageGB, err = atoiField(row[9], "storage_gb"); err != nil {
		return Phone{}, err
	}
	if p.ChargingWatts, err = atoiField(row[10], "charging_watts"); err != nil {
		return Phone{}, err
	}
	if p.Has5G, err = parseFlag(row[11]); err != nil {
		return Phone{}, fmt.Errorf("has_5g: %w", err)
	}
	if p.WeightGrams, err = atoiField(row[12], "weight_grams"); err != nil {
		return Phone{}, err
	}
	p.OS = strings.TrimSpace(row[13])
	p.Features = splitFeatures(row[14])
	return p, nil
}

func atoiField(raw, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized flag %q", raw)
}

func splitFeatures(raw string) []string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

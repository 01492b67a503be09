package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

var sampleHeader = []string{
	"external_id", "make", "model", "year", "price", "fuel_type", "transmission",
	"cylinders", "displacement", "city_mpg", "highway_mpg", "combination_mpg",
	"description", "image_url",
}

var sampleRows = [][]string{
	{"SAMPLE-001", "Toyota", "Camry", "2023", "26420", "gas", "automatic", "4", "2.5", "28", "39", "32", "Reliable midsize sedan", ""},
	{"SAMPLE-002", "Honda", "Civic", "2022", "$23,950", "Gasoline", "manual", "4", "2.0", "31", "40", "35", "", ""},
	{"SAMPLE-003", "Tesla", "Model 3", "2024", "38990", "EV", "automatic", "0", "0", "138", "126", "132", "Long range dual motor", ""},
	{"SAMPLE-004", "Ford", "F-150", "2023", "36570", "gas", "automatic", "6", "3.5", "18", "24", "20", "Full-size pickup", ""},
	{"SAMPLE-005", "Toyota", "Prius", "2023", "27450", "Hybrid", "automatic", "4", "2.0", "57", "56", "57", "", ""},
	{"SAMPLE-006", "Volkswagen", "Golf TDI", "2021", "24595", "diesel", "manual", "4", "2.0", "30", "41", "34", "", ""},
	{"SAMPLE-007", "Nissan", "Leaf", "2022", "28040", "Electric Vehicle", "automatic", "", "", "", "", "", "", ""},
	{"SAMPLE-008", "Mazda", "MX-5 Miata", "2024", "29745", "Premium", "stick", "4", "2.0", "26", "34", "29", "Two-seat roadster", ""},
}

// GenerateSample writes an example CSV import file to path
func GenerateSample(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sample file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(sampleRows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return f.Close()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ikkim/salonbook-backend/config"
	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	"github.com/ikkim/salonbook-backend/internal/db"
	"github.com/ikkim/salonbook-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Columns recognised in the header row. Only name is required.
var seedColumns = []string{
	"name", "description", "phone", "email", "website", "address", "logo_url", "timezone", "currency",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Initialize(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	inputs, err := readBusinessesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total businesses to import: %d\n", len(inputs))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	businessService := service.NewBusinessService()
	newSession := repository.NewSessionFactory(db.GetDB())
	ctx := context.Background()

	created, duplicates, failed := 0, 0, 0
	for _, input := range inputs {
		_, err := businessService.CreateBusiness(ctx, newSession(), input)
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrDuplicateBusinessName):
			duplicates++
		default:
			failed++
			fmt.Printf("Failed to import %q: %v\n", input.Name, err)
		}
	}

	fmt.Println("Import completed!")
	fmt.Printf("  Created: %d\n", created)
	fmt.Printf("  Duplicates skipped: %d\n", duplicates)
	fmt.Printf("  Failed: %d\n", failed)
}

func readBusinessesFromXLSX(filePath string) ([]service.BusinessCreateInput, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
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

	index := headerIndex(rows[0])
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("header row has no name column")
	}

	var inputs []service.BusinessCreateInput
	seen := make(map[string]bool)
	skipped := 0

	for _, row := range rows[1:] {
		input, ok := parseBusinessRow(row, index)
		if !ok || seen[input.Name] {
			skipped++
			continue
		}
		seen[input.Name] = true
		inputs = append(inputs, input)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid businesses: %d\n", len(inputs))
	fmt.Printf("  Skipped rows: %d\n", skipped)

	return inputs, nil
}

// headerIndex maps known column names to their position in the header row.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, column := range seedColumns {
			if name == column {
				index[column] = i
			}
		}
	}
	return index
}

func parseBusinessRow(row []string, index map[string]int) (service.BusinessCreateInput, bool) {
	cell := func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	optionalCell := func(column string) *string {
		if value := cell(column); value != "" {
			return &value
		}
		return nil
	}

	input := service.BusinessCreateInput{
		Name:        cell("name"),
		Description: optionalCell("description"),
		Phone:       optionalCell("phone"),
		Email:       optionalCell("email"),
		Website:     optionalCell("website"),
		Address:     optionalCell("address"),
		LogoURL:     optionalCell("logo_url"),
		Timezone:    cell("timezone"),
		Currency:    strings.ToUpper(cell("currency")),
	}

	if input.Name == "" || len([]rune(input.Name)) > 255 {
		return input, false
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return input, false
		}
	}
	if input.Currency != "" && !isSupportedCurrency(input.Currency) {
		return input, false
	}
	return input, true
}

func isSupportedCurrency(code string) bool {
	for _, supported := range model.SupportedCurrencies {
		if code == supported {
			return true
		}
	}
	return false
}

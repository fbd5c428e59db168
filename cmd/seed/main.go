package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/fuboru/panel-backend/config"
	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/internal/db"
	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	brandSheet    = "brands"
	categorySheet = "categories"
)

type catalog struct {
	Brands     []model.Brand
	Categories []model.Category
}

type importReport struct {
	Created int
	Skipped int
}

func main() {
	assumeYes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go [-yes] <xlsx_file_path>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	data, err := readCatalog(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Brands to import: %d\n", len(data.Brands))
	fmt.Printf("Categories to import: %d\n", len(data.Categories))

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	conn := db.GetDB()
	report, err := importCatalog(context.Background(),
		repository.NewBrandRepository(conn),
		repository.NewCategoryRepository(conn),
		data,
	)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("  Created: %d\n", report.Created)
	fmt.Printf("  Already present: %d\n", report.Skipped)
}

// readCatalog reads the brands sheet (A: name) and the categories sheet
// (A: name, B: slug). The first row of each sheet is a header.
func readCatalog(f *excelize.File) (*catalog, error) {
	data := &catalog{}

	brandRows, err := sheetRows(f, brandSheet)
	if err != nil {
		return nil, err
	}
	seenBrands := make(map[string]bool)
	for _, row := range brandRows {
		name := util.UCWords(strings.TrimSpace(cell(row, 0)))
		if name == "" || seenBrands[name] {
			continue
		}
		seenBrands[name] = true
		data.Brands = append(data.Brands, model.Brand{Name: name})
	}

	categoryRows, err := sheetRows(f, categorySheet)
	if err != nil {
		return nil, err
	}
	seenSlugs := make(map[string]bool)
	for i, row := range categoryRows {
		name := util.UCWords(strings.TrimSpace(cell(row, 0)))
		if name == "" {
			continue
		}

		slug := strings.TrimSpace(cell(row, 1))
		if slug == "" {
			slug = util.Slugify(name)
		}
		if !util.IsSlug(slug) {
			return nil, fmt.Errorf("%s row %d: invalid slug %q", categorySheet, i+2, slug)
		}
		if seenSlugs[slug] {
			continue
		}
		seenSlugs[slug] = true
		data.Categories = append(data.Categories, model.Category{Name: name, Slug: slug})
	}

	return data, nil
}

// sheetRows returns the rows below the header. A missing sheet yields no rows.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		fmt.Printf("Sheet %q not found, skipping\n", sheet)
		return nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// importCatalog inserts brands and categories that do not exist yet.
func importCatalog(
	ctx context.Context,
	brandRepo repository.BrandRepository,
	categoryRepo repository.CategoryRepository,
	data *catalog,
) (importReport, error) {
	var report importReport

	for i := range data.Brands {
		brand := data.Brands[i]
		_, err := brandRepo.FindByName(ctx, brand.Name)
		switch {
		case err == nil:
			report.Skipped++
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return report, err
		}
		if err := brandRepo.Create(ctx, &brand); err != nil {
			return report, fmt.Errorf("brand %q: %w", brand.Name, err)
		}
		report.Created++
	}

	for i := range data.Categories {
		category := data.Categories[i]
		_, err := categoryRepo.FindBySlug(ctx, category.Slug)
		switch {
		case err == nil:
			report.Skipped++
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return report, err
		}
		if err := categoryRepo.Create(ctx, &category); err != nil {
			return report, fmt.Errorf("category %q: %w", category.Slug, err)
		}
		report.Created++
	}

	return report, nil
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/phantomcommerce/phantom-backend/config"
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/spf13/pflag"
)

const batchSize = 500

func main() {
	importPath := pflag.StringP("import", "i", "", "XLSX workbook to import into the catalog")
	exportPath := pflag.StringP("export", "e", "", "write the current catalog to this XLSX workbook")
	promote := pflag.String("promote", "", "email of the account to grant the admin role")
	assumeYes := pflag.BoolP("yes", "y", false, "skip the confirmation prompt")
	pflag.Parse()

	if *importPath == "" && *exportPath == "" && *promote == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed [--import file.xlsx] [--export file.xlsx] [--promote email] [--yes]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	productRepo := repository.NewProductRepository(db.GetDB())

	if *importPath != "" {
		if err := importCatalog(productRepo, *importPath, *assumeYes); err != nil {
			logger.Fatal("Import failed", err, map[string]interface{}{"file": *importPath})
		}
	}
	if *exportPath != "" {
		if err := exportCatalog(productRepo, *exportPath); err != nil {
			logger.Fatal("Export failed", err, map[string]interface{}{"file": *exportPath})
		}
	}
	if *promote != "" {
		if err := promoteAdmin(repository.NewUserRepository(db.GetDB()), *promote); err != nil {
			logger.Fatal("Promotion failed", err, map[string]interface{}{"email": *promote})
		}
	}
}

func importCatalog(repo repository.ProductRepository, path string, assumeYes bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheet, err := service.ReadCatalogSheet(f)
	if err != nil {
		return err
	}

	logger.Info("Catalog sheet read", map[string]interface{}{
		"file":     path,
		"products": len(sheet.Products),
		"skipped":  sheet.Skipped,
	})
	if len(sheet.Products) == 0 {
		return nil
	}

	if !assumeYes && !confirm(fmt.Sprintf("Import %d products?", len(sheet.Products))) {
		logger.Info("Import cancelled")
		return nil
	}

	if err := repo.BulkCreate(sheet.Products, batchSize); err != nil {
		return err
	}
	logger.Info("Import completed", map[string]interface{}{
		"imported": len(sheet.Products),
	})
	return nil
}

func exportCatalog(repo repository.ProductRepository, path string) error {
	products, err := repo.FindAll()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create XLSX file: %w", err)
	}
	if err := service.WriteCatalogSheet(f, products); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("Export completed", map[string]interface{}{
		"file":     path,
		"products": len(products),
	})
	return nil
}

func promoteAdmin(repo repository.UserRepository, email string) error {
	user, err := repo.FindByEmail(service.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		logger.Info("Account is already an admin", map[string]interface{}{"email": user.Email})
		return nil
	}

	user.Role = model.RoleAdmin
	if err := repo.Update(user); err != nil {
		return err
	}
	logger.Info("Account promoted to admin", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func confirm(question string) bool {
	fmt.Printf("%s (yes/no): ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

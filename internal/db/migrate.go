package db

import (
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table the service owns.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.CartItem{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds the sample catalog to an empty products table.
func Seed() error {
	return SeedProducts(DB)
}

// SeedProducts inserts SampleProducts when db has no products yet.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Products already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	products := SampleProducts()
	if err := db.CreateInBatches(products, 100).Error; err != nil {
		logger.Error("Failed to seed products", err)
		return err
	}

	logger.Info("Products seeded successfully", map[string]interface{}{
		"total_records": len(products),
	})
	return nil
}

func price(v float64) *float64 { return &v }

// SampleProducts is a small catalog covering every storefront category.
func SampleProducts() []model.Product {
	pcReqs := model.SystemRequirements{
		Minimum:     model.HardwareSpec{CPU: "Intel Core i5-4460", RAM: "8 GB", GPU: "GTX 960", Storage: "50 GB"},
		Recommended: model.HardwareSpec{CPU: "Intel Core i7-8700", RAM: "16 GB", GPU: "RTX 2060", Storage: "50 GB SSD"},
	}

	return []model.Product{
		{
			Title:            "Lendas de Aurora",
			Description:      "Explore um reino em ruínas atrás da última chama.",
			Price:            199.90,
			OldPrice:         price(249.90),
			Developer:        "Aurora Studio",
			Publisher:        "Phantom Games",
			ReleaseDate:      "2023-03-14",
			Classification:   "12",
			Rating:           4.8,
			Categories:       model.StringList{"Aventura", "RPG"},
			Platforms:        model.StringList{model.PlatformPC, model.PlatformSteam, model.PlatformPlayStation},
			RelatedGameNames: model.StringList{"Crônicas do Abismo", "Reinos em Guerra"},
			SystemRequirements: pcReqs,
		},
		{
			Title:            "Crônicas do Abismo",
			Description:      "RPG tático em turnos com decisões permanentes.",
			Price:            149.90,
			Developer:        "Deepwell",
			Publisher:        "Phantom Games",
			ReleaseDate:      "2022-10-02",
			Classification:   "16",
			Rating:           4.6,
			Categories:       model.StringList{"RPG", "Estrategia"},
			Platforms:        model.StringList{model.PlatformPC, model.PlatformSteam},
			RelatedGameNames: model.StringList{"Lendas de Aurora"},
			SystemRequirements: pcReqs,
		},
		{
			Title:          "Turbo Drift 2",
			Description:    "Corridas urbanas com física arcade.",
			Price:          89.90,
			OldPrice:       price(129.90),
			Developer:      "Velocity Labs",
			Publisher:      "Redline",
			ReleaseDate:    "2021-06-21",
			Classification: model.DefaultClassification,
			Rating:         4.1,
			Categories:     model.StringList{"Corrida", "Esportes"},
			Platforms:      model.StringList{model.PlatformXbox, model.PlatformPlayStation, model.PlatformPC},
		},
		{
			Title:          "Operação Vértice",
			Description:    "Ação tática em primeira pessoa.",
			Price:          229.90,
			Developer:      "Northwind",
			Publisher:      "Redline",
			ReleaseDate:    "2024-01-30",
			Classification: "18",
			Rating:         4.4,
			Categories:     model.StringList{"Acao", "Aventura"},
			Platforms:      model.StringList{model.PlatformXbox, model.PlatformPC, model.PlatformSteam},
		},
		{
			Title:          "Reinos em Guerra",
			Description:    "Construa e defenda seu império em tempo real.",
			Price:          59.90,
			Developer:      "Bastion",
			Publisher:      "Phantom Games",
			ReleaseDate:    "2020-11-11",
			Classification: "10",
			Rating:         4.1,
			Categories:     model.StringList{"Estrategia"},
			Platforms:      model.StringList{model.PlatformPC},
		},
		{
			Title:          "Futebol Total 24",
			Description:    "Temporada completa com ligas licenciadas.",
			Price:          299.90,
			Developer:      "Kickoff",
			Publisher:      "Redline",
			ReleaseDate:    "2023-09-29",
			Classification: model.DefaultClassification,
			Rating:         3.9,
			Categories:     model.StringList{"Esportes"},
			Platforms:      model.StringList{model.PlatformPlayStation, model.PlatformXbox, model.PlatformSwitch},
		},
	}
}

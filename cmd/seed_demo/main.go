package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/snmlog/transferplus/internal/auth"
	"github.com/snmlog/transferplus/internal/config"
	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/models"
)

// Seeds a development database: local users for every role, the vessel and
// department lookups, and a handful of transfer records in assorted stages.
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	err = db.AutoMigrate(
		&models.Desembarque{},
		&models.Conferencia{},
		&models.Embarque{},
		&models.ImportBatch{},
		&models.UserAuth{},
		&models.Vessel{},
		&models.Department{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	var existing int64
	db.Model(&models.Desembarque{}).Count(&existing)
	if existing > 0 {
		fmt.Printf("database already has %d transfer records. Seed anyway? (y/N): ", existing)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			log.Info("aborted, database not modified")
			return
		}
	}

	seedUsers(db, log)
	seedLookups(db, log)
	seedTransfers(db, log)

	log.Info("demo data seeded")
}

func seedUsers(db *database.DB, log *logrus.Logger) {
	users := []struct {
		name string
		role string
	}{
		{"admin", models.RoleAdmin},
		{"desembarque", models.RoleDesembarque},
		{"conferente", models.RoleConferente},
		{"embarque", models.RoleEmbarque},
	}
	for _, u := range users {
		hash, err := auth.HashPassword(u.name + "123")
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		user := models.UserAuth{
			ID:           uuid.NewString(),
			Username:     u.name,
			PasswordHash: hash,
			Email:        u.name + "@example.com",
			Role:         u.role,
			IsActive:     true,
		}
		if err := db.Where("username = ?", u.name).FirstOrCreate(&user).Error; err != nil {
			log.Fatalf("seed user %s: %v", u.name, err)
		}
	}
	log.WithField("count", len(users)).Info("local users ready, password is <username>123")
}

func seedLookups(db *database.DB, log *logrus.Logger) {
	for _, name := range []string{"Skandi Urca", "Skandi Vitória", "Skandi Salvador", "Skandi Açu"} {
		v := models.Vessel{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&v).Error; err != nil {
			log.Fatalf("seed vessel %s: %v", name, err)
		}
	}
	for _, name := range []string{"Maintenance", "Deck", "Engine Room", "Catering"} {
		d := models.Department{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&d).Error; err != nil {
			log.Fatalf("seed department %s: %v", name, err)
		}
	}
	log.Info("lookup tables ready")
}

func seedTransfers(db *database.DB, log *logrus.Logger) {
	now := time.Now().UTC()
	total := decimal.RequireFromString("1250.00")
	qtyConfirmed := 8

	items := []models.Desembarque{
		{
			ID: "#Skandi Vitória-004711-Skandi Urca-MAI-PR-8842/2025",
			TransferItem: models.TransferItem{
				FromVessel:         "Skandi Urca",
				ToVessel:           "Skandi Vitória",
				FromDepartment:     "Maintenance",
				ToDepartment:       "Deck",
				SPN:                "004711",
				ItemDescription:    "Hydraulic seal kit",
				PRNumberTMMaster:   "PR-8842",
				QuantityToTransfer: 10,
				TotalAmountUSD:     &total,
			},
			AuthorID:      "seed",
			FileReference: "seed",
			Created:       now,
		},
		{
			ID: "#Skandi Salvador-000023-Skandi Açu-ENG-PR-9001/2025",
			TransferItem: models.TransferItem{
				FromVessel:         "Skandi Açu",
				ToVessel:           "Skandi Salvador",
				FromDepartment:     "Engine Room",
				SPN:                "000023",
				ItemDescription:    "Fuel injector",
				PRNumberTMMaster:   "PR-9001",
				QuantityToTransfer: 2,
			},
			AuthorID:      "seed",
			FileReference: "seed",
			Created:       now,
		},
	}
	for i := range items {
		if err := db.Where("id = ?", items[i].ID).FirstOrCreate(&items[i]).Error; err != nil {
			log.Fatalf("seed desembarque: %v", err)
		}
	}

	// One record already verified and waiting for shipment.
	conf := models.Conferencia{
		ID:                  items[0].ID,
		TransferItem:        items[0].TransferItem,
		StatusFinal:         models.StatusSentToEmbarque,
		DesembarqueQuantity: 10,
		QuantityConfirmed:   &qtyConfirmed,
	}
	if err := db.Where("id = ?", conf.ID).FirstOrCreate(&conf).Error; err != nil {
		log.Fatalf("seed conferencia: %v", err)
	}
	emb := models.Embarque{
		ID:                  items[0].ID,
		TransferItem:        items[0].TransferItem,
		ConferenciaQuantity: &qtyConfirmed,
		StatusFinal:         models.StatusSentToEmbarque,
	}
	if err := db.Where("id = ?", emb.ID).FirstOrCreate(&emb).Error; err != nil {
		log.Fatalf("seed embarque: %v", err)
	}

	log.Info("transfer records ready")
}

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/utils"
)

func main() {
	fmt.Println("🌱 eckPOS Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Tenant{},
		&models.UserAuth{},
		&models.RegisteredDevice{},
		&models.Category{},
		&models.Product{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.SyncChangeLog{},
		&models.SyncConflictRecord{},
		&models.SyncDeviceState{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	// Check if data already exists
	var tenantCount int64
	db.Model(&models.Tenant{}).Count(&tenantCount)
	if tenantCount > 0 {
		fmt.Printf("⚠️  Database already has %d tenants. Clear it first? (y/N): ", tenantCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		db.Exec("DELETE FROM payments")
		db.Exec("DELETE FROM order_items")
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM products")
		db.Exec("DELETE FROM categories")
		db.Exec("DELETE FROM customers")
		db.Exec("DELETE FROM sync_change_log")
		db.Exec("DELETE FROM sync_conflicts")
		db.Exec("DELETE FROM sync_device_states")
		db.Exec("DELETE FROM registered_devices")
		db.Exec("DELETE FROM user_auths")
		db.Exec("DELETE FROM tenants")
	}

	now := time.Now().UTC()

	// Tenant
	tenant := models.Tenant{
		ID:               uuid.New().String(),
		Name:             "Demo Coffee Shop",
		Subdomain:        "demo",
		ConflictStrategy: "LAST_WRITE_WINS",
		EntityStrategies: models.JSONB{"order": "CLIENT_WINS"},
		IsActive:         true,
	}
	if err := db.Create(&tenant).Error; err != nil {
		log.Fatalf("❌ Failed to create tenant: %v", err)
	}
	fmt.Printf("✅ Tenant: %s (%s)\n", tenant.Name, tenant.ID)

	// Admin user
	password, _ := utils.HashPassword("demo1234")
	admin := models.UserAuth{
		TenantID: tenant.ID,
		Username: "admin",
		Email:    "admin@demo.local",
		Password: password,
		Name:     "Demo Admin",
		Role:     "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("❌ Failed to create admin: %v", err)
	}
	fmt.Println("✅ Admin user: admin@demo.local / demo1234")

	// Register
	device := models.RegisteredDevice{
		DeviceID:   "pos-001",
		TenantID:   tenant.ID,
		Name:       "Front Counter",
		Status:     models.DeviceStatusActive,
		PairingKey: uuid.New().String(),
		LastSeenAt: now,
	}
	db.Create(&device)
	fmt.Println("✅ Device: pos-001 (Front Counter)")

	// Catalog
	drinks := models.Category{ID: uuid.New().String(), Name: "Drinks"}
	drinks.TenantID = tenant.ID
	drinks.CloudID = drinks.ID
	drinks.Version = 1
	drinks.LastModifiedAt = now

	food := models.Category{ID: uuid.New().String(), Name: "Food"}
	food.TenantID = tenant.ID
	food.CloudID = food.ID
	food.Version = 1
	food.LastModifiedAt = now

	db.Create(&drinks)
	db.Create(&food)

	products := []models.Product{
		{ID: uuid.New().String(), SKU: "ESP-001", Name: "Espresso", CategoryID: &drinks.ID, Price: 2.50, TaxRate: 0.19, StockQty: 999, Active: true},
		{ID: uuid.New().String(), SKU: "CAP-001", Name: "Cappuccino", CategoryID: &drinks.ID, Price: 3.40, TaxRate: 0.19, StockQty: 999, Active: true},
		{ID: uuid.New().String(), SKU: "LAT-001", Name: "Latte Macchiato", CategoryID: &drinks.ID, Price: 3.80, TaxRate: 0.19, StockQty: 999, Active: true},
		{ID: uuid.New().String(), SKU: "CRO-001", Name: "Croissant", CategoryID: &food.ID, Price: 2.20, TaxRate: 0.07, StockQty: 40, Active: true},
		{ID: uuid.New().String(), SKU: "BAG-001", Name: "Bagel", CategoryID: &food.ID, Price: 3.00, TaxRate: 0.07, StockQty: 25, Active: true},
	}
	for i := range products {
		products[i].TenantID = tenant.ID
		products[i].CloudID = products[i].ID
		products[i].Version = 1
		products[i].LastModifiedAt = now
		if err := db.Create(&products[i]).Error; err != nil {
			log.Fatalf("❌ Failed to create product %s: %v", products[i].Name, err)
		}
	}
	fmt.Printf("✅ Catalog: %d products in 2 categories\n", len(products))

	// A paid demo order
	order := models.Order{
		ID:          uuid.New().String(),
		OrderNumber: "POS-001-000001",
		DeviceID:    device.DeviceID,
		Status:      models.OrderStatusPaid,
		Subtotal:    5.90,
		TaxTotal:    1.12,
		Total:       7.02,
		PlacedAt:    &now,
	}
	order.TenantID = tenant.ID
	order.CloudID = order.ID
	order.Version = 1
	order.LastModifiedAt = now
	db.Create(&order)

	items := []models.OrderItem{
		{ID: uuid.New().String(), OrderID: order.ID, ProductID: products[0].ID, Name: "Espresso", Quantity: 1, UnitPrice: 2.50, TaxRate: 0.19, LineTotal: 2.50},
		{ID: uuid.New().String(), OrderID: order.ID, ProductID: products[1].ID, Name: "Cappuccino", Quantity: 1, UnitPrice: 3.40, TaxRate: 0.19, LineTotal: 3.40},
	}
	for i := range items {
		items[i].TenantID = tenant.ID
		items[i].CloudID = items[i].ID
		items[i].Version = 1
		items[i].LastModifiedAt = now
		db.Create(&items[i])
	}

	payment := models.Payment{
		ID: uuid.New().String(), OrderID: order.ID,
		Method: models.PaymentMethodCard, Amount: 7.02, CapturedAt: now,
	}
	payment.TenantID = tenant.ID
	payment.CloudID = payment.ID
	payment.Version = 1
	payment.LastModifiedAt = now
	db.Create(&payment)

	fmt.Printf("✅ Order %s with %d items\n", order.OrderNumber, len(items))
	fmt.Println()
	fmt.Println("🎉 Demo data ready. Start the server with: go run ./cmd/api")
}

package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS users (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  email VARCHAR(255) NOT NULL,
	  full_name VARCHAR(255) NOT NULL,
	  password_hash VARCHAR(255) NOT NULL,
	  role VARCHAR(32) NOT NULL DEFAULT 'customer',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS products (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  name VARCHAR(255) NOT NULL,
	  description TEXT NOT NULL,
	  price_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  status VARCHAR(32) NOT NULL,
	  stock INT NOT NULL DEFAULT 0,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_products_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS product_inventory (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  product_id BIGINT UNSIGNED NOT NULL,
	  color VARCHAR(64) NOT NULL,
	  size VARCHAR(32) NOT NULL,
	  quantity INT NOT NULL DEFAULT 0,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_inventory_variant (product_id, color, size),
	  CONSTRAINT fk_inventory_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS product_images (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  product_id BIGINT UNSIGNED NOT NULL,
	  storage_key VARCHAR(255) NOT NULL,
	  url VARCHAR(512) NOT NULL,
	  mime_type VARCHAR(64) NOT NULL,
	  position INT NOT NULL DEFAULT 0,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_product_images_product_id (product_id),
	  CONSTRAINT fk_product_images_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS orders (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  user_id BIGINT UNSIGNED NULL,
	  customer_name VARCHAR(255) NOT NULL,
	  customer_email VARCHAR(255) NOT NULL,
	  shipping_address_json JSON NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  subtotal_cents BIGINT NOT NULL,
	  shipping_cents BIGINT NOT NULL,
	  total_cents BIGINT NOT NULL,
	  provider_order_id VARCHAR(64) NULL,
	  capture_id VARCHAR(64) NULL,
	  fail_reason VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  paid_at DATETIME(3) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_orders_provider_order_id (provider_order_id),
	  KEY ix_orders_user_id (user_id),
	  KEY ix_orders_status (status),
	  CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS order_items (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  order_id BIGINT UNSIGNED NOT NULL,
	  product_id BIGINT UNSIGNED NOT NULL,
	  product_name VARCHAR(255) NOT NULL,
	  color VARCHAR(64) NOT NULL,
	  size VARCHAR(32) NOT NULL,
	  quantity INT NOT NULL,
	  unit_price_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_items_order_id (order_id),
	  CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	  CONSTRAINT fk_order_items_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS transactions (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  order_id BIGINT UNSIGNED NOT NULL,
	  capture_id VARCHAR(64) NOT NULL,
	  total_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  completed_at DATETIME(3) NOT NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_transactions_capture_id (capture_id),
	  KEY ix_transactions_order_id (order_id),
	  CONSTRAINT fk_transactions_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("✓ all tables created successfully")
}

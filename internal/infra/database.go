package infra

import (
	"fmt"

	"stockroom/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches for DDL that
// GORM cannot express (the allocation stored routine, the matcher index).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates the schema. Also used by the integration test suite
// against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.Warehouse{},
		&model.Order{},
		&model.Allocation{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle:
// the matcher's covering index and the allocate_arrival stored routine.
// CREATE OR REPLACE / IF NOT EXISTS semantics make re-runs safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Covering index for the matcher query (product, amount, created_at).
		{"matcher covering index", `
CREATE INDEX IF NOT EXISTS idx_orders_pending_match
    ON orders (product_id, amount, created_at)
    WHERE fulfilled_at IS NULL`},

		// Stored-routine entry point. Behaviorally equivalent to the Go
		// coordinator: same precondition order, same locking discipline,
		// same tie-break (oldest created_at, then lowest id). Failures are
		// raised with custom SQLSTATEs so the adapter can map them back to
		// the service error taxonomy:
		//   SR400 invalid amount
		//   SR404 product not found
		//   SR405 warehouse not found
		//   SR406 no matching pending order
		//   SR409 order already fulfilled
		{"allocate_arrival routine", `
CREATE OR REPLACE FUNCTION allocate_arrival(
    p_product_id   bigint,
    p_warehouse_id bigint,
    p_amount       integer,
    p_arrived_at   timestamptz
) RETURNS bigint AS $$
DECLARE
    v_order_id      bigint;
    v_price         numeric(10,2);
    v_allocation_id bigint;
BEGIN
    IF p_amount IS NULL OR p_amount <= 0 THEN
        RAISE EXCEPTION 'amount must be positive' USING ERRCODE = 'SR400';
    END IF;

    SELECT price INTO v_price FROM products WHERE id = p_product_id;
    IF NOT FOUND THEN
        RAISE EXCEPTION 'product % not found', p_product_id USING ERRCODE = 'SR404';
    END IF;

    IF NOT EXISTS (SELECT 1 FROM warehouses WHERE id = p_warehouse_id) THEN
        RAISE EXCEPTION 'warehouse % not found', p_warehouse_id USING ERRCODE = 'SR405';
    END IF;

    SELECT id INTO v_order_id
      FROM orders
     WHERE product_id = p_product_id
       AND amount = p_amount
       AND created_at < p_arrived_at
       AND fulfilled_at IS NULL
     ORDER BY created_at, id
     LIMIT 1
       FOR UPDATE;
    IF v_order_id IS NULL THEN
        IF EXISTS (SELECT 1 FROM orders
                    WHERE product_id = p_product_id
                      AND amount = p_amount
                      AND created_at < p_arrived_at
                      AND fulfilled_at IS NOT NULL) THEN
            RAISE EXCEPTION 'matching order already fulfilled' USING ERRCODE = 'SR409';
        END IF;
        RAISE EXCEPTION 'no matching pending order' USING ERRCODE = 'SR406';
    END IF;

    IF EXISTS (SELECT 1 FROM allocations WHERE order_id = v_order_id) THEN
        RAISE EXCEPTION 'order % already fulfilled', v_order_id USING ERRCODE = 'SR409';
    END IF;

    UPDATE orders SET fulfilled_at = now() WHERE id = v_order_id;

    INSERT INTO allocations (warehouse_id, product_id, order_id, amount, total, created_at)
    VALUES (p_warehouse_id, p_product_id, v_order_id, p_amount, v_price * p_amount, now())
    RETURNING id INTO v_allocation_id;

    RETURN v_allocation_id;
END;
$$ LANGUAGE plpgsql`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

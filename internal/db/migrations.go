package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'violation_source') THEN
			CREATE TYPE violation_source AS ENUM ('MANUAL', 'KAFKA');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		parent_id UUID REFERENCES departments(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_departments_parent_id ON departments (parent_id);`,
	`CREATE TABLE IF NOT EXISTS violation_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		employee_id VARCHAR(64) NOT NULL,
		employee_name VARCHAR(255) NOT NULL,
		department_id UUID REFERENCES departments(id) ON DELETE SET NULL,
		type VARCHAR(64) NOT NULL,
		reason TEXT,
		occurred_at TIMESTAMPTZ NOT NULL,
		source violation_source NOT NULL DEFAULT 'MANUAL',
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_violation_records_employee_id ON violation_records (employee_id);`,
	`CREATE INDEX IF NOT EXISTS idx_violation_records_department_id ON violation_records (department_id);`,
	`CREATE INDEX IF NOT EXISTS idx_violation_records_occurred_at ON violation_records (occurred_at);`,
	// Records are append-only; reject edits at the database level as well.
	`CREATE OR REPLACE FUNCTION trg_violation_records_immutable() RETURNS TRIGGER AS $$
	BEGIN
		RAISE EXCEPTION 'violation_records are append-only';
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_violation_records_immutable') THEN
			CREATE TRIGGER trg_violation_records_immutable
				BEFORE UPDATE OR DELETE ON violation_records
				FOR EACH ROW
				EXECUTE PROCEDURE trg_violation_records_immutable();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

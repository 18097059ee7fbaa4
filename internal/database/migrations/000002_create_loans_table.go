package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createLoansTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_loans_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS loan_applications (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					reference VARCHAR(40) UNIQUE,
					user_id UUID NOT NULL REFERENCES users(id),
					loan_type VARCHAR(30) NOT NULL,
					amount NUMERIC NOT NULL,
					tenure INTEGER NOT NULL,
					interest_rate NUMERIC NOT NULL,
					emi NUMERIC,
					purpose TEXT NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					status_remarks TEXT,
					status_updated_at TIMESTAMP WITH TIME ZONE,
					status_updated_by UUID REFERENCES users(id),
					application_progress INTEGER DEFAULT 10,
					documents_submitted BOOLEAN DEFAULT FALSE,
					video_interview_completed BOOLEAN DEFAULT FALSE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_loan_applications_user_id ON loan_applications(user_id);
				CREATE INDEX IF NOT EXISTS idx_loan_applications_status ON loan_applications(status);
				CREATE INDEX IF NOT EXISTS idx_loan_applications_deleted_at ON loan_applications(deleted_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS loan_applications`).Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createLoansTableMigration())
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createVerificationTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_verification_tables",
		Migrate: func(tx *gorm.DB) error {
			// Document records: superseded uploads stay for audit with is_active=false
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS document_records (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					loan_id UUID REFERENCES loan_applications(id),
					document_type VARCHAR(30) NOT NULL,
					document_number VARCHAR(100) NOT NULL,
					file_ref TEXT NOT NULL,
					file_type VARCHAR(100),
					verification_status VARCHAR(25) NOT NULL DEFAULT 'pending',
					confidence_score NUMERIC,
					extracted_fields TEXT,
					verified_at TIMESTAMP WITH TIME ZONE,
					verified_by UUID REFERENCES users(id),
					notes TEXT,
					is_active BOOLEAN DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_document_records_user_id ON document_records(user_id);
				CREATE INDEX IF NOT EXISTS idx_document_records_loan_id ON document_records(loan_id);
				CREATE INDEX IF NOT EXISTS idx_document_records_type ON document_records(document_type);
				CREATE INDEX IF NOT EXISTS idx_document_records_is_active ON document_records(is_active);
			`).Error; err != nil {
				return err
			}

			// Interview sessions: the partial unique index enforces at most one
			// non-abandoned session per loan
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS interview_sessions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					session_id VARCHAR(64) NOT NULL UNIQUE,
					user_id UUID NOT NULL REFERENCES users(id),
					loan_id UUID NOT NULL REFERENCES loan_applications(id),
					completion_status VARCHAR(20) NOT NULL DEFAULT 'not_started',
					completed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE UNIQUE INDEX IF NOT EXISTS ux_interview_sessions_active_loan
					ON interview_sessions(loan_id)
					WHERE completion_status != 'abandoned';
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS interview_questions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					session_row_id UUID NOT NULL REFERENCES interview_sessions(id),
					question_id VARCHAR(16) NOT NULL,
					position INTEGER NOT NULL,
					prompt_text TEXT NOT NULL,
					prompt_media_ref TEXT,
					language VARCHAR(30) DEFAULT 'English',
					category VARCHAR(50),
					is_answered BOOLEAN DEFAULT FALSE,
					response_media_ref TEXT,
					transcript TEXT,
					confidence NUMERIC,
					sentiment_score NUMERIC,
					answered_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					UNIQUE (session_row_id, question_id)
				);

				CREATE INDEX IF NOT EXISTS idx_interview_questions_session ON interview_questions(session_row_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS interview_questions;
				DROP TABLE IF EXISTS interview_sessions;
				DROP TABLE IF EXISTS document_records;
			`).Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createVerificationTablesMigration())
}

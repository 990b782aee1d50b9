package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE leads (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				company VARCHAR(255) NOT NULL DEFAULT '',
				email VARCHAR(255) NOT NULL,
				phone VARCHAR(50) NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL DEFAULT 'new',
				source VARCHAR(100) NOT NULL DEFAULT '',
				assigned_to VARCHAR(255) NOT NULL DEFAULT '',
				converted_to_client_id BIGINT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_leads_status ON leads(status);
			CREATE INDEX idx_leads_source ON leads(source);
			CREATE INDEX idx_leads_deleted_at ON leads(deleted_at);

			CREATE TABLE clients (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				company VARCHAR(255) NOT NULL DEFAULT '',
				email VARCHAR(255) NOT NULL,
				phone VARCHAR(50) NOT NULL DEFAULT '',
				converted_from_lead_id BIGINT REFERENCES leads(id),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_clients_deleted_at ON clients(deleted_at);

			CREATE TABLE activities (
				id BIGSERIAL PRIMARY KEY,
				parent_type VARCHAR(20) NOT NULL CHECK (parent_type IN ('lead', 'client')),
				parent_id BIGINT NOT NULL,
				type VARCHAR(50) NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_activities_parent ON activities(parent_type, parent_id);
		`,
		2: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				trigger_event VARCHAR(100) NOT NULL,
				conditions JSONB,
				actions JSONB NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_trigger_active ON workflows(trigger_event, is_active);
		`,
		3: `
			-- Latest-activity lookups for the inactivity scan
			CREATE INDEX idx_activities_live_parent_created
				ON activities(parent_id, created_at)
				WHERE parent_type = 'lead' AND deleted_at IS NULL;
		`,
	}
}

package sqlstore

// schema is portable between SQLite and Postgres. Timestamps are fixed-width UTC
// text and identifiers are UUID text.
const schema = `
CREATE TABLE IF NOT EXISTS providers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	abn TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	bsb TEXT NOT NULL DEFAULT '',
	account_number TEXT NOT NULL DEFAULT '',
	account_name TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_providers_abn ON providers(abn);

CREATE TABLE IF NOT EXISTS participants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	ndis_number TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_participants_ndis ON participants(ndis_number);

CREATE TABLE IF NOT EXISTS email_associations (
	provider_id TEXT NOT NULL,
	email TEXT NOT NULL,
	domain TEXT NOT NULL,
	verified INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (provider_id, email)
);
CREATE INDEX IF NOT EXISTS idx_email_associations_email ON email_associations(email);
CREATE INDEX IF NOT EXISTS idx_email_associations_domain ON email_associations(domain);

CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	invoice_number TEXT NOT NULL DEFAULT '',
	provider_id TEXT,
	participant_id TEXT,
	sender_email TEXT NOT NULL DEFAULT '',
	match_method TEXT NOT NULL DEFAULT '',
	invoice_date TEXT NOT NULL,
	subtotal BIGINT NOT NULL DEFAULT 0,
	gst BIGINT NOT NULL DEFAULT 0,
	total BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_invoices_sender ON invoices(sender_email, created_at);

CREATE TABLE IF NOT EXISTS invoice_lines (
	id TEXT PRIMARY KEY,
	invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	item_code TEXT NOT NULL,
	item_name TEXT NOT NULL,
	category_code TEXT NOT NULL,
	service_date TEXT NOT NULL,
	quantity TEXT NOT NULL,
	unit_price BIGINT NOT NULL,
	line_total BIGINT NOT NULL,
	gst BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_invoice_lines_invoice ON invoice_lines(invoice_id);

CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	reference TEXT NOT NULL UNIQUE,
	invoice_id TEXT NOT NULL,
	participant_id TEXT,
	provider_id TEXT,
	total BIGINT NOT NULL,
	status TEXT NOT NULL,
	created_by TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS claim_lines (
	id TEXT PRIMARY KEY,
	claim_id TEXT NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	source_line_id TEXT NOT NULL,
	source_invoice_id TEXT NOT NULL,
	item_code TEXT NOT NULL,
	item_name TEXT NOT NULL,
	category_code TEXT NOT NULL,
	service_date TEXT NOT NULL,
	quantity TEXT NOT NULL,
	unit_price BIGINT NOT NULL,
	line_total BIGINT NOT NULL,
	gst BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_claim_lines_claim ON claim_lines(claim_id);

CREATE TABLE IF NOT EXISTS payment_batches (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL UNIQUE,
	sequence INTEGER NOT NULL,
	total_amount BIGINT NOT NULL,
	payment_count INTEGER NOT NULL,
	generated_at TEXT NOT NULL,
	bank_reference TEXT NOT NULL DEFAULT '',
	submitted_at TEXT,
	cleared_at TEXT
);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	claim_id TEXT NOT NULL,
	amount BIGINT NOT NULL,
	bsb TEXT NOT NULL,
	account_number TEXT NOT NULL,
	account_name TEXT NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	batch_id TEXT,
	created_at TEXT NOT NULL,
	submitted_at TEXT,
	cleared_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
CREATE INDEX IF NOT EXISTS idx_payments_batch ON payments(batch_id);

CREATE TABLE IF NOT EXISTS sequences (
	scope TEXT PRIMARY KEY,
	value BIGINT NOT NULL
)
`

package db

var schema = `
CREATE TABLE IF NOT EXISTS performances (
	performance_id UUID PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	category VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(64) NOT NULL DEFAULT 'active',
	start_date TIMESTAMPTZ NOT NULL,
	schedule_time VARCHAR(32) NOT NULL,
	total_capacity INT NOT NULL CHECK (total_capacity >= 0),
	available_capacity INT NOT NULL CHECK (available_capacity >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS attendees (
	attendee_id UUID PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	normalized_email VARCHAR(255) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS attendees_normalized_email_idx
	ON attendees (normalized_email);

-- qr_payload is TEXT, not JSONB: the key order is part of the scanned format.
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	performance_id UUID NOT NULL REFERENCES performances (performance_id),
	attendee_id UUID NOT NULL REFERENCES attendees (attendee_id),
	status VARCHAR(16) NOT NULL CHECK (status IN ('valid', 'used', 'cancelled')),
	qr_payload TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	redeemed_at TIMESTAMPTZ,
	cancelled_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS tickets_active_performance_attendee_idx
	ON tickets (performance_id, attendee_id)
	WHERE status <> 'cancelled';

CREATE INDEX IF NOT EXISTS tickets_performance_issued_at_idx
	ON tickets (performance_id, issued_at DESC);

CREATE INDEX IF NOT EXISTS tickets_attendee_issued_at_idx
	ON tickets (attendee_id, issued_at DESC);

CREATE TABLE IF NOT EXISTS read_model_performance_attendance (
	performance_id UUID PRIMARY KEY,
	payload JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMPTZ NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);
`

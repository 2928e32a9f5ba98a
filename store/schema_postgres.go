package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS stations (
    id          BIGSERIAL PRIMARY KEY,
    code        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS machines (
    id             BIGSERIAL PRIMARY KEY,
    station_id     BIGINT NOT NULL REFERENCES stations(id),
    code           TEXT NOT NULL UNIQUE,
    standard_speed INTEGER NOT NULL DEFAULT 0,
    status         TEXT NOT NULL DEFAULT 'IDLE',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_machines_station ON machines(station_id);
CREATE INDEX IF NOT EXISTS idx_machines_status ON machines(status);

CREATE TABLE IF NOT EXISTS machine_status_log (
    id          BIGSERIAL PRIMARY KEY,
    machine_id  BIGINT NOT NULL REFERENCES machines(id),
    status      TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_status_log_machine ON machine_status_log(machine_id);

CREATE TABLE IF NOT EXISTS sales_orders (
    id            BIGSERIAL PRIMARY KEY,
    order_uuid    TEXT NOT NULL UNIQUE,
    order_number  TEXT NOT NULL UNIQUE,
    customer_name TEXT NOT NULL DEFAULT '',
    item_name     TEXT NOT NULL DEFAULT '',
    quantity      BIGINT NOT NULL DEFAULT 1,
    priority      TEXT NOT NULL DEFAULT 'NORMAL',
    is_urgent     BOOLEAN NOT NULL DEFAULT FALSE,
    urgent_reason TEXT NOT NULL DEFAULT '',
    due_date      TIMESTAMPTZ NOT NULL,
    released      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_number ON sales_orders(order_number);
CREATE INDEX IF NOT EXISTS idx_orders_due ON sales_orders(due_date);

CREATE TABLE IF NOT EXISTS plan_rows (
    id                 BIGSERIAL PRIMARY KEY,
    order_id           BIGINT NOT NULL REFERENCES sales_orders(id),
    station_id         BIGINT NOT NULL REFERENCES stations(id),
    machine_id         BIGINT NOT NULL REFERENCES machines(id),
    sequence           INTEGER NOT NULL,
    setup_minutes      INTEGER NOT NULL DEFAULT 0,
    run_minutes        INTEGER NOT NULL DEFAULT 0,
    changeover_minutes INTEGER NOT NULL DEFAULT 0,
    planned_start      TIMESTAMPTZ NOT NULL,
    planned_end        TIMESTAMPTZ NOT NULL,
    total_qty          BIGINT NOT NULL DEFAULT 0,
    UNIQUE(order_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_plan_rows_order ON plan_rows(order_id);
CREATE INDEX IF NOT EXISTS idx_plan_rows_machine ON plan_rows(machine_id);

CREATE TABLE IF NOT EXISTS execution_events (
    seq         BIGSERIAL PRIMARY KEY,
    plan_row_id BIGINT NOT NULL REFERENCES plan_rows(id),
    event_type  TEXT NOT NULL,
    operator    TEXT NOT NULL DEFAULT '',
    note        TEXT NOT NULL DEFAULT '',
    actual_qty  BIGINT NOT NULL DEFAULT 0,
    scrap_qty   BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_events_plan_row ON execution_events(plan_row_id);

CREATE TABLE IF NOT EXISTS exceptions (
    id          BIGSERIAL PRIMARY KEY,
    exc_type    TEXT NOT NULL,
    severity    TEXT NOT NULL DEFAULT 'MEDIUM',
    machine_id  BIGINT NOT NULL REFERENCES machines(id),
    status      TEXT NOT NULL DEFAULT 'OPEN',
    sla_due     TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_exceptions_machine ON exceptions(machine_id, status);

CREATE TABLE IF NOT EXISTS audit_log (
    id          BIGSERIAL PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id   BIGINT NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS outbox (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT NOT NULL,
    payload     BYTEA NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

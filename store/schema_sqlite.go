package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS stations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    code        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS machines (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    station_id     INTEGER NOT NULL REFERENCES stations(id),
    code           TEXT NOT NULL UNIQUE,
    standard_speed INTEGER NOT NULL DEFAULT 0,
    status         TEXT NOT NULL DEFAULT 'IDLE',
    created_at     TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_machines_station ON machines(station_id);
CREATE INDEX IF NOT EXISTS idx_machines_status ON machines(status);

CREATE TABLE IF NOT EXISTS machine_status_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    machine_id  INTEGER NOT NULL REFERENCES machines(id),
    status      TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_status_log_machine ON machine_status_log(machine_id);

CREATE TABLE IF NOT EXISTS sales_orders (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    order_uuid    TEXT NOT NULL UNIQUE,
    order_number  TEXT NOT NULL UNIQUE,
    customer_name TEXT NOT NULL DEFAULT '',
    item_name     TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL DEFAULT 1,
    priority      TEXT NOT NULL DEFAULT 'NORMAL',
    is_urgent     INTEGER NOT NULL DEFAULT 0,
    urgent_reason TEXT NOT NULL DEFAULT '',
    due_date      TEXT NOT NULL,
    released      INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_orders_number ON sales_orders(order_number);
CREATE INDEX IF NOT EXISTS idx_orders_due ON sales_orders(due_date);

CREATE TABLE IF NOT EXISTS plan_rows (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id           INTEGER NOT NULL REFERENCES sales_orders(id),
    station_id         INTEGER NOT NULL REFERENCES stations(id),
    machine_id         INTEGER NOT NULL REFERENCES machines(id),
    sequence           INTEGER NOT NULL,
    setup_minutes      INTEGER NOT NULL DEFAULT 0,
    run_minutes        INTEGER NOT NULL DEFAULT 0,
    changeover_minutes INTEGER NOT NULL DEFAULT 0,
    planned_start      TEXT NOT NULL,
    planned_end        TEXT NOT NULL,
    total_qty          INTEGER NOT NULL DEFAULT 0,
    UNIQUE(order_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_plan_rows_order ON plan_rows(order_id);
CREATE INDEX IF NOT EXISTS idx_plan_rows_machine ON plan_rows(machine_id);

CREATE TABLE IF NOT EXISTS execution_events (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_row_id INTEGER NOT NULL REFERENCES plan_rows(id),
    event_type  TEXT NOT NULL,
    operator    TEXT NOT NULL DEFAULT '',
    note        TEXT NOT NULL DEFAULT '',
    actual_qty  INTEGER NOT NULL DEFAULT 0,
    scrap_qty   INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_events_plan_row ON execution_events(plan_row_id);

CREATE TABLE IF NOT EXISTS exceptions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    exc_type    TEXT NOT NULL,
    severity    TEXT NOT NULL DEFAULT 'MEDIUM',
    machine_id  INTEGER NOT NULL REFERENCES machines(id),
    status      TEXT NOT NULL DEFAULT 'OPEN',
    sla_due     TEXT,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    resolved_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_exceptions_machine ON exceptions(machine_id, status);

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS outbox (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
`

package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS teams (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    captain_contact TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'draft',
    admin_comment   TEXT NOT NULL DEFAULT '',
    tournament_id   INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_teams_name ON teams (LOWER(name));
CREATE INDEX IF NOT EXISTS idx_teams_status ON teams (status);
CREATE INDEX IF NOT EXISTS idx_teams_tournament ON teams (tournament_id);

CREATE TABLE IF NOT EXISTS players (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    team_id         INTEGER NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
    nickname        TEXT NOT NULL,
    telegram_handle TEXT NOT NULL,
    telegram_id     INTEGER NOT NULL DEFAULT 0,
    discord_handle  TEXT NOT NULL DEFAULT '',
    discord_id      TEXT NOT NULL DEFAULT '',
    is_captain      INTEGER NOT NULL DEFAULT 0,
    subscription    TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_players_nickname ON players (team_id, LOWER(nickname));
CREATE UNIQUE INDEX IF NOT EXISTS idx_players_telegram ON players (team_id, LOWER(telegram_handle));
CREATE UNIQUE INDEX IF NOT EXISTS idx_players_discord
    ON players (team_id, LOWER(discord_handle)) WHERE discord_handle != '';
CREATE INDEX IF NOT EXISTS idx_players_telegram_id ON players (telegram_id) WHERE telegram_id != 0;

CREATE TABLE IF NOT EXISTS tournaments (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    name              TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    event_date        TEXT NOT NULL DEFAULT '',
    registration_open INTEGER NOT NULL DEFAULT 1,
    created_at        TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tournaments_name ON tournaments (LOWER(name));

CREATE TABLE IF NOT EXISTS admins (
    telegram_id  INTEGER PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    added_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_stats (
    day           TEXT PRIMARY KEY,
    registrations INTEGER NOT NULL DEFAULT 0,
    approved      INTEGER NOT NULL DEFAULT 0,
    rejected      INTEGER NOT NULL DEFAULT 0
);
`

package sqlinline

// Schema lists the bootstrap statements in execution order. Each is
// idempotent so EnsureSchema can run on every start.
var Schema = []string{
	QCreatePgcrypto,
	QCreateSessionsTable,
	QCreateJobsTable,
	QCreateJobsReadyIndex,
	QCreateIntegrationTokensTable,
}

const QCreatePgcrypto = `--sql d27d9446-f8e3-4f3e-a00a-885237af6a03
create extension if not exists pgcrypto;
`

const QCreateSessionsTable = `--sql bf3c3141-df00-4550-8949-afe19fc8a565
create table if not exists landing_sessions (
    session_id text primary key,
    status text not null default 'pending'
        check (status in ('pending', 'processing', 'completed', 'failed')),
    payload jsonb not null,
    result jsonb,
    error_message text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateJobsTable = `--sql 7977b865-d134-402f-b27a-d47698eee57e
create table if not exists landing_jobs (
    id text primary key,
    queue text not null,
    payload jsonb not null,
    state text not null default 'waiting'
        check (state in ('waiting', 'active', 'delayed', 'completed', 'failed')),
    attempts integer not null default 0,
    max_attempts integer not null default 3,
    last_error text,
    run_at timestamptz not null default now(),
    locked_at timestamptz,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateJobsReadyIndex = `--sql 365c4609-0dc3-4f53-bdb5-e17ef9577bb9
create index if not exists landing_jobs_ready_idx on landing_jobs (queue, state, run_at);
`

const QCreateIntegrationTokensTable = `--sql fdbde4d7-fb32-4da3-901c-374405a8e3a0
create table if not exists integration_tokens (
    id uuid primary key default gen_random_uuid(),
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QPing = `--sql 28a0e704-0437-47c5-9c39-efa510204f75
select 1;
`

package sqlinline

// QCreateSession inserts a pending session and returns the stored row. An
// existing session with the same id is returned unchanged.
const QCreateSession = `--sql 9c4e1811-724f-4c6f-8b10-def16f5f94ce
with inserted as (
    insert into landing_sessions (session_id, status, payload, created_at, updated_at)
    values ($1::text, 'pending', $2::jsonb, now(), now())
    on conflict (session_id) do nothing
    returning session_id, status, payload, result, error_message, created_at, updated_at
)
select session_id, status, payload, result, error_message, created_at, updated_at
from inserted
union all
select session_id, status, payload, result, error_message, created_at, updated_at
from landing_sessions
where session_id = $1::text
  and not exists (select 1 from inserted);
`

const QMarkSessionProcessing = `--sql 95a1b211-fd9b-43d6-a67b-42ed53ebeaf3
update landing_sessions
set status = 'processing',
    result = null,
    error_message = null,
    updated_at = now()
where session_id = $1::text;
`

const QCompleteSession = `--sql 0eaa99ea-4750-4381-b628-03ce10c5c7d2
update landing_sessions
set status = 'completed',
    result = $2::jsonb,
    error_message = null,
    updated_at = now()
where session_id = $1::text
  and status = 'processing';
`

const QFailSession = `--sql f2c28fc9-5a9e-4925-8214-ad1a41bcbbb4
update landing_sessions
set status = 'failed',
    result = null,
    error_message = $2::text,
    updated_at = now()
where session_id = $1::text
  and status = 'processing';
`

const QSelectSession = `--sql 593475af-14e5-41a8-bf44-69cad5ea62e5
select session_id, status, payload, result, error_message, created_at, updated_at
from landing_sessions
where session_id = $1::text;
`

package sqlinline

// QEnqueueJob inserts a waiting job. A failed job with the same id is reset;
// any other existing job is left untouched.
const QEnqueueJob = `--sql 2815b584-42d5-48c4-a1c6-04d4a1e227b8
insert into landing_jobs (id, queue, payload, state, attempts, max_attempts, run_at, created_at, updated_at)
values ($1::text, $2::text, $3::jsonb, 'waiting', 0, $4::int, now(), now(), now())
on conflict (id) do update set
    payload = excluded.payload,
    state = 'waiting',
    attempts = 0,
    max_attempts = excluded.max_attempts,
    last_error = null,
    run_at = now(),
    locked_at = null,
    updated_at = now()
where landing_jobs.state = 'failed';
`

// QClaimJob takes the oldest due job, or one whose worker stopped
// heartbeating for longer than $2 seconds.
const QClaimJob = `--sql bb4cd78f-2385-42a5-a1e6-fb9859f9b6cb
with next_job as (
    select id
    from landing_jobs
    where queue = $1::text
      and (
        (state in ('waiting', 'delayed') and run_at <= now())
        or (state = 'active' and locked_at < now() - make_interval(secs => $2::int))
      )
    order by run_at asc
    for update skip locked
    limit 1
),
updated as (
    update landing_jobs
    set state = 'active',
        attempts = attempts + 1,
        locked_at = now(),
        updated_at = now()
    where id in (select id from next_job)
    returning id, payload, attempts
)
select id, payload, attempts from updated;
`

const QCompleteJob = `--sql 1dac2005-8d57-4f99-a0ad-71f631f50e52
update landing_jobs
set state = 'completed',
    last_error = null,
    locked_at = null,
    updated_at = now()
where id = $1::text;
`

const QFailJob = `--sql 5267429d-58cf-469e-87ee-4cf62d4d1940
update landing_jobs
set state = $2::text,
    last_error = $3::text,
    run_at = $4::timestamptz,
    locked_at = null,
    updated_at = now()
where id = $1::text
returning id, state, attempts, coalesce(last_error, ''), run_at;
`

const QSelectJobStatus = `--sql 04df046e-bddd-404e-8da5-ff72ab00df8e
select id, state, attempts, coalesce(last_error, ''), run_at
from landing_jobs
where id = $1::text;
`

package sqlinline

// QSelectIntegrationToken reads the stored API key of one LLM provider.
const QSelectIntegrationToken = `--sql 123fd5ed-17c7-4811-a982-8927beee3e8a
select token
from integration_tokens
where provider = $1::text
  and token <> '';
`

// QUpsertIntegrationToken stores or rotates a provider key.
const QUpsertIntegrationToken = `--sql 49fdc4e8-1a22-4027-9239-c8a02aa31960
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`

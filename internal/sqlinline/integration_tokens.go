package sqlinline

const QSelectIntegrationToken = `--sql 7e2c4b19-3d58-4a6f-9c01-b84f2e6d5a73
select token
from integration_tokens
where provider = $1::text
  and token <> ''
limit 1;
`

const QUpsertIntegrationToken = `--sql d41f9a06-8b27-4c3e-a5d9-0f6e1c72b8e4
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`

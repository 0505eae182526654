package sqlinline

const QSelectIntegrationToken = `--sql 6be4a37b-85f3-424b-a0d7-30202f78a8cd
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 095f29fb-d640-40c7-89f6-394ccfb2f54f
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

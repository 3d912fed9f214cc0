package sqlinline

const QSelectCredentialToken = `--sql 3a640640-9f14-4474-93d2-0258a2190bb6
select token
from integration_credentials
where provider = $1::text
limit 1;
`

const QUpsertCredentialToken = `--sql 20f74773-a8d1-4b66-b24f-a401d6004eff
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into integration_credentials (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), (select provider from incoming), (select token from incoming), (select properties from incoming), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

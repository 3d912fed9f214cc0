package sqlinline

const QEnqueueJob = `--sql 57344c36-c170-4394-85f6-e84361a030a7
insert into generation_jobs (
    id,
    project_id,
    user_id,
    prompt,
    template_id,
    locale,
    status,
    progress,
    logs
)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, 'QUEUED', 0, '[]'::jsonb)
returning id, created_at;
`

const QClaimJob = `--sql 4ef91abe-7e39-4035-994c-cddff7a809c3
with next_job as (
    select id
    from generation_jobs
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update generation_jobs
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_job)
    returning id, project_id, user_id, prompt, template_id, coalesce(locale, ''), created_at
)
select * from claimed;
`

const QGetJob = `--sql 2442ea13-c67a-4632-bb69-e29bd8f3f418
select id, project_id, user_id, prompt, template_id, status, progress, logs,
       coalesce(repository_url, ''), coalesce(failure_reason, ''), coalesce(output, '{}'::jsonb),
       created_at, updated_at
from generation_jobs
where id = $1::uuid;
`

const QTransitionJob = `--sql cc489aba-5a98-49e4-b16a-6c39bcef55b0
update generation_jobs
set status = $2::text,
    progress = case when $2::text in ('COMPLETED', 'FAILED') then 100 else progress end,
    logs = coalesce($3::jsonb, logs),
    repository_url = coalesce($4::text, repository_url),
    failure_reason = coalesce($5::text, failure_reason),
    output = coalesce($6::jsonb, output),
    updated_at = now()
where id = $1::uuid
  and status not in ('COMPLETED', 'FAILED')
returning id, project_id, user_id, prompt, template_id, status, progress, logs,
          coalesce(repository_url, ''), coalesce(failure_reason, ''), coalesce(output, '{}'::jsonb),
          created_at, updated_at;
`

const QCheckpointJob = `--sql 73c1a102-67f8-4ad3-8440-c2f0e6ee503a
update generation_jobs
set progress = greatest(progress, $2::int),
    logs = coalesce($3::jsonb, logs),
    updated_at = now()
where id = $1::uuid
  and status = 'RUNNING';
`

const QListJobsByStatus = `--sql 824e0053-39c2-4bc5-a55f-4faa9e0e699a
select id, project_id, status, progress, created_at, updated_at
from generation_jobs
where status = $1
order by created_at asc;
`

const QRequeueStuckJobs = `--sql 0b839b67-f82a-47ed-b7ad-893a85d20eb3
update generation_jobs
set status = 'QUEUED', updated_at = now()
where status = 'RUNNING'
  and updated_at < $1
returning id;
`

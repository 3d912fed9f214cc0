package sqlinline

const QHealthCheck = `--sql 2a7fddd8-f9c7-4f91-8563-503545db9f97
select 1;
`

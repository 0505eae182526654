package sqlinline

const QSelectLicenseTier = `--sql ba09fd06-1a42-42c4-82dc-ca26698a8f9c
select tier from license_tiers where license_key = $1;
`

const QUpsertLicenseTier = `--sql d7f66b04-2f84-474f-bca7-2dec92d8f81f
insert into license_tiers(license_key, tier, updated_at)
values ($1, $2, now())
on conflict (license_key)
do update set tier = excluded.tier, updated_at = now();
`

const QDeleteLicenseTier = `--sql 88e1dec8-8c79-46fd-bbd8-96a8b0e941d8
delete from license_tiers where license_key = $1;
`

package sqlinline

// Usage counters are keyed by (license_key, month_key). The month key is
// the UTC YYYY-MM label, so a new billing month lands on a fresh row and
// the old one simply ages out. Rows carry an expiry instead of relying
// on a TTL-capable store; cmd/sweeper deletes what has lapsed.

const QSelectUsageCount = `--sql d93dc802-d1f0-46da-bee3-81aa4dac1cb2
select count from usage_counters
where license_key = $1 and month_key = $2;
`

// QUpsertUsageCount writes an absolute count. The caller reads first and
// writes current+1; concurrent writers can lose an update, which is the
// documented soft-quota behavior.
const QUpsertUsageCount = `--sql 1c4b90bf-6e75-4815-b808-0c0c0d84a798
insert into usage_counters(license_key, month_key, count, expires_at, updated_at)
values ($1, $2, $3::int, $4::timestamptz, now())
on conflict (license_key, month_key)
do update set count = excluded.count, expires_at = excluded.expires_at, updated_at = now();
`

const QDeleteExpiredUsage = `--sql 01706d68-bf08-4955-82da-12c7a13930bc
delete from usage_counters where expires_at < now();
`

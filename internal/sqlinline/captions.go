package sqlinline

// Captions are the batch coordinator's write-through sink: one row per
// image reference, latest caption wins.

const QUpsertCaption = `--sql 115bb04b-a8d0-4691-969b-bcde36aa8a58
insert into captions(image_ref, license_key, alt_text, created_at, updated_at)
values ($1, $2, $3, now(), now())
on conflict (image_ref)
do update set license_key = excluded.license_key, alt_text = excluded.alt_text, updated_at = now();
`

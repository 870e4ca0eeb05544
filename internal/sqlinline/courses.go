package sqlinline

const QSelectCourseByID = `--sql 8eda17df-4c7b-4f41-abbd-cf96da12bfee
select id, title, coalesce(description, ''), coalesce(cover_image_url, '')
from courses
where id = $1::text
limit 1;
`

const QUpdateCourseCover = `--sql 64acb309-ebea-4a00-b019-6cd49b2b61e2
update courses
set cover_image_url = $2::text,
    updated_at = now()
where id = $1::text;
`

const QSelectProfileRole = `--sql 40f23204-b1bf-4538-adc2-c70fc6718f4d
select role
from profiles
where id = $1::text
limit 1;
`

const QUpsertProfileRole = `--sql 5c1d7e0b-93a4-4f6e-8d2b-7a0e4c9f1b36
insert into profiles (id, role)
values ($1::text, $2::text)
on conflict (id) do update set role = excluded.role
returning id, role;
`

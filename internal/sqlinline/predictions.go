package sqlinline

const QInsertPrediction = `--sql a9431371-a0c9-4dd5-b2a3-8d5e4ef0cf2f
insert into predictions (prediction_id, course_id, status, model_name, input_data, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, coalesce($5::jsonb, '{}'::jsonb), $6::timestamptz, $6::timestamptz);
`

const QUpdatePredictionStatus = `--sql 2182ccb6-874c-4847-8e47-9d66e1d101c8
update predictions
set status = $2::text,
    updated_at = now()
where prediction_id = $1::text;
`

const QSelectPrediction = `--sql 2ebdc151-2c1e-454e-a9d8-220d4efe0fe1
select prediction_id, course_id, status, model_name, input_data, created_at, updated_at
from predictions
where prediction_id = $1::text
limit 1;
`

const QSelectLatestPrediction = `--sql 3fd866fb-e478-4181-8bcf-927dac2e5374
select prediction_id, course_id, status, model_name, input_data, created_at, updated_at
from predictions
where course_id = $1::text
order by created_at desc
limit 1;
`

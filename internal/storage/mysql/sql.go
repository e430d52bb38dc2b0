package mysql

const upsertRentRowSQL = `
INSERT INTO rent_rates
  (bedrooms, city_centre, west_end, source)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  city_centre = VALUES(city_centre),
  west_end    = VALUES(west_end),
  source      = VALUES(source),
  updated_at  = CURRENT_TIMESTAMP
`

const insertRentRowsPrefix = "INSERT INTO rent_rates\n  (bedrooms, city_centre, west_end, source)\nVALUES "

// Seeding never overwrites rows a sync already refreshed.
const insertRentRowsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  city_centre = IF(rent_rates.source = VALUES(source), VALUES(city_centre), rent_rates.city_centre),\n" +
	"  west_end    = IF(rent_rates.source = VALUES(source), VALUES(west_end), rent_rates.west_end)\n"

const insertMissSQL = `
INSERT INTO sync_misses (bedrooms, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

const insertCalculationSQL = `
INSERT INTO calculations (id, kind, input, output, created_at)
VALUES (?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listRentRowsSQL = `
SELECT bedrooms, city_centre, west_end
FROM rent_rates
ORDER BY bedrooms
`

const getCalculationSQL = `
SELECT id, kind, input, output, created_at
FROM calculations
WHERE id = ?
`

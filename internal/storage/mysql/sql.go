package mysql

import _ "embed"

//go:embed schema.sql
var schemaSQL string

// -----------------------------------------------------------------------------
// WRITES
// -----------------------------------------------------------------------------

// Indexed columns are copies of fields inside doc; doc is the source of truth.

const insertHospitalSQL = `INSERT INTO hospitals (id, slug, doc) VALUES (?, ?, ?)`

const updateHospitalSQL = `UPDATE hospitals SET slug = ?, doc = ? WHERE id = ?`

const insertTreatmentSQL = `INSERT INTO treatments (id, slug, category, doc) VALUES (?, ?, ?, ?)`

const updateTreatmentSQL = `UPDATE treatments SET slug = ?, category = ?, doc = ? WHERE id = ?`

const insertDoctorSQL = `
INSERT INTO doctors (id, slug, hospital_id, is_top_doctor, doc)
VALUES (?, ?, ?, ?, ?)
`

const updateDoctorSQL = `
UPDATE doctors
SET slug = ?, hospital_id = ?, is_top_doctor = ?, doc = ?
WHERE id = ?
`

const insertAdminSQL = `INSERT INTO admin_users (id, username, password_hash, role) VALUES (?, ?, ?, ?)`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Listings follow insertion order (seq).

const (
	selectHospitalDocs  = `SELECT doc FROM hospitals`
	selectTreatmentDocs = `SELECT doc FROM treatments`
	selectDoctorDocs    = `SELECT doc FROM doctors`
	orderBySeq          = ` ORDER BY seq`
)

const getAdminByUsernameSQL = `
SELECT id, username, password_hash, role
FROM admin_users
WHERE username = ?
`

// SPDX-License-Identifier: Apache-2.0

package store

const (
	upsertRecord = `
		INSERT INTO records (
			collection,
			id,
			body,
			updated_at
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
			body       = excluded.body,
			updated_at = excluded.updated_at;`

	getSingleRecord = `
		SELECT body
		FROM records
		WHERE collection = $1 AND id = $2;`

	getAllRecords = `
		SELECT body
		FROM records
		WHERE collection = $1;`

	deleteRecord = `
		DELETE FROM records
		WHERE collection = $1 AND id = $2;`

	clearCollection = `
		DELETE FROM records
		WHERE collection = $1;`
)

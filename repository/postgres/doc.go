// Package postgres stores users in the t_user table through pgx and manages
// the schema with embedded golang-migrate migrations.
//
// The table keys users by their numeric mobile number. Identifiers that are
// not numeric can never match a row and are reported as not found.
package postgres

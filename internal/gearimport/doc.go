// Package gearimport implements the spreadsheet import wizard for the gear
// inventory.
//
// # Wizard flow
//
// An import runs as a sequence of independent requests tied together by a
// Session:
//
//	Upload            persist the file, detect the header row
//	SubmitMapping     map header columns to gear fields, find unknown categories
//	ResolveCategories choose skip / create / existing id per unknown category
//	Preview           classify every row as new or duplicate
//	Commit            write rows inside one transaction and one import batch
//
// Every step reopens the uploaded file; no reader is held between requests.
// Commit and Abandon delete the file and the session whatever the outcome.
//
// # Row semantics
//
// Row numbers in messages are spreadsheet row numbers, so the first data row
// below a header on row 1 is "Row 2". Rows with no content at all are counted
// and skipped. A row whose name is blank is dropped from the preview and
// reported as a row error on commit. Row errors never abort a commit; only a
// run in which no row succeeded is rolled back, and the import batch with it.
//
// # Duplicates
//
// A row is a duplicate when the user already owns a gear item with the same
// name, compared case-insensitively, or when an earlier row in the same file
// carried that name. Updated duplicates keep their original import batch, so
// reverting a batch never removes items that existed before it.
package gearimport
